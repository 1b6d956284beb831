package cart

import (
	"fmt"
	"time"
)

// LineItem is one row in the cart: a product snapshot taken at add time plus
// the chosen variant and quantity. Snapshot fields are never refreshed after
// creation.
type LineItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     int64   `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Size      *string `json:"size,omitempty"`
	Color     *string `json:"color,omitempty"`
	StoreID   string  `json:"storeId"`
	StoreName string  `json:"storeName"`
}

// Subtotal returns price * quantity for this line.
func (l LineItem) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// matchesVariant reports whether the line holds the same (product, size, color)
// triple. A nil selector only matches a nil selector.
func (l LineItem) matchesVariant(productID string, size, color *string) bool {
	return l.ProductID == productID &&
		equalSelector(l.Size, size) &&
		equalSelector(l.Color, color)
}

func equalSelector(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AddItemInput carries the product snapshot required to add a line to the cart.
type AddItemInput struct {
	ProductID string  `json:"productId" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	Price     int64   `json:"price" validate:"gte=0"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	Size      *string `json:"size,omitempty"`
	Color     *string `json:"color,omitempty"`
	StoreID   string  `json:"storeId"`
	StoreName string  `json:"storeName"`
}

func newLineItemID(input AddItemInput, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%d", input.ProductID, selectorString(input.Size), selectorString(input.Color), now.UnixMilli())
}

func selectorString(selector *string) string {
	if selector == nil {
		return ""
	}
	return *selector
}

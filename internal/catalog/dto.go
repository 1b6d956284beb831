package catalog

import (
	"strings"

	"github.com/achrilik/storefront/pkg/enums"
)

// Product mirrors the marketplace product payload. Relation fields keep the
// upstream capitalized JSON keys.
type Product struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Price       int64               `json:"price"`
	Images      string              `json:"images"` // comma-separated URLs
	CategoryID  string              `json:"categoryId"`
	StoreID     string              `json:"storeId"`
	Status      enums.ProductStatus `json:"status"`
	Promotion   *string             `json:"promotion,omitempty"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`

	Category *Category        `json:"Category,omitempty"`
	Store    *StoreProfile    `json:"Store,omitempty"`
	Variants []ProductVariant `json:"Variant,omitempty"`
	Reviews  []Review         `json:"Review,omitempty"`
}

// FirstImage returns the first image URL of the comma-separated list.
func (p Product) FirstImage() string {
	images := strings.Split(p.Images, ",")
	if len(images) == 0 {
		return ""
	}
	return strings.TrimSpace(images[0])
}

// ProductVariant is one purchasable size/color combination.
type ProductVariant struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Stock     int     `json:"stock"`
}

// Category is a node in the marketplace category tree.
type Category struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	Image    string     `json:"image,omitempty"`
	ParentID *string    `json:"parentId,omitempty"`
	Children []Category `json:"children,omitempty"`
}

// StoreProfile is the seller-store snapshot attached to products.
type StoreProfile struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Description           string  `json:"description,omitempty"`
	Logo                  string  `json:"logo,omitempty"`
	Banner                string  `json:"banner,omitempty"`
	Wilaya                string  `json:"wilaya,omitempty"`
	City                  string  `json:"city,omitempty"`
	Address               string  `json:"address,omitempty"`
	Phone                 string  `json:"phone,omitempty"`
	Email                 string  `json:"email,omitempty"`
	OffersFreeDelivery    bool    `json:"offersFreeDelivery,omitempty"`
	FreeDeliveryThreshold *int64  `json:"freeDeliveryThreshold,omitempty"`
	ClickCollect          bool    `json:"clickCollect,omitempty"`
	IsVerified            bool    `json:"isVerified,omitempty"`
	AverageRating         float64 `json:"averageRating,omitempty"`
	ReviewCount           int     `json:"reviewCount,omitempty"`
}

// Review is a buyer rating attached to a product.
type Review struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	UserID    string `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Suggestion is one search-suggestion entry.
type Suggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

package orders

import "github.com/achrilik/storefront/pkg/enums"

// Order mirrors the marketplace order payload.
type Order struct {
	ID             string               `json:"id"`
	UserID         string               `json:"userId"`
	Status         enums.OrderStatus    `json:"status"`
	Total          int64                `json:"total"`
	DeliveryFee    int64                `json:"deliveryFee"`
	DeliveryMethod enums.DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`

	Wilaya    string   `json:"wilaya,omitempty"`
	Commune   string   `json:"commune,omitempty"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Items []OrderItem `json:"items"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// OrderItem is one purchased line inside an order.
type OrderItem struct {
	ID           string  `json:"id"`
	OrderID      string  `json:"orderId"`
	ProductID    string  `json:"productId"`
	ProductTitle string  `json:"productTitle"`
	ProductImage string  `json:"productImage"`
	Price        int64   `json:"price"`
	Quantity     int     `json:"quantity"`
	Size         *string `json:"size,omitempty"`
	Color        *string `json:"color,omitempty"`
}

// CheckoutInput carries the buyer contact and delivery details for placing an
// order from the current cart.
type CheckoutInput struct {
	DeliveryMethod enums.DeliveryMethod `json:"deliveryMethod" validate:"required"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod" validate:"required"`

	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email" validate:"required,email"`

	Wilaya    string   `json:"wilaya,omitempty"`
	Commune   string   `json:"commune,omitempty"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type createOrderRequest struct {
	CheckoutInput
	Total int64             `json:"total"`
	Items []createOrderItem `json:"items"`
}

type createOrderItem struct {
	ProductID    string  `json:"productId"`
	ProductTitle string  `json:"productTitle"`
	ProductImage string  `json:"productImage"`
	Price        int64   `json:"price"`
	Quantity     int     `json:"quantity"`
	Size         *string `json:"size,omitempty"`
	Color        *string `json:"color,omitempty"`
}

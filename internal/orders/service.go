package orders

import (
	"context"
	"fmt"
	"net/url"

	"github.com/achrilik/storefront/internal/cart"
	"github.com/achrilik/storefront/pkg/enums"
	pkgerrors "github.com/achrilik/storefront/pkg/errors"
	"github.com/achrilik/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type apiClient interface {
	Get(ctx context.Context, path string, query url.Values, dest any) error
	Post(ctx context.Context, path string, body, dest any) error
}

type cartSource interface {
	Items() []cart.LineItem
	TotalPrice() int64
	ClearCart(ctx context.Context)
}

// Service lists past orders and places new ones from the local cart.
type Service struct {
	api  apiClient
	cart cartSource
	logg *logger.Logger
}

// NewService builds the orders service.
func NewService(api apiClient, cartStore cartSource, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if cartStore == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{api: api, cart: cartStore, logg: logg}, nil
}

// List fetches the authenticated user's orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := s.api.Get(ctx, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID fetches one order.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	var order Order
	if err := s.api.Get(ctx, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Checkout submits the current cart as an order. The cart is cleared only
// after the API accepts the order.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (*Order, error) {
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout input")
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery && input.Wilaya == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wilaya is required for delivery orders")
	}

	request := createOrderRequest{
		CheckoutInput: input,
		Total:         s.cart.TotalPrice(),
		Items:         make([]createOrderItem, 0, len(items)),
	}
	for _, item := range items {
		request.Items = append(request.Items, createOrderItem{
			ProductID:    item.ProductID,
			ProductTitle: item.Title,
			ProductImage: item.Image,
			Price:        item.Price,
			Quantity:     item.Quantity,
			Size:         item.Size,
			Color:        item.Color,
		})
	}

	var order Order
	if err := s.api.Post(ctx, "/orders", request, &order); err != nil {
		return nil, err
	}

	s.cart.ClearCart(ctx)
	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "order placed, cart cleared")
	return &order, nil
}

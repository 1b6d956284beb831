package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/achrilik/storefront/internal/cart"
)

type apiGetter interface {
	Get(ctx context.Context, path string, query url.Values, dest any) error
}

// Service is the read-only product/store data source. It also remembers each
// seen store's free-delivery threshold so the cart's delivery calculator can
// resolve thresholds without refetching.
type Service struct {
	api apiGetter

	mu         sync.RWMutex
	thresholds map[string]int64
}

// NewService builds a catalog service on top of the API client.
func NewService(api apiGetter) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	return &Service{
		api:        api,
		thresholds: make(map[string]int64),
	}, nil
}

// List fetches products matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, error) {
	var products []Product
	if err := s.api.Get(ctx, "/products", filters.Query(), &products); err != nil {
		return nil, err
	}
	s.rememberStores(products)
	return products, nil
}

// GetByID fetches a single product with its relations.
func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := s.api.Get(ctx, "/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	s.rememberStores([]Product{product})
	return &product, nil
}

// SearchSuggestions fetches typeahead suggestions for the query.
func (s *Service) SearchSuggestions(ctx context.Context, query string) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("q", query)
	var suggestions []Suggestion
	if err := s.api.Get(ctx, "/search/suggestions", params, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// ThresholdLookup resolves free-delivery thresholds from the stores seen so
// far. Unknown stores report false so the caller's default applies.
func (s *Service) ThresholdLookup() cart.ThresholdLookup {
	return func(storeID string) (int64, bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		threshold, ok := s.thresholds[storeID]
		return threshold, ok
	}
}

// CartSnapshot builds the add-to-cart input for a product and chosen variant.
// The snapshot carries the price and store data as of now; the cart never
// refreshes it.
func CartSnapshot(product Product, variant *ProductVariant, quantity int) cart.AddItemInput {
	input := cart.AddItemInput{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Image:     product.FirstImage(),
		Quantity:  quantity,
		StoreID:   product.StoreID,
	}
	if variant != nil {
		input.Size = variant.Size
		input.Color = variant.Color
	}
	if product.Store != nil {
		input.StoreID = product.Store.ID
		input.StoreName = product.Store.Name
	}
	return input
}

func (s *Service) rememberStores(products []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, product := range products {
		store := product.Store
		if store == nil || store.ID == "" || store.FreeDeliveryThreshold == nil {
			continue
		}
		s.thresholds[store.ID] = *store.FreeDeliveryThreshold
	}
}

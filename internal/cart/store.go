package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/achrilik/storefront/pkg/errors"
	"github.com/achrilik/storefront/pkg/logger"
	"github.com/achrilik/storefront/pkg/metrics"
	"github.com/achrilik/storefront/pkg/storage"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Store is the sole owner of local cart state. Mutations are written through
// to the configured key-value backend; persistence failures are logged and
// never surfaced, so the in-memory state stays the source of truth.
type Store struct {
	mu sync.Mutex

	kv       storage.KV
	key      string
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	now      func() time.Time
	delivery DeliveryDefaults

	items      []LineItem
	totalItems int
	totalPrice int64
}

// StoreParams bundles the dependencies required by NewStore.
type StoreParams struct {
	KV       storage.KV
	CartKey  string
	Logger   *logger.Logger
	Metrics  *metrics.StorefrontMetrics
	Now      func() time.Time
	Delivery DeliveryDefaults
}

// NewStore builds a cart store backed by the provided key-value storage.
func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("key-value storage required")
	}
	if params.CartKey == "" {
		return nil, fmt.Errorf("cart storage key required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Store{
		kv:       params.KV,
		key:      params.CartKey,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      params.Now,
		delivery: params.Delivery.normalized(),
	}, nil
}

// Load reads the persisted cart. An absent key yields an empty cart; an
// unreadable or corrupt payload resets to an empty cart without failing.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logg.Error(ctx, "cart load failed, resetting to empty cart",
				pkgerrors.Wrap(pkgerrors.CodePersistenceRead, err, "read persisted cart"))
			s.metrics.IncPersistenceFailure("read")
		}
		s.resetLocked()
		return
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logg.Error(ctx, "persisted cart is corrupt, resetting to empty cart",
			pkgerrors.Wrap(pkgerrors.CodePersistenceRead, err, "decode persisted cart"))
		s.metrics.IncPersistenceFailure("read")
		s.resetLocked()
		return
	}

	s.items = items
	s.recomputeTotalsLocked()
}

// AddItem merges the candidate into an existing line with the same
// (product, size, color) triple, or appends a new line. The existing line's
// snapshot fields are kept as-is on merge.
func (s *Store) AddItem(ctx context.Context, input AddItemInput) error {
	if err := validate.Struct(input); err != nil {
		return invalidAddItem(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].matchesVariant(input.ProductID, input.Size, input.Color) {
			s.items[i].Quantity += input.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, LineItem{
			ID:        newLineItemID(input, s.now()),
			ProductID: input.ProductID,
			Title:     input.Title,
			Price:     input.Price,
			Image:     input.Image,
			Quantity:  input.Quantity,
			Size:      input.Size,
			Color:     input.Color,
			StoreID:   input.StoreID,
			StoreName: input.StoreName,
		})
	}

	s.recomputeTotalsLocked()
	s.persistLocked(ctx)
	s.metrics.IncCartMutation("add_item")
	return nil
}

// RemoveItem deletes the line with the given id. Unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(ctx, id)
	s.metrics.IncCartMutation("remove_item")
}

// UpdateQuantity sets the quantity of the line with the given id. A quantity
// of zero or less removes the line instead. Unknown ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(ctx, id)
		s.metrics.IncCartMutation("update_quantity")
		return
	}

	changed := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			changed = true
			break
		}
	}
	if changed {
		s.recomputeTotalsLocked()
		s.persistLocked(ctx)
	}
	s.metrics.IncCartMutation("update_quantity")
}

// ClearCart empties the cart and erases the persisted state.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	if err := s.kv.Remove(ctx, s.key); err != nil {
		s.logg.Error(ctx, "clearing persisted cart failed",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "remove persisted cart"))
		s.metrics.IncPersistenceFailure("write")
	}
	s.metrics.IncCartMutation("clear_cart")
}

// Items returns a copy of the cart lines in insertion order. Callers must
// treat the result as read-only snapshots.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// TotalItems returns the sum of quantities across all lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems
}

// TotalPrice returns the sum of price * quantity across all lines.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPrice
}

// DeliveryProgress computes per-store free-delivery progress over the current
// cart contents, using the store's configured delivery defaults.
func (s *Store) DeliveryProgress(lookup ThresholdLookup) map[string]StoreProgress {
	return ComputeDeliveryProgressWith(s.Items(), lookup, s.delivery)
}

func (s *Store) removeLocked(ctx context.Context, id string) {
	kept := s.items[:0]
	removed := false
	for _, item := range s.items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	if removed {
		s.recomputeTotalsLocked()
		s.persistLocked(ctx)
	}
}

func (s *Store) resetLocked() {
	s.items = nil
	s.totalItems = 0
	s.totalPrice = 0
}

func (s *Store) recomputeTotalsLocked() {
	totalItems := 0
	var totalPrice int64
	for _, item := range s.items {
		totalItems += item.Quantity
		totalPrice += item.Subtotal()
	}
	s.totalItems = totalItems
	s.totalPrice = totalPrice
}

// persistLocked writes the current cart through to storage. Failures are
// logged and counted but do not roll back the in-memory mutation.
func (s *Store) persistLocked(ctx context.Context) {
	payload, err := json.Marshal(s.items)
	if err != nil {
		s.logg.Error(ctx, "encoding cart for persistence failed",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "encode cart"))
		s.metrics.IncPersistenceFailure("write")
		return
	}
	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		s.logg.Error(ctx, "persisting cart failed, keeping in-memory state",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "write persisted cart"))
		s.metrics.IncPersistenceFailure("write")
	}
}

func invalidAddItem(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return "is invalid"
}

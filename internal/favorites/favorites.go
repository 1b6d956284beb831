package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/achrilik/storefront/pkg/errors"
	"github.com/achrilik/storefront/pkg/logger"
	"github.com/achrilik/storefront/pkg/storage"
)

// Entry is a liked product snapshot. Like cart lines, it carries the product
// data as of the moment it was liked and is never refreshed.
type Entry struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	StoreID   string `json:"storeId"`
	StoreName string `json:"storeName"`
	AddedAt   int64  `json:"addedAt"`
}

// Store owns the local favorites list, persisted through the same key-value
// backend as the cart. Persistence failures are logged, never surfaced.
type Store struct {
	mu sync.Mutex

	kv   storage.KV
	key  string
	logg *logger.Logger
	now  func() time.Time

	entries []Entry
}

// StoreParams bundles the dependencies required by NewStore.
type StoreParams struct {
	KV     storage.KV
	Key    string
	Logger *logger.Logger
	Now    func() time.Time
}

// NewStore builds a favorites store backed by the provided key-value storage.
func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("key-value storage required")
	}
	if params.Key == "" {
		return nil, fmt.Errorf("favorites storage key required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Store{
		kv:   params.KV,
		key:  params.Key,
		logg: params.Logger,
		now:  params.Now,
	}, nil
}

// Load reads the persisted favorites. An absent key yields an empty list; an
// unreadable or corrupt payload resets to empty without failing.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logg.Error(ctx, "favorites load failed, resetting to empty list",
				pkgerrors.Wrap(pkgerrors.CodePersistenceRead, err, "read persisted favorites"))
		}
		s.entries = nil
		return
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logg.Error(ctx, "persisted favorites are corrupt, resetting to empty list",
			pkgerrors.Wrap(pkgerrors.CodePersistenceRead, err, "decode persisted favorites"))
		s.entries = nil
		return
	}
	s.entries = entries
}

// Toggle likes the product if it is not in the list, or unlikes it if it is.
// It reports whether the product is liked after the call.
func (s *Store) Toggle(ctx context.Context, entry Entry) (bool, error) {
	if entry.ProductID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removeLocked(entry.ProductID) {
		s.persistLocked(ctx)
		return false, nil
	}

	entry.AddedAt = s.now().UnixMilli()
	s.entries = append(s.entries, entry)
	s.persistLocked(ctx)
	return true, nil
}

// Remove drops the product from the favorites. Unknown products are a no-op.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removeLocked(productID) {
		s.persistLocked(ctx)
	}
}

// Contains reports whether the product is currently liked.
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.ProductID == productID {
			return true
		}
	}
	return false
}

// Entries returns a copy of the favorites in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear empties the list and erases the persisted state.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if err := s.kv.Remove(ctx, s.key); err != nil {
		s.logg.Error(ctx, "clearing persisted favorites failed",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "remove persisted favorites"))
	}
}

func (s *Store) removeLocked(productID string) bool {
	kept := s.entries[:0]
	removed := false
	for _, entry := range s.entries {
		if entry.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return removed
}

func (s *Store) persistLocked(ctx context.Context) {
	payload, err := json.Marshal(s.entries)
	if err != nil {
		s.logg.Error(ctx, "encoding favorites for persistence failed",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "encode favorites"))
		return
	}
	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		s.logg.Error(ctx, "persisting favorites failed, keeping in-memory state",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "write persisted favorites"))
	}
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/achrilik/storefront/pkg/storage"
)

// ProfileStore caches the signed-in user's profile in the key-value storage
// so the session user survives restarts without a network round trip.
type ProfileStore struct {
	kv  storage.KV
	key string
}

// NewProfileStore builds a profile store persisting under the given key.
func NewProfileStore(kv storage.KV, key string) (*ProfileStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("key-value storage required")
	}
	if key == "" {
		return nil, fmt.Errorf("profile storage key required")
	}
	return &ProfileStore{kv: kv, key: key}, nil
}

// Load returns the stored profile, or nil when none is stored.
func (p *ProfileStore) Load(ctx context.Context) (*User, error) {
	raw, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode stored profile: %w", err)
	}
	return &user, nil
}

// Save stores the profile.
func (p *ProfileStore) Save(ctx context.Context, user User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return p.kv.Set(ctx, p.key, string(payload))
}

// Clear removes the stored profile.
func (p *ProfileStore) Clear(ctx context.Context) error {
	return p.kv.Remove(ctx, p.key)
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/achrilik/storefront/pkg/storage"
	"github.com/golang-jwt/jwt/v5"
)

// TokenStore keeps the session token in the secure key-value storage. It
// implements the read surface the API client needs for Bearer injection.
type TokenStore struct {
	kv  storage.KV
	key string
}

// NewTokenStore builds a token store persisting under the given key.
func NewTokenStore(kv storage.KV, key string) (*TokenStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("key-value storage required")
	}
	if key == "" {
		return nil, fmt.Errorf("token storage key required")
	}
	return &TokenStore{kv: kv, key: key}, nil
}

// Token returns the stored token, or empty when none is stored.
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	token, err := t.kv.Get(ctx, t.key)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// Save stores the token.
func (t *TokenStore) Save(ctx context.Context, token string) error {
	return t.kv.Set(ctx, t.key, token)
}

// Clear removes the stored token.
func (t *TokenStore) Clear(ctx context.Context) error {
	return t.kv.Remove(ctx, t.key)
}

// tokenExpired inspects the JWT expiry claim without verifying the signature.
// Verification is the server's job; the client only wants to skip calls that
// are guaranteed to fail. Opaque or claim-less tokens are treated as live.
func tokenExpired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}
	return expiry.Before(now)
}

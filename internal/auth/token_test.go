package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/achrilik/storefront/pkg/storage"
	"github.com/golang-jwt/jwt/v5"
)

type memKV struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemKV() *memKV {
	return &memKV{values: map[string]string{}}
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	value, ok := m.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *memKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memKV) Close() error { return nil }

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestTokenStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewTokenStore(newMemKV(), "auth_token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	token, err := store.Token(ctx)
	if err != nil || token != "" {
		t.Fatalf("expected empty token before save, got %q / %v", token, err)
	}

	if err := store.Save(ctx, "tok-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err = store.Token(ctx)
	if err != nil || token != "tok-1" {
		t.Fatalf("expected stored token, got %q / %v", token, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err = store.Token(ctx)
	if err != nil || token != "" {
		t.Fatalf("expected empty token after clear, got %q / %v", token, err)
	}
}

func TestTokenStoreSurfacesReadErrors(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	kv.err = errors.New("device storage locked")
	store, err := NewTokenStore(kv, "auth_token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Token(context.Background()); err == nil {
		t.Fatal("expected read error to surface")
	}
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	if tokenExpired(signedToken(t, now.Add(time.Hour)), now) {
		t.Fatal("live token reported expired")
	}
	if !tokenExpired(signedToken(t, now.Add(-time.Hour)), now) {
		t.Fatal("expired token reported live")
	}
	// Opaque tokens are treated as live; the server decides.
	if tokenExpired("not-a-jwt", now) {
		t.Fatal("opaque token reported expired")
	}
}

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/achrilik/storefront/pkg/errors"
	"github.com/achrilik/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokenStore struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

func (s *stubTokenStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *stubTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cleared = true
	return nil
}

func newTestClient(t *testing.T, baseURL string, tokens TokenStore) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, tokens, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return client
}

func TestClientInjectsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	router := chi.NewRouter()
	router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, &stubTokenStore{token: "tok-123"})

	var dest []any
	require.NoError(t, client.Get(context.Background(), "/products", nil, &dest))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	router := chi.NewRouter()
	router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, &stubTokenStore{})

	var dest []any
	require.NoError(t, client.Get(context.Background(), "/products", nil, &dest))
	assert.Empty(t, gotAuth)
}

func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int
	router := chi.NewRouter()
	router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id":"p1"}]`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	var dest []map[string]string
	require.NoError(t, client.Get(context.Background(), "/products", nil, &dest))
	assert.Equal(t, 3, calls)
	require.Len(t, dest, 1)
	assert.Equal(t, "p1", dest[0]["id"])
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls int
	router := chi.NewRouter()
	router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	err := client.Get(context.Background(), "/products", nil, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	// initial attempt + 2 retries
	assert.Equal(t, 3, calls)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls int
	router := chi.NewRouter()
	router.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"cart is empty"}`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	err := client.Post(context.Background(), "/orders", map[string]any{}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 1, calls)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "cart is empty", typed.Message())
}

func TestClientClearsTokenOnUnauthorized(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	tokens := &stubTokenStore{token: "stale"}
	client := newTestClient(t, server.URL, tokens)

	err := client.Get(context.Background(), "/auth/me", nil, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	assert.True(t, tokens.cleared)
	assert.Empty(t, tokens.token)
}

func TestClientEncodesQueryParameters(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	router := chi.NewRouter()
	router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	query := url.Values{}
	query.Set("search", "hoodie")
	query.Set("freeDelivery", "true")

	var dest []any
	require.NoError(t, client.Get(context.Background(), "/products", query, &dest))
	assert.Equal(t, "hoodie", gotQuery.Get("search"))
	assert.Equal(t, "true", gotQuery.Get("freeDelivery"))
}

func TestEndpointLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "get_products", endpointLabel(http.MethodGet, "/products/p1"))
	assert.Equal(t, "post_orders", endpointLabel(http.MethodPost, "/orders"))
	assert.Equal(t, "get_root", endpointLabel(http.MethodGet, "/"))
}

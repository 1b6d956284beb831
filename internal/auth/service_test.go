package auth

import (
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	pkgerrors "github.com/achrilik/storefront/pkg/errors"
	"github.com/achrilik/storefront/pkg/logger"
)

type stubAPI struct {
	getErr   error
	postErr  error
	session  sessionResponse
	user     *User
	getCalls int
}

func (s *stubAPI) Get(ctx context.Context, path string, query url.Values, dest any) error {
	s.getCalls++
	if s.getErr != nil {
		return s.getErr
	}
	if user, ok := dest.(*User); ok && s.user != nil {
		*user = *s.user
	}
	return nil
}

func (s *stubAPI) Post(ctx context.Context, path string, body, dest any) error {
	if s.postErr != nil {
		return s.postErr
	}
	if session, ok := dest.(*sessionResponse); ok {
		*session = s.session
	}
	return nil
}

func newTestService(t *testing.T, api *stubAPI, kv *memKV) (*Service, *TokenStore) {
	t.Helper()
	tokens, err := NewTokenStore(kv, "auth_token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service, err := NewService(ServiceParams{
		API:    api,
		Tokens: tokens,
		Logger: logger.New(logger.Options{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return service, tokens
}

func newTestServiceWithProfiles(t *testing.T, api *stubAPI, kv *memKV) (*Service, *ProfileStore) {
	t.Helper()
	tokens, err := NewTokenStore(kv, "auth_token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profiles, err := NewProfileStore(kv, "auth_profile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service, err := NewService(ServiceParams{
		API:      api,
		Tokens:   tokens,
		Profiles: profiles,
		Logger:   logger.New(logger.Options{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return service, profiles
}

func TestLoginStoresTokenAndUser(t *testing.T) {
	t.Parallel()

	api := &stubAPI{session: sessionResponse{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  User{ID: "u1", Email: "amine@example.dz", FirstName: "Amine"},
	}}
	service, tokens := newTestService(t, api, newMemKV())
	ctx := context.Background()

	user, err := service.Login(ctx, Credentials{Email: "amine@example.dz", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !service.IsAuthenticated() {
		t.Fatal("expected authenticated state after login")
	}

	stored, err := tokens.Token(ctx)
	if err != nil || stored == "" {
		t.Fatalf("expected token persisted, got %q / %v", stored, err)
	}
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, &stubAPI{}, newMemKV())

	_, err := service.Login(context.Background(), Credentials{Email: "not-an-email", Password: ""})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	t.Parallel()

	api := &stubAPI{session: sessionResponse{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  User{ID: "u1"},
	}}
	service, tokens := newTestService(t, api, newMemKV())
	ctx := context.Background()

	if _, err := service.Login(ctx, Credentials{Email: "amine@example.dz", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service.Logout(ctx)

	if service.IsAuthenticated() {
		t.Fatal("expected unauthenticated state after logout")
	}
	if token, _ := tokens.Token(ctx); token != "" {
		t.Fatalf("expected token cleared, got %q", token)
	}
}

func TestCurrentUserWithoutSession(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, &stubAPI{}, newMemKV())

	_, err := service.CurrentUser(context.Background())
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCurrentUserExpiredTokenSkipsNetwork(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	kv := newMemKV()
	service, tokens := newTestService(t, api, kv)
	ctx := context.Background()

	if err := tokens.Save(ctx, signedToken(t, time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := service.CurrentUser(ctx)
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if api.getCalls != 0 {
		t.Fatalf("expected no network call for expired token, got %d", api.getCalls)
	}
	if token, _ := tokens.Token(ctx); token != "" {
		t.Fatalf("expected expired token cleared, got %q", token)
	}
}

func TestCurrentUserLoadsAndCaches(t *testing.T) {
	t.Parallel()

	api := &stubAPI{user: &User{ID: "u1", Email: "amine@example.dz"}}
	kv := newMemKV()
	service, tokens := newTestService(t, api, kv)
	ctx := context.Background()

	if err := tokens.Save(ctx, signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := service.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := service.CurrentUser(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.getCalls != 1 {
		t.Fatalf("expected cached user to skip second fetch, got %d calls", api.getCalls)
	}
}

func TestCurrentUserRejectedTokenClearsSession(t *testing.T) {
	t.Parallel()

	api := &stubAPI{getErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "token revoked")}
	kv := newMemKV()
	service, tokens := newTestService(t, api, kv)
	ctx := context.Background()

	if err := tokens.Save(ctx, signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := service.CurrentUser(ctx)
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if token, _ := tokens.Token(ctx); token != "" {
		t.Fatalf("expected token cleared after rejection, got %q", token)
	}
}

func TestLoginPersistsProfile(t *testing.T) {
	t.Parallel()

	api := &stubAPI{session: sessionResponse{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  User{ID: "u1", Email: "amine@example.dz"},
	}}
	kv := newMemKV()
	service, profiles := newTestServiceWithProfiles(t, api, kv)
	ctx := context.Background()

	if _, err := service.Login(ctx, Credentials{Email: "amine@example.dz", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := profiles.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.ID != "u1" {
		t.Fatalf("expected profile persisted, got %+v", stored)
	}
}

func TestLoadHydratesStoredProfile(t *testing.T) {
	t.Parallel()

	api := &stubAPI{session: sessionResponse{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  User{ID: "u1", Email: "amine@example.dz"},
	}}
	kv := newMemKV()
	first, _ := newTestServiceWithProfiles(t, api, kv)
	ctx := context.Background()

	if _, err := first.Login(ctx, Credentials{Email: "amine@example.dz", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restarted, _ := newTestServiceWithProfiles(t, api, kv)
	restarted.Load(ctx)

	if !restarted.IsAuthenticated() {
		t.Fatal("expected restarted service to hydrate the stored profile")
	}
	user, err := restarted.CurrentUser(ctx)
	if err != nil || user.ID != "u1" {
		t.Fatalf("unexpected user: %+v / %v", user, err)
	}
	if api.getCalls != 0 {
		t.Fatalf("expected hydrated profile to skip the network, got %d calls", api.getCalls)
	}
}

func TestLoadIgnoresProfileWithoutLiveToken(t *testing.T) {
	t.Parallel()

	api := &stubAPI{session: sessionResponse{
		Token: signedToken(t, time.Now().Add(-time.Hour)),
		User:  User{ID: "u1"},
	}}
	kv := newMemKV()
	first, _ := newTestServiceWithProfiles(t, api, kv)
	ctx := context.Background()

	if _, err := first.Login(ctx, Credentials{Email: "amine@example.dz", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restarted, _ := newTestServiceWithProfiles(t, api, kv)
	restarted.Load(ctx)

	if restarted.IsAuthenticated() {
		t.Fatal("expected expired token to leave the service signed out")
	}
}

func TestLogoutClearsStoredProfile(t *testing.T) {
	t.Parallel()

	api := &stubAPI{session: sessionResponse{
		Token: signedToken(t, time.Now().Add(time.Hour)),
		User:  User{ID: "u1"},
	}}
	kv := newMemKV()
	service, profiles := newTestServiceWithProfiles(t, api, kv)
	ctx := context.Background()

	if _, err := service.Login(ctx, Credentials{Email: "amine@example.dz", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service.Logout(ctx)

	stored, err := profiles.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != nil {
		t.Fatalf("expected profile cleared, got %+v", stored)
	}
}

package auth

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	pkgerrors "github.com/achrilik/storefront/pkg/errors"
	"github.com/achrilik/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type apiClient interface {
	Get(ctx context.Context, path string, query url.Values, dest any) error
	Post(ctx context.Context, path string, body, dest any) error
}

// Service owns the client-side session: the stored token and the current
// user. The cart deliberately does not depend on it; browsing and cart
// mutations work unauthenticated.
type Service struct {
	api      apiClient
	tokens   *TokenStore
	profiles *ProfileStore
	logg     *logger.Logger
	now      func() time.Time

	mu   sync.RWMutex
	user *User
}

// ServiceParams bundles the dependencies required by NewService. Profiles is
// optional; without it the user profile is not cached across restarts.
type ServiceParams struct {
	API      apiClient
	Tokens   *TokenStore
	Profiles *ProfileStore
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewService builds the auth service.
func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("api client required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		api:      params.API,
		tokens:   params.Tokens,
		profiles: params.Profiles,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

// Load hydrates the cached user from the stored profile when a live session
// token exists. Missing or unreadable state leaves the service signed out.
func (s *Service) Load(ctx context.Context) {
	if s.profiles == nil {
		return
	}

	token, err := s.tokens.Token(ctx)
	if err != nil || token == "" || tokenExpired(token, s.now()) {
		return
	}

	user, err := s.profiles.Load(ctx)
	if err != nil {
		s.logg.Error(ctx, "stored profile unreadable, ignoring",
			pkgerrors.Wrap(pkgerrors.CodePersistenceRead, err, "read stored profile"))
		return
	}
	if user == nil {
		return
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// Login exchanges credentials for a session, storing the token on success.
func (s *Service) Login(ctx context.Context, creds Credentials) (*User, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid credentials")
	}

	var session sessionResponse
	if err := s.api.Post(ctx, "/auth/login", creds, &session); err != nil {
		return nil, err
	}
	return s.establishSession(ctx, session)
}

// Register creates an account and stores the returned session token.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registration input")
	}

	var session sessionResponse
	if err := s.api.Post(ctx, "/auth/register", input, &session); err != nil {
		return nil, err
	}
	return s.establishSession(ctx, session)
}

// Logout clears the stored token and the cached user. It always succeeds
// locally even if the token removal fails.
func (s *Service) Logout(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logg.Error(ctx, "clearing stored token failed", err)
	}
	if s.profiles != nil {
		if err := s.profiles.Clear(ctx); err != nil {
			s.logg.Error(ctx, "clearing stored profile failed", err)
		}
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// CurrentUser returns the cached user or loads it from the API using the
// stored token. An absent or expired token yields an unauthorized error
// without a network round trip; a rejected token is cleared.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	s.mu.RLock()
	cached := s.user
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceRead, err, "read stored token")
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no stored session")
	}
	if tokenExpired(token, s.now()) {
		s.logg.Info(ctx, "stored token expired, clearing session")
		s.Logout(ctx)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}

	var user User
	if err := s.api.Get(ctx, "/auth/me", nil, &user); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
			s.Logout(ctx)
		}
		return nil, err
	}
	s.persistProfile(ctx, user)

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

// IsAuthenticated reports whether a user is cached in memory.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Service) establishSession(ctx context.Context, session sessionResponse) (*User, error) {
	if session.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session response missing token")
	}
	if err := s.tokens.Save(ctx, session.Token); err != nil {
		// The session is still usable for this process; it just will not
		// survive a restart.
		s.logg.Error(ctx, "storing session token failed",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "write session token"))
	}

	user := session.User
	s.persistProfile(ctx, user)

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

// persistProfile caches the profile best-effort. Like the token, a failed
// write only costs the next restart a network round trip.
func (s *Service) persistProfile(ctx context.Context, user User) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.Save(ctx, user); err != nil {
		s.logg.Error(ctx, "storing profile failed",
			pkgerrors.Wrap(pkgerrors.CodePersistenceWrite, err, "write stored profile"))
	}
}

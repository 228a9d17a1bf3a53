package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"casino-client/internal/api"
	"casino-client/internal/auth"
	"casino-client/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotAdmin         = errors.New("admin access required")
)

// Navigator is told to send the user back to the login surface after the
// session has been invalidated.
type Navigator interface {
	ToLogin()
}

type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

// Session owns the bearer token. It is the api.Client's token source and the
// handler for its unauthorized event.
type Session struct {
	client *api.Client
	store  TokenStore
	nav    Navigator
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *models.User
}

func New(client *api.Client, store TokenStore, nav Navigator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		client: client,
		store:  store,
		nav:    nav,
		logger: logger,
		now:    time.Now,
	}

	client.SetTokenSource(s)
	client.OnUnauthorized(s.Invalidate)

	return s
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the cached user, or nil when signed out.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Init restores a persisted session. Missing or expired sessions leave the
// context signed out without error.
func (s *Session) Init(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if claims, err := auth.PeekClaims(state.Token); err != nil || claims.Expired(s.now()) {
		s.logger.Info("discarding stored session", zap.Bool("expired", err == nil))
		return s.store.Clear(ctx)
	}

	s.mu.Lock()
	s.token = state.Token
	s.user = state.User
	s.mu.Unlock()

	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

func (s *Session) AdminLogin(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.client.AdminLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

func (s *Session) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

func (s *Session) establish(ctx context.Context, resp *models.AuthResponse) (*models.User, error) {
	user := resp.User

	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = &user
	s.mu.Unlock()

	if err := s.store.Save(ctx, &State{Token: resp.AccessToken, User: &user}); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("session established", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &user, nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.clear()
	return s.store.Clear(ctx)
}

// Invalidate drops the session after the server rejected the token and hands
// control to the navigator.
func (s *Session) Invalidate() {
	s.clear()
	if err := s.store.Clear(context.Background()); err != nil {
		s.logger.Warn("failed to clear stored session", zap.Error(err))
	}
	s.logger.Info("session invalidated")
	if s.nav != nil {
		s.nav.ToLogin()
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// RequireAdmin guards admin-only operations.
func (s *Session) RequireAdmin() error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	if s.User().IsAdmin() {
		return nil
	}
	if claims, err := auth.PeekClaims(s.Token()); err == nil && claims.Role == string(models.RoleAdmin) {
		return nil
	}
	return ErrNotAdmin
}

// Profile re-reads the user from the server and refreshes the cached copy.
func (s *Session) Profile(ctx context.Context) (*models.User, error) {
	user, err := s.client.Profile(ctx)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, user)
	return user, nil
}

func (s *Session) UpdateProfile(ctx context.Context, update *models.ProfileUpdate) (*models.User, error) {
	user, err := s.client.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, user)
	return user, nil
}

func (s *Session) remember(ctx context.Context, user *models.User) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	u := *user
	s.user = &u
	state := &State{Token: s.token, User: &u}
	s.mu.Unlock()

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.Warn("failed to persist profile", zap.Error(err))
	}
}

package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"casino-client/internal/api"
	"casino-client/internal/auth"
	"casino-client/internal/config"
	"casino-client/internal/models"
	"casino-client/internal/sandbox/sandboxtest"
	"casino-client/internal/session"
)

type navCounter struct {
	n atomic.Int32
}

func (c *navCounter) ToLogin() { c.n.Add(1) }

func newSession(t *testing.T, env *sandboxtest.Env, store session.TokenStore) (*session.Session, *navCounter) {
	t.Helper()
	nav := &navCounter{}
	return session.New(env.NewClient(), store, nav, nil), nav
}

func TestLoginPersists(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	s, _ := newSession(t, env, store)
	user, err := s.Register(ctx, &models.RegisterRequest{Email: "persist@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !s.Authenticated() || s.User().ID != user.ID {
		t.Fatal("Expected session to be established")
	}

	restored, _ := newSession(t, env, store)
	if err := restored.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if restored.Token() != s.Token() {
		t.Error("Expected token to be restored from file")
	}

	profile, err := restored.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Email != "persist@example.com" {
		t.Errorf("Expected persisted user, got %s", profile.Email)
	}

	if err := restored.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expected file to be cleared, got %v", err)
	}
}

func TestInitDiscardsExpiredToken(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	store := session.NewMemoryStore()

	expired, err := auth.IssueToken("test-secret", "u1", "old@example.com", "user", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	store.Save(ctx, &session.State{Token: expired})

	s, nav := newSession(t, env, store)
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if s.Authenticated() {
		t.Error("Expired token should not be restored")
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expired session should be cleared, got %v", err)
	}
	if nav.n.Load() != 0 {
		t.Error("Init should not navigate")
	}

	store.Save(ctx, &session.State{Token: "not-a-jwt"})
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if s.Authenticated() {
		t.Error("Garbage token should not be restored")
	}
}

func TestUnauthorizedInvalidates(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	store := session.NewMemoryStore()

	forged, err := auth.IssueToken("other-secret", "u1", "x@example.com", "user", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	store.Save(ctx, &session.State{Token: forged, User: &models.User{ID: "u1"}})

	s, nav := newSession(t, env, store)
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !s.Authenticated() {
		t.Fatal("Unexpired token should be restored")
	}

	_, err = s.Profile(ctx)
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("Expected unauthorized, got %v", err)
	}
	if s.Authenticated() || s.User() != nil {
		t.Error("Expected session to be cleared")
	}
	if nav.n.Load() != 1 {
		t.Errorf("Expected one navigation to login, got %d", nav.n.Load())
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expected store to be cleared, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()

	s, _ := newSession(t, env, session.NewMemoryStore())
	if err := s.RequireAdmin(); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Errorf("Expected not authenticated, got %v", err)
	}

	if _, err := s.Register(ctx, &models.RegisterRequest{Email: "p@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := s.RequireAdmin(); !errors.Is(err, session.ErrNotAdmin) {
		t.Errorf("Expected not admin, got %v", err)
	}

	admin, _ := newSession(t, env, session.NewMemoryStore())
	if _, err := admin.AdminLogin(ctx, sandboxtest.AdminEmail, sandboxtest.AdminPassword); err != nil {
		t.Fatalf("AdminLogin failed: %v", err)
	}
	if err := admin.RequireAdmin(); err != nil {
		t.Errorf("Expected admin, got %v", err)
	}
}

func TestUpdateProfileRefreshesCache(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()

	s, _ := newSession(t, env, session.NewMemoryStore())
	if _, err := s.Register(ctx, &models.RegisterRequest{Email: "name@example.com", Password: "secret123", FullName: "Old"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := s.UpdateProfile(ctx, &models.ProfileUpdate{FullName: "New Name"}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if s.User().FullName != "New Name" {
		t.Errorf("Expected cached name to update, got %s", s.User().FullName)
	}
}

func TestFileStoreMissing(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Errorf("Clearing a missing file should succeed, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		RedisURL:       "localhost:6379",
		SessionProfile: "session-test",
		SessionTTL:     time.Minute,
	}

	store, err := session.NewRedisStore(ctx, cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer store.Close()
	defer store.Clear(ctx)

	if err := store.Save(ctx, &session.State{Token: "tok", User: &models.User{ID: "u1"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Token != "tok" || state.User.ID != "u1" {
		t.Errorf("Unexpected state: %+v", state)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expected ErrNoSession after clear, got %v", err)
	}
}

// Package sandboxtest runs the sandbox platform behind httptest for client tests.
package sandboxtest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"casino-client/internal/api"
	"casino-client/internal/config"
	"casino-client/internal/fairness"
	"casino-client/internal/models"
	"casino-client/internal/sandbox"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
)

type Env struct {
	Server *sandbox.Server
	HTTP   *httptest.Server
	URL    string

	mu     sync.Mutex
	counts map[string]int
	faults map[string]int
	hold   map[string]chan struct{}
}

func Start(t testing.TB, opts ...sandbox.Option) *Env {
	t.Helper()

	cfg := &config.SandboxConfig{
		Env:                       "test",
		JWTSecret:                 "test-secret",
		TokenTTL:                  time.Hour,
		AdminEmail:                AdminEmail,
		AdminPassword:             AdminPassword,
		Currency:                  "PKR",
		AutoApproveKYC:            true,
		DepositWageringMultiplier: 1,
	}

	srv, err := sandbox.New(cfg, nil, append([]sandbox.Option{sandbox.WithPasswordCost(bcrypt.MinCost)}, opts...)...)
	if err != nil {
		t.Fatalf("Failed to start sandbox: %v", err)
	}

	e := &Env{
		Server: srv,
		counts: make(map[string]int),
		faults: make(map[string]int),
		hold:   make(map[string]chan struct{}),
	}

	router := srv.Router()
	e.HTTP = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		e.mu.Lock()
		e.counts[key]++
		status, faulty := e.faults[key]
		gate := e.hold[key]
		e.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if faulty {
			http.Error(w, "injected failure", status)
			return
		}
		router.ServeHTTP(w, r)
	}))
	e.URL = e.HTTP.URL

	t.Cleanup(func() {
		e.ReleaseAll()
		e.HTTP.Close()
		srv.Close()
	})

	return e
}

// Count reports how many requests reached method + path (path includes /api).
func (e *Env) Count(method, path string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[method+" "+path]
}

func (e *Env) ResetCounts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counts = make(map[string]int)
}

// Total is the number of requests seen since the last reset.
func (e *Env) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.counts {
		n += c
	}
	return n
}

// Fail makes method + path answer with status until Heal is called.
func (e *Env) Fail(method, path string, status int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.faults[method+" "+path] = status
}

func (e *Env) Heal(method, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.faults, method+" "+path)
}

// Hold blocks method + path until Release is called.
func (e *Env) Hold(method, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hold[method+" "+path] = make(chan struct{})
}

func (e *Env) Release(method, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := method + " " + path
	if gate, ok := e.hold[key]; ok {
		close(gate)
		delete(e.hold, key)
	}
}

func (e *Env) ReleaseAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, gate := range e.hold {
		close(gate)
		delete(e.hold, key)
	}
}

func (e *Env) NewClient() *api.Client {
	return api.New(e.URL, e.HTTP.Client(), nil)
}

// Authenticate attaches token to client as its only token source.
func Authenticate(client *api.Client, token string) {
	client.SetTokenSource(api.TokenFunc(func() string { return token }))
}

func (e *Env) Admin(t testing.TB) *api.Client {
	t.Helper()

	client := e.NewClient()
	resp, err := client.AdminLogin(context.Background(), AdminEmail, AdminPassword)
	if err != nil {
		t.Fatalf("Admin login failed: %v", err)
	}
	Authenticate(client, resp.AccessToken)
	return client
}

// Player registers a fresh player and returns an authenticated client.
func (e *Env) Player(t testing.TB, email string) (*api.Client, *models.User) {
	t.Helper()

	client := e.NewClient()
	resp, err := client.Register(context.Background(), &models.RegisterRequest{
		Email:    email,
		Phone:    "03001234567",
		Password: "secret123",
		FullName: "Test Player",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	Authenticate(client, resp.AccessToken)
	return client, &resp.User
}

// Fund credits a player through a real deposit and admin approval.
func (e *Env) Fund(t testing.TB, player *api.Client, amount float64) {
	t.Helper()

	ctx := context.Background()
	resp, err := player.CreateDeposit(ctx, &models.PaymentRequest{Amount: amount, JazzCashNumber: "03001234567"}, "")
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := e.Admin(t).Approve(ctx, models.KindDeposit, resp.DepositID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
}

// WinningSeeds picks server seeds whose round crashes at or above target.
func WinningSeeds(target, houseEdge float64) sandbox.SeedFunc {
	return searchSeeds(func(cp float64) bool { return cp >= target }, houseEdge)
}

// LosingSeeds picks server seeds whose round crashes below target.
func LosingSeeds(target, houseEdge float64) sandbox.SeedFunc {
	return searchSeeds(func(cp float64) bool { return cp < target }, houseEdge)
}

func searchSeeds(accept func(float64) bool, houseEdge float64) sandbox.SeedFunc {
	return func(clientSeed string, nonce int64) (string, error) {
		for i := 0; i < 100000; i++ {
			seed := fmt.Sprintf("sandbox-seed-%d", i)
			if accept(fairness.CrashPoint(seed, clientSeed, nonce, houseEdge)) {
				return seed, nil
			}
		}
		return "", fmt.Errorf("no seed found for %s:%d", clientSeed, nonce)
	}
}

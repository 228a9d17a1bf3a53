package crash_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"casino-client/internal/api"
	"casino-client/internal/crash"
	"casino-client/internal/fairness"
	"casino-client/internal/models"
	"casino-client/internal/notify"
	"casino-client/internal/sandbox"
	"casino-client/internal/sandbox/sandboxtest"
)

const houseEdge = 0.03

// stubPlatform answers the three endpoints a bet touches and records the bet body.
type stubPlatform struct {
	mu       sync.Mutex
	body     map[string]any
	tamper   bool
	edge     float64
	bets     atomic.Int32
	balances atomic.Int32
	settings atomic.Int32
}

func (p *stubPlatform) setEdge(edge float64) {
	p.mu.Lock()
	p.edge = edge
	p.mu.Unlock()
}

func (p *stubPlatform) houseEdge() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.edge
}

func (p *stubPlatform) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/games/settings", func(w http.ResponseWriter, r *http.Request) {
		p.settings.Add(1)
		json.NewEncoder(w).Encode(models.GameSettings{Currency: "PKR", CrashHouseEdge: p.houseEdge(), CrashEnabled: true})
	})

	mux.HandleFunc("/api/user/wallet/balance", func(w http.ResponseWriter, r *http.Request) {
		p.balances.Add(1)
		json.NewEncoder(w).Encode(models.Balance{Currency: "PKR", WalletBalance: 1100, AvailableBalance: 1100, TotalBalance: 1100})
	})

	mux.HandleFunc("/api/games/crash/bet", func(w http.ResponseWriter, r *http.Request) {
		p.bets.Add(1)
		if r.Header.Get(api.HeaderIdempotencyKey) == "" {
			t.Error("Bet request should carry an idempotency key")
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode bet body: %v", err)
		}
		p.mu.Lock()
		p.body = body
		tamper := p.tamper
		p.mu.Unlock()

		clientSeed, _ := body["client_seed"].(string)
		nonce := int64(body["nonce"].(float64))
		amount := body["amount"].(float64)
		target := body["cashout_multiplier"].(float64)

		edge := p.houseEdge()
		seed, err := sandboxtest.WinningSeeds(target, edge)(clientSeed, nonce)
		if err != nil {
			t.Errorf("No winning seed: %v", err)
		}
		crashPoint := fairness.CrashPoint(seed, clientSeed, nonce, edge)
		if tamper {
			crashPoint += 1
		}

		json.NewEncoder(w).Encode(models.CrashSettlement{
			BetID:             "bet-1",
			Status:            models.BetWon,
			Amount:            amount,
			CashoutMultiplier: target,
			CrashPoint:        crashPoint,
			Payout:            models.RoundMoney(amount * target),
			Currency:          "PKR",
			ProvablyFair: models.ProvablyFair{
				ServerSeedHash: fairness.HashServerSeed(seed),
				ServerSeed:     seed,
				ClientSeed:     clientSeed,
				Nonce:          nonce,
			},
			Balances: models.RoundBalances{AvailableBalance: 1100},
		})
	})

	return mux
}

func startStub(t *testing.T) (*stubPlatform, *api.Client) {
	t.Helper()
	p := &stubPlatform{edge: houseEdge}
	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)
	return p, api.New(srv.URL, srv.Client(), nil)
}

func TestSetTargetClamps(t *testing.T) {
	game := crash.New(api.New("http://unused", nil, nil), nil, nil)

	cases := []struct {
		in, want int
		mult     float64
	}{
		{50, 101, 1.01},
		{101, 101, 1.01},
		{150, 150, 1.5},
		{333, 333, 3.33},
		{500, 500, 5},
		{900, 500, 5},
	}
	for _, tc := range cases {
		if got := game.SetTarget(tc.in); got != tc.want {
			t.Errorf("SetTarget(%d) = %d, want %d", tc.in, got, tc.want)
		}
		if got := game.TargetMultiplier(); got != tc.mult {
			t.Errorf("TargetMultiplier after %d = %v, want %v", tc.in, got, tc.mult)
		}
	}
}

func TestInvalidAmountNeverDispatches(t *testing.T) {
	p, client := startStub(t)
	rec := &notify.Recorder{}
	game := crash.New(client, rec, nil)

	for _, amount := range []string{"0", "-200", "", "abc", "0.00"} {
		if _, err := game.PlaceBet(context.Background(), amount, 150); !errors.Is(err, crash.ErrInvalidAmount) {
			t.Errorf("PlaceBet(%q) = %v, want ErrInvalidAmount", amount, err)
		}
		if rec.LastError() != "Enter a valid bet amount" {
			t.Errorf("Expected validation message, got %q", rec.LastError())
		}
	}

	if p.bets.Load() != 0 {
		t.Errorf("Expected no bet requests, got %d", p.bets.Load())
	}
	if game.LastRound() != nil {
		t.Error("No round should be recorded")
	}
}

func TestPlaceBetBodyAndSettlement(t *testing.T) {
	p, client := startStub(t)
	rec := &notify.Recorder{}
	game := crash.New(client, rec, nil)

	round, err := game.PlaceBet(context.Background(), "200", 150)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	p.mu.Lock()
	body := p.body
	p.mu.Unlock()
	if body["amount"] != float64(200) || body["cashout_multiplier"] != 1.5 {
		t.Errorf("Unexpected bet body: %v", body)
	}
	if body["nonce"] != float64(1) {
		t.Errorf("Expected first nonce to be 1, got %v", body["nonce"])
	}

	if round.Settlement.Payout != 300 || !round.Settlement.Won() {
		t.Errorf("Expected a win paying 300, got %+v", round.Settlement)
	}
	if !round.Verified {
		t.Errorf("Round should verify, mismatch: %s", round.Mismatch)
	}
	if last := game.LastRound(); last == nil || last.Settlement.Payout != 300 {
		t.Errorf("Last round should hold the settlement, got %+v", last)
	}
	if rec.LastSuccess() != "You won PKR 300" {
		t.Errorf("Unexpected notification %q", rec.LastSuccess())
	}
	if p.balances.Load() != 1 {
		t.Errorf("Expected one balance refresh, got %d", p.balances.Load())
	}
	if b := game.Balance(); b == nil || b.AvailableBalance != 1100 {
		t.Errorf("Expected refreshed balance, got %+v", b)
	}
}

func TestTamperedRoundFlagged(t *testing.T) {
	p, client := startStub(t)
	p.tamper = true
	game := crash.New(client, nil, nil)

	round, err := game.PlaceBet(context.Background(), "100", 200)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if round.Verified {
		t.Error("Tampered crash point should not verify")
	}
	if !strings.HasPrefix(round.Mismatch, fairness.ErrCrashPointMismatch.Error()) {
		t.Errorf("Unexpected mismatch reason %q", round.Mismatch)
	}
	if game.LastRound() == nil {
		t.Error("Verification must not block the flow")
	}
}

func TestEdgeChangeReverified(t *testing.T) {
	p, client := startStub(t)
	game := crash.New(client, nil, nil)
	ctx := context.Background()

	round, err := game.PlaceBet(ctx, "100", 200)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if !round.Verified {
		t.Fatalf("First round should verify, got %q", round.Mismatch)
	}

	p.setEdge(0.05)
	for i := 0; i < 5; i++ {
		round, err := game.PlaceBet(ctx, "100", 200)
		if err != nil {
			t.Fatalf("PlaceBet failed: %v", err)
		}
		if !round.Verified {
			t.Errorf("Round %d after the edge change should verify, got %q", i+2, round.Mismatch)
		}
	}

	s, err := game.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if s.CrashHouseEdge != 0.05 {
		t.Errorf("Expected cached edge 0.05, got %v", s.CrashHouseEdge)
	}
	if n := p.settings.Load(); n > 3 {
		t.Errorf("Expected settings to be reloaded only on the first mismatch, got %d reads", n)
	}
}

func TestSandboxRounds(t *testing.T) {
	env := sandboxtest.Start(t, sandbox.WithServerSeeds(sandboxtest.LosingSeeds(1.5, houseEdge)))
	player, _ := env.Player(t, "loser@example.com")
	env.Fund(t, player, 1000)

	rec := &notify.Recorder{}
	game := crash.New(player, rec, nil)
	ctx := context.Background()

	first, err := game.PlaceBet(ctx, "100", 150)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if first.Settlement.Won() || rec.LastSuccess() != "You lost this round" {
		t.Errorf("Expected a loss, got %+v (%q)", first.Settlement, rec.LastSuccess())
	}
	if !first.Verified {
		t.Errorf("Sandbox round should verify: %s", first.Mismatch)
	}
	if game.Balance().AvailableBalance != 900 {
		t.Errorf("Expected balance 900, got %v", game.Balance().AvailableBalance)
	}

	second, err := game.PlaceBet(ctx, "100", 150)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if second.Settlement.ProvablyFair.Nonce != 2 {
		t.Errorf("Expected nonce 2, got %d", second.Settlement.ProvablyFair.Nonce)
	}
	if second.Settlement.ProvablyFair.ClientSeed == first.Settlement.ProvablyFair.ClientSeed {
		t.Error("Client seeds should be unique per bet")
	}

	server, err := game.Verify(ctx, second.Settlement.ProvablyFair.ServerSeed, second.Settlement.ProvablyFair.ClientSeed, 2)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if server.CrashPoint != second.Settlement.CrashPoint {
		t.Errorf("Server verification disagrees: %v vs %v", server.CrashPoint, second.Settlement.CrashPoint)
	}

	info, err := game.Fairness(ctx)
	if err != nil {
		t.Fatalf("Fairness failed: %v", err)
	}
	if info.HouseEdge != houseEdge {
		t.Errorf("Expected edge %v, got %v", houseEdge, info.HouseEdge)
	}
}

func TestFailedBetKeepsLastRound(t *testing.T) {
	env := sandboxtest.Start(t, sandbox.WithServerSeeds(sandboxtest.WinningSeeds(2, houseEdge)))
	player, _ := env.Player(t, "keep@example.com")
	env.Fund(t, player, 1000)

	rec := &notify.Recorder{}
	game := crash.New(player, rec, nil)
	ctx := context.Background()

	first, err := game.PlaceBet(ctx, "100", 200)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	if _, err := game.PlaceBet(ctx, "999999", 200); err == nil {
		t.Fatal("Expected the platform to reject an oversized bet")
	}
	if rec.LastError() != "Maximum bet is PKR 50000" {
		t.Errorf("Expected server detail, got %q", rec.LastError())
	}

	env.Fail(http.MethodPost, "/api/games/crash/bet", http.StatusServiceUnavailable)
	if _, err := game.PlaceBet(ctx, "100", 200); err == nil {
		t.Fatal("Expected injected failure")
	}
	if rec.LastError() != "Failed to place bet" {
		t.Errorf("Expected generic fallback, got %q", rec.LastError())
	}

	if last := game.LastRound(); last == nil || last.Settlement.BetID != first.Settlement.BetID {
		t.Errorf("Last round should be unchanged, got %+v", last)
	}
}

package sandbox_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"casino-client/internal/api"
	"casino-client/internal/fairness"
	"casino-client/internal/models"
	"casino-client/internal/sandbox"
	"casino-client/internal/sandbox/sandboxtest"
)

func TestAuthFlow(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()

	player, user := env.Player(t, "player@example.com")
	if user.Role != models.RoleUser {
		t.Errorf("Expected role user, got %s", user.Role)
	}

	client := env.NewClient()
	if _, err := client.Register(ctx, &models.RegisterRequest{Email: "player@example.com", Password: "secret123"}); api.Message(err, "") != "Email already registered" {
		t.Errorf("Expected duplicate email rejection, got %v", err)
	}

	_, err := client.Login(ctx, "player@example.com", "wrong")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("Expected 401 for wrong password, got %v", err)
	}

	_, err = client.AdminLogin(ctx, "player@example.com", "secret123")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Errorf("Expected 403 for player admin login, got %v", err)
	}

	if _, err := player.DashboardStats(ctx); api.Message(err, "") != "Admin access required" {
		t.Errorf("Expected admin guard, got %v", err)
	}

	if _, err := env.NewClient().Balance(ctx); !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("Expected 401 without token, got %v", err)
	}
}

func TestDepositLifecycle(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	player, _ := env.Player(t, "dep@example.com")
	admin := env.Admin(t)

	if _, err := player.CreateDeposit(ctx, &models.PaymentRequest{Amount: 100, JazzCashNumber: "0300"}, ""); api.Message(err, "") != "Minimum deposit amount is PKR 300" {
		t.Errorf("Expected minimum deposit rejection, got %v", err)
	}

	resp, err := player.CreateDeposit(ctx, &models.PaymentRequest{Amount: 1000, JazzCashNumber: "03001234567"}, "")
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}
	if resp.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", resp.Status)
	}

	pending, err := admin.PendingDeposits(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("Expected one pending deposit, got %d (%v)", len(pending), err)
	}

	if err := admin.Reject(ctx, models.KindDeposit, resp.DepositID, ""); api.Message(err, "") != "Rejection reason is required" {
		t.Errorf("Expected reason required, got %v", err)
	}

	if err := admin.Approve(ctx, models.KindDeposit, resp.DepositID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if err := admin.Reject(ctx, models.KindDeposit, resp.DepositID, "late"); err == nil {
		t.Error("Terminal deposit should not change again")
	}

	balance, err := player.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance.WalletBalance != 1000 {
		t.Errorf("Expected wallet 1000, got %v", balance.WalletBalance)
	}

	status, err := player.WageringStatus(ctx)
	if err != nil {
		t.Fatalf("WageringStatus failed: %v", err)
	}
	if !status.HasActiveWagering || status.TotalTarget != 1000 {
		t.Errorf("Expected active wagering of 1000, got %+v", status)
	}

	stats, err := admin.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats failed: %v", err)
	}
	if stats.Today.Deposits != 1000 || stats.PendingApprovals.Deposits != 0 {
		t.Errorf("Unexpected dashboard: %+v", stats)
	}
}

func TestWithdrawalLocksFunds(t *testing.T) {
	env := sandboxtest.Start(t, sandbox.WithoutDepositWagering())
	ctx := context.Background()
	player, _ := env.Player(t, "wd@example.com")
	env.Fund(t, player, 2000)
	admin := env.Admin(t)

	resp, err := player.CreateWithdrawal(ctx, &models.PaymentRequest{Amount: 500, JazzCashNumber: "03001234567"}, "")
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	balance, _ := player.Balance(ctx)
	if balance.WalletBalance != 1500 || balance.LockedBalance != 500 {
		t.Errorf("Expected 1500 available / 500 locked, got %+v", balance)
	}

	if err := admin.Reject(ctx, models.KindWithdrawal, resp.WithdrawalID, "wrong number"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	balance, _ = player.Balance(ctx)
	if balance.WalletBalance != 2000 || balance.LockedBalance != 0 {
		t.Errorf("Expected funds released, got %+v", balance)
	}

	list, err := player.Withdrawals(ctx, 20)
	if err != nil || len(list) != 1 {
		t.Fatalf("Expected one withdrawal, got %d (%v)", len(list), err)
	}
	if list[0].Status != models.StatusRejected || list[0].RejectionReason != "wrong number" {
		t.Errorf("Unexpected withdrawal: %+v", list[0])
	}
}

func TestWithdrawalBlockedByWagering(t *testing.T) {
	env := sandboxtest.Start(t)
	player, _ := env.Player(t, "wager@example.com")
	env.Fund(t, player, 1000)

	_, err := player.CreateWithdrawal(context.Background(), &models.PaymentRequest{Amount: 500, JazzCashNumber: "0300"}, "")
	if api.Message(err, "") != "Complete wagering requirements before withdrawal" {
		t.Errorf("Expected wagering rejection, got %v", err)
	}
}

func TestCrashBetSettlement(t *testing.T) {
	env := sandboxtest.Start(t, sandbox.WithServerSeeds(sandboxtest.WinningSeeds(1.5, 0.03)))
	ctx := context.Background()
	player, _ := env.Player(t, "crash@example.com")
	env.Fund(t, player, 1000)

	req := &models.CrashBetRequest{Amount: 200, CashoutMultiplier: 1.5, ClientSeed: "u-1-abcdef12", Nonce: 1}
	settlement, err := player.PlaceCrashBet(ctx, req, "")
	if err != nil {
		t.Fatalf("PlaceCrashBet failed: %v", err)
	}
	if !settlement.Won() || settlement.Payout != 300 {
		t.Errorf("Expected win paying 300, got %+v", settlement)
	}
	if settlement.Balances.AvailableBalance != 1100 {
		t.Errorf("Expected available 1100, got %v", settlement.Balances.AvailableBalance)
	}
	if err := fairness.Verify(settlement.ProvablyFair, settlement.CrashPoint, 0.03); err != nil {
		t.Errorf("Round should verify: %v", err)
	}

	verify, err := player.CrashVerify(ctx, settlement.ProvablyFair.ServerSeed, req.ClientSeed, req.Nonce)
	if err != nil {
		t.Fatalf("CrashVerify failed: %v", err)
	}
	if verify.CrashPoint != settlement.CrashPoint {
		t.Errorf("Server verify mismatch: %v vs %v", verify.CrashPoint, settlement.CrashPoint)
	}

	if _, err := player.PlaceCrashBet(ctx, &models.CrashBetRequest{Amount: 200, CashoutMultiplier: 1.0}, ""); api.Message(err, "") != "Invalid cashout multiplier" {
		t.Errorf("Expected multiplier bound rejection, got %v", err)
	}
	if _, err := player.PlaceCrashBet(ctx, &models.CrashBetRequest{Amount: 10, CashoutMultiplier: 2}, ""); api.Message(err, "") != "Minimum bet is PKR 50" {
		t.Errorf("Expected min bet rejection, got %v", err)
	}

	bets, err := player.Bets(ctx, 10)
	if err != nil || len(bets) != 1 {
		t.Fatalf("Expected one bet, got %d (%v)", len(bets), err)
	}
}

func TestIdempotentReplay(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	player, _ := env.Player(t, "idem@example.com")

	req := &models.PaymentRequest{Amount: 500, JazzCashNumber: "03001234567"}
	first, err := player.CreateDeposit(ctx, req, "same-key")
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}
	second, err := player.CreateDeposit(ctx, req, "same-key")
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if first.DepositID != second.DepositID {
		t.Errorf("Replay should return the original deposit, got %s and %s", first.DepositID, second.DepositID)
	}

	deposits, _ := player.Deposits(ctx, 20)
	if len(deposits) != 1 {
		t.Errorf("Expected a single deposit, got %d", len(deposits))
	}
}

func TestFreezeBlocksBets(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	player, user := env.Player(t, "frozen@example.com")
	env.Fund(t, player, 1000)
	admin := env.Admin(t)

	if err := admin.FreezeUser(ctx, user.ID, ""); err != nil {
		t.Fatalf("FreezeUser failed: %v", err)
	}
	profile, _ := player.Profile(ctx)
	if !profile.IsFrozen || profile.FrozenReason != "Frozen by admin" {
		t.Errorf("Expected default freeze reason, got %+v", profile)
	}

	if _, err := player.PlaceCrashBet(ctx, &models.CrashBetRequest{Amount: 100, CashoutMultiplier: 2}, ""); api.Message(err, "") != "Account is frozen. Contact support." {
		t.Errorf("Expected frozen rejection, got %v", err)
	}

	if err := admin.UnfreezeUser(ctx, user.ID); err != nil {
		t.Fatalf("UnfreezeUser failed: %v", err)
	}
	if err := admin.SuspendUser(ctx, user.ID); err != nil {
		t.Fatalf("SuspendUser failed: %v", err)
	}
	if _, err := player.Balance(ctx); api.Message(err, "") != "Account is suspended" {
		t.Errorf("Expected suspended rejection, got %v", err)
	}
}

func TestSettingsValidation(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	admin := env.Admin(t)

	settings, err := admin.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if *settings != models.DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", settings)
	}

	bad := *settings
	bad.DepositMin = bad.DepositMax + 1
	if _, err := admin.UpdateSettings(ctx, &bad); err == nil {
		t.Error("Expected inverted deposit limits to be rejected")
	}

	next := *settings
	next.CrashHouseEdge = 0.05
	saved, err := admin.UpdateSettings(ctx, &next)
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if saved.CrashHouseEdge != 0.05 {
		t.Errorf("Expected edge 0.05, got %v", saved.CrashHouseEdge)
	}

	public, err := env.NewClient().GameSettings(ctx)
	if err != nil {
		t.Fatalf("GameSettings failed: %v", err)
	}
	if public.CrashHouseEdge != 0.05 {
		t.Errorf("Public settings should follow admin settings, got %v", public.CrashHouseEdge)
	}
}

func TestPruneIdempotencyKeys(t *testing.T) {
	env := sandboxtest.Start(t)
	ctx := context.Background()
	player, _ := env.Player(t, "prune@example.com")

	req := &models.PaymentRequest{Amount: 500, JazzCashNumber: "03001234567"}
	first, err := player.CreateDeposit(ctx, req, "key-1")
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	if n := env.Server.PruneIdempotencyKeys(time.Hour); n != 0 {
		t.Errorf("Fresh keys should survive, pruned %d", n)
	}
	if n := env.Server.PruneIdempotencyKeys(0); n != 1 {
		t.Errorf("Expected one pruned key, got %d", n)
	}

	second, err := player.CreateDeposit(ctx, req, "key-1")
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}
	if second.DepositID == first.DepositID {
		t.Error("A pruned key should no longer replay")
	}
}

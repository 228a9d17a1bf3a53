// Package crash places single-round crash bets and checks every settled round
// against its revealed seeds.
package crash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"casino-client/internal/api"
	"casino-client/internal/fairness"
	"casino-client/internal/models"
	"casino-client/internal/notify"
	"casino-client/internal/view"
)

// Target multipliers are chosen in hundredths on a 1.01x..5.00x slider.
const (
	MinTarget     = 101
	MaxTarget     = 500
	DefaultTarget = 200
)

const (
	msgInvalidAmount = "Enter a valid bet amount"
	msgBetFailed     = "Failed to place bet"
	msgLost          = "You lost this round"
)

var (
	ErrInvalidAmount = errors.New("enter a valid bet amount")
	ErrBusy          = errors.New("bet already in progress")
)

// Round is a settled bet plus the outcome of checking its proof locally.
type Round struct {
	Settlement models.CrashSettlement
	Verified   bool
	// Mismatch explains why Verified is false.
	Mismatch string
}

type Game struct {
	client   *api.Client
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time

	view view.Generation

	mu       sync.Mutex
	target   int
	nonce    int64
	busy     bool
	last     *Round
	balance  *models.Balance
	settings *models.GameSettings
}

func New(client *api.Client, notifier notify.Notifier, logger *zap.Logger) *Game {
	if notifier == nil {
		notifier = &notify.Recorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Game{
		client:   client,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		target:   DefaultTarget,
	}
}

// SetTarget clamps hundredths to the slider range and returns the stored value.
func (g *Game) SetTarget(hundredths int) int {
	switch {
	case hundredths < MinTarget:
		hundredths = MinTarget
	case hundredths > MaxTarget:
		hundredths = MaxTarget
	}

	g.mu.Lock()
	g.target = hundredths
	g.mu.Unlock()
	return hundredths
}

func (g *Game) Target() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.target
}

func (g *Game) TargetMultiplier() float64 {
	return Multiplier(g.Target())
}

// Multiplier converts slider hundredths to a cashout multiplier (150 -> 1.5).
func Multiplier(hundredths int) float64 {
	return decimal.New(int64(hundredths), -2).InexactFloat64()
}

// PlaceBet submits one round at the given target and returns its settlement.
// The previous round stays visible when the bet fails.
func (g *Game) PlaceBet(ctx context.Context, amount string, hundredths int) (*Round, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !value.IsPositive() {
		g.notifier.Error(msgInvalidAmount)
		return nil, ErrInvalidAmount
	}

	target := g.SetTarget(hundredths)

	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return nil, ErrBusy
	}
	g.busy = true
	g.nonce++
	req := &models.CrashBetRequest{
		Amount:            value.InexactFloat64(),
		CashoutMultiplier: Multiplier(target),
		ClientSeed:        models.GenerateClientSeed(g.now()),
		Nonce:             g.nonce,
	}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}()

	tag := g.view.Current()
	settlement, err := g.client.PlaceCrashBet(ctx, req, models.NewIdempotencyKey())
	if err != nil {
		g.notifier.Error(api.Message(err, msgBetFailed))
		g.logger.Info("crash bet failed", zap.Int64("nonce", req.Nonce), zap.Error(err))
		return nil, fmt.Errorf("failed to place bet: %w", err)
	}

	round := &Round{Settlement: *settlement}
	g.verify(ctx, round)

	if !g.view.Valid(tag) {
		g.logger.Debug("discarding stale settlement", zap.String("bet_id", settlement.BetID))
		return round, nil
	}

	g.mu.Lock()
	g.last = round
	g.mu.Unlock()

	if settlement.Won() {
		g.notifier.Success(fmt.Sprintf("You won %s", models.FormatCurrency(settlement.Currency, settlement.Payout)))
	} else {
		g.notifier.Success(msgLost)
	}

	g.logger.Info("crash round settled",
		zap.String("bet_id", settlement.BetID),
		zap.String("status", string(settlement.Status)),
		zap.Float64("crash_point", settlement.CrashPoint),
		zap.Bool("verified", round.Verified))

	if err := g.RefreshBalance(ctx); err != nil {
		g.logger.Warn("failed to refresh balance after bet", zap.Error(err))
	}

	return round, nil
}

// verify recomputes the crash point from the revealed seeds with the
// platform's current house edge. A mismatch against the cached edge is
// checked once more against freshly loaded settings, since an admin may have
// changed the edge after the cache was filled.
func (g *Game) verify(ctx context.Context, round *Round) {
	settings, err := g.Settings(ctx)
	if err != nil {
		round.Mismatch = "house edge unavailable"
		return
	}

	s := &round.Settlement
	err = fairness.Verify(s.ProvablyFair, s.CrashPoint, settings.CrashHouseEdge)
	if errors.Is(err, fairness.ErrCrashPointMismatch) {
		fresh, rerr := g.ReloadSettings(ctx)
		if rerr != nil {
			g.logger.Debug("failed to reload game settings", zap.Error(rerr))
		} else if fresh.CrashHouseEdge != settings.CrashHouseEdge {
			err = fairness.Verify(s.ProvablyFair, s.CrashPoint, fresh.CrashHouseEdge)
		}
	}
	if err != nil {
		round.Mismatch = err.Error()
		g.logger.Warn("round failed verification", zap.String("bet_id", s.BetID), zap.Error(err))
		return
	}
	round.Verified = true
}

// Settings returns the public game settings, fetching them on first use.
func (g *Game) Settings(ctx context.Context) (*models.GameSettings, error) {
	g.mu.Lock()
	cached := g.settings
	g.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return g.ReloadSettings(ctx)
}

func (g *Game) ReloadSettings(ctx context.Context) (*models.GameSettings, error) {
	settings, err := g.client.GameSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game settings: %w", err)
	}

	g.mu.Lock()
	g.settings = settings
	g.mu.Unlock()
	return settings, nil
}

func (g *Game) RefreshBalance(ctx context.Context) error {
	tag := g.view.Current()
	balance, err := g.client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("failed to load balance: %w", err)
	}
	if !g.view.Valid(tag) {
		return nil
	}

	g.mu.Lock()
	g.balance = balance
	g.mu.Unlock()
	return nil
}

// LastRound is nil until a bet settles.
func (g *Game) LastRound() *Round {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return nil
	}
	r := *g.last
	return &r
}

func (g *Game) Balance() *models.Balance {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.balance == nil {
		return nil
	}
	b := *g.balance
	return &b
}

func (g *Game) Fairness(ctx context.Context) (*models.FairnessInfo, error) {
	return g.client.CrashFairness(ctx)
}

// Verify asks the platform to recompute a round from its seeds.
func (g *Game) Verify(ctx context.Context, serverSeed, clientSeed string, nonce int64) (*models.VerifyResult, error) {
	return g.client.CrashVerify(ctx, serverSeed, clientSeed, nonce)
}

// Close detaches the view; settlements still in flight are not recorded.
func (g *Game) Close() {
	g.view.Advance()
}

// Package admin is the approval console: dashboard panels, deposit and
// withdrawal decisions, user moderation and the platform settings dialog.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casino-client/internal/api"
	"casino-client/internal/models"
	"casino-client/internal/notify"
	"casino-client/internal/view"
)

const (
	UsersLimit = 20

	DefaultFreezeReason = "Frozen by admin"

	msgLoadFailed  = "Failed to load admin data"
	msgUnknownKind = "Unknown request kind"
)

var (
	ErrReasonRequired = errors.New("rejection reason is required")
	ErrUserRequired   = errors.New("user is required")
)

type Panel int

const (
	PanelStats Panel = iota
	PanelDeposits
	PanelWithdrawals
	PanelUsers

	panelCount
)

func (p Panel) String() string {
	switch p {
	case PanelStats:
		return "stats"
	case PanelDeposits:
		return "deposits"
	case PanelWithdrawals:
		return "withdrawals"
	case PanelUsers:
		return "users"
	}
	return fmt.Sprintf("panel(%d)", int(p))
}

type PanelState struct {
	Loading bool
	Err     error
}

// Dashboard holds the last successfully loaded data of every panel.
type Dashboard struct {
	Stats              *models.DashboardStats
	PendingDeposits    []models.Deposit
	PendingWithdrawals []models.Withdrawal
	Users              []models.User
}

type Console struct {
	client   *api.Client
	notifier notify.Notifier
	logger   *zap.Logger

	view  view.Generation
	loads view.Generation

	mu     sync.Mutex
	data   Dashboard
	panels [panelCount]PanelState
}

func New(client *api.Client, notifier notify.Notifier, logger *zap.Logger) *Console {
	if notifier == nil {
		notifier = &notify.Recorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{client: client, notifier: notifier, logger: logger}
}

// LoadDashboard fetches the four panels concurrently. A failing panel keeps
// its previous data and reports its own error; the others still update.
func (c *Console) LoadDashboard(ctx context.Context) error {
	viewTag := c.view.Current()
	loadTag := c.loads.Advance()

	c.mu.Lock()
	for i := range c.panels {
		c.panels[i].Loading = true
	}
	c.mu.Unlock()

	var (
		stats       *models.DashboardStats
		deposits    []models.Deposit
		withdrawals []models.Withdrawal
		users       []models.User
		errs        [panelCount]error
	)

	var g errgroup.Group
	g.Go(func() error {
		stats, errs[PanelStats] = c.client.DashboardStats(ctx)
		return errs[PanelStats]
	})
	g.Go(func() error {
		deposits, errs[PanelDeposits] = c.client.PendingDeposits(ctx)
		return errs[PanelDeposits]
	})
	g.Go(func() error {
		withdrawals, errs[PanelWithdrawals] = c.client.PendingWithdrawals(ctx)
		return errs[PanelWithdrawals]
	})
	g.Go(func() error {
		users, errs[PanelUsers] = c.client.Users(ctx, UsersLimit)
		return errs[PanelUsers]
	})
	err := g.Wait()

	if !c.view.Valid(viewTag) || !c.loads.Valid(loadTag) {
		c.logger.Debug("discarding stale dashboard load")
		return nil
	}

	c.mu.Lock()
	if errs[PanelStats] == nil {
		c.data.Stats = stats
	}
	if errs[PanelDeposits] == nil {
		c.data.PendingDeposits = deposits
	}
	if errs[PanelWithdrawals] == nil {
		c.data.PendingWithdrawals = withdrawals
	}
	if errs[PanelUsers] == nil {
		c.data.Users = users
	}
	for i := range c.panels {
		c.panels[i] = PanelState{Err: errs[i]}
	}
	c.mu.Unlock()

	if err != nil {
		c.notifier.Error(msgLoadFailed)
		for p, e := range errs {
			if e != nil {
				c.logger.Warn("admin panel failed", zap.Stringer("panel", Panel(p)), zap.Error(e))
			}
		}
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	return nil
}

func (c *Console) Dashboard() Dashboard {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.data
	if c.data.Stats != nil {
		stats := *c.data.Stats
		d.Stats = &stats
	}
	d.PendingDeposits = append([]models.Deposit(nil), c.data.PendingDeposits...)
	d.PendingWithdrawals = append([]models.Withdrawal(nil), c.data.PendingWithdrawals...)
	d.Users = append([]models.User(nil), c.data.Users...)
	return d
}

func (c *Console) Panel(p Panel) PanelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panels[p]
}

// Approve decides a pending request and reloads the dashboard. The item is
// never removed locally; the reload is the only source of the new lists.
func (c *Console) Approve(ctx context.Context, kind models.PaymentKind, id string) error {
	if err := c.checkKind(kind); err != nil {
		return err
	}
	return c.act(ctx, fmt.Sprintf("Failed to approve %s", kind), fmt.Sprintf("%s approved", label(kind)), func() error {
		return c.client.Approve(ctx, kind, id)
	})
}

// Reject needs a non-blank reason; without one nothing is sent.
func (c *Console) Reject(ctx context.Context, kind models.PaymentKind, id, reason string) error {
	if err := c.checkKind(kind); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	return c.act(ctx, fmt.Sprintf("Failed to reject %s", kind), fmt.Sprintf("%s rejected", label(kind)), func() error {
		return c.client.Reject(ctx, kind, id, reason)
	})
}

// FreezeToggle unfreezes a frozen user and freezes any other, defaulting the reason.
func (c *Console) FreezeToggle(ctx context.Context, user *models.User, reason string) error {
	if user == nil || user.ID == "" {
		return ErrUserRequired
	}
	if user.IsFrozen {
		return c.act(ctx, "Failed to unfreeze user", "User unfrozen", func() error {
			return c.client.UnfreezeUser(ctx, user.ID)
		})
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultFreezeReason
	}
	return c.act(ctx, "Failed to freeze user", "User frozen", func() error {
		return c.client.FreezeUser(ctx, user.ID, reason)
	})
}

func (c *Console) Suspend(ctx context.Context, userID string) error {
	return c.act(ctx, "Failed to suspend user", "User suspended", func() error {
		return c.client.SuspendUser(ctx, userID)
	})
}

func (c *Console) Activate(ctx context.Context, userID string) error {
	return c.act(ctx, "Failed to activate user", "User activated", func() error {
		return c.client.ActivateUser(ctx, userID)
	})
}

func (c *Console) act(ctx context.Context, fallback, success string, call func() error) error {
	if err := call(); err != nil {
		c.notifier.Error(api.Message(err, fallback))
		c.logger.Info("admin action failed", zap.String("action", fallback), zap.Error(err))
		return err
	}

	c.notifier.Success(success)
	// the reload reports its own failure
	_ = c.LoadDashboard(ctx)
	return nil
}

// Close detaches the view; loads still in flight are dropped.
func (c *Console) Close() {
	c.view.Advance()
	c.loads.Advance()
}

// checkKind keeps a mistyped kind from being sent as a deposit decision.
func (c *Console) checkKind(kind models.PaymentKind) error {
	if kind.Valid() {
		return nil
	}
	c.notifier.Error(msgUnknownKind)
	return fmt.Errorf("%w: %q", api.ErrUnknownKind, kind)
}

func label(kind models.PaymentKind) string {
	if kind == models.KindWithdrawal {
		return "Withdrawal"
	}
	return "Deposit"
}

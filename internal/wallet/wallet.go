// Package wallet drives deposit and withdrawal requests and keeps the wallet
// view (balance, wagering, recent requests) in step with the platform.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casino-client/internal/api"
	"casino-client/internal/models"
	"casino-client/internal/notify"
	"casino-client/internal/view"
)

const (
	// ListLimit is how many requests of each kind are fetched per refresh.
	ListLimit = 20
	// RecentCount is how many of them the balance summary shows.
	RecentCount = 5

	msgDepositFailed    = "Deposit request failed"
	msgWithdrawalFailed = "Withdrawal request failed"
	msgRefreshFailed    = "Failed to load wallet data"
)

var (
	ErrInvalidAmount   = errors.New("enter a valid amount")
	ErrAccountRequired = errors.New("jazzcash number is required")
	ErrBusy            = errors.New("request already in progress")
	ErrWageringActive  = errors.New("complete wagering requirements before withdrawal")
)

type Status int

const (
	Idle Status = iota
	Submitting
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Form is what the user typed for one request kind.
type Form struct {
	Amount  string
	Account string
}

// Snapshot is the wallet view state. Nil panels have never loaded.
type Snapshot struct {
	Balance     *models.Balance
	Wagering    *models.WageringStatus
	Deposits    []models.Deposit
	Withdrawals []models.Withdrawal
	LoadedAt    time.Time
}

type Option func(*Flow)

// AllOrNothing makes RefreshAll discard every result when any read fails.
func AllOrNothing() Option {
	return func(f *Flow) { f.allOrNothing = true }
}

type Flow struct {
	client   *api.Client
	notifier notify.Notifier
	logger   *zap.Logger

	allOrNothing bool

	// view is advanced on Close; loads on every refresh so only the newest one lands.
	view  view.Generation
	loads view.Generation

	mu      sync.Mutex
	state   Snapshot
	forms   map[models.PaymentKind]*Form
	status  map[models.PaymentKind]Status
	outcome map[models.PaymentKind]Status
}

func New(client *api.Client, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Flow {
	if notifier == nil {
		notifier = &notify.Recorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Flow{
		client:   client,
		notifier: notifier,
		logger:   logger,
		forms: map[models.PaymentKind]*Form{
			models.KindDeposit:    {},
			models.KindWithdrawal: {},
		},
		status: map[models.PaymentKind]Status{
			models.KindDeposit:    Idle,
			models.KindWithdrawal: Idle,
		},
		outcome: make(map[models.PaymentKind]Status),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RequestDeposit submits a deposit request and reloads the wallet on success.
func (f *Flow) RequestDeposit(ctx context.Context, amount, account string) (*models.CreatePaymentResponse, error) {
	return f.request(ctx, models.KindDeposit, amount, account)
}

// RequestWithdrawal is RequestDeposit for withdrawals. It refuses to dispatch
// while the cached wagering status has an active requirement.
func (f *Flow) RequestWithdrawal(ctx context.Context, amount, account string) (*models.CreatePaymentResponse, error) {
	f.mu.Lock()
	blocked := f.wageringActive()
	f.mu.Unlock()
	if blocked {
		return nil, ErrWageringActive
	}
	return f.request(ctx, models.KindWithdrawal, amount, account)
}

// CanSubmitWithdrawal mirrors the disabled state of the withdraw control.
func (f *Flow) CanSubmitWithdrawal() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.wageringActive() && f.status[models.KindWithdrawal] != Submitting
}

func (f *Flow) wageringActive() bool {
	return f.state.Wagering != nil && f.state.Wagering.HasActiveWagering
}

func (f *Flow) request(ctx context.Context, kind models.PaymentKind, amount, account string) (*models.CreatePaymentResponse, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, ErrAccountRequired
	}

	f.mu.Lock()
	if f.status[kind] == Submitting {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.status[kind] = Submitting
	*f.forms[kind] = Form{Amount: amount, Account: account}
	f.mu.Unlock()

	tag := f.view.Current()
	req := &models.PaymentRequest{Amount: value.InexactFloat64(), JazzCashNumber: account}

	var (
		resp     *models.CreatePaymentResponse
		fallback string
	)
	if kind == models.KindWithdrawal {
		resp, err = f.client.CreateWithdrawal(ctx, req, models.NewIdempotencyKey())
		fallback = msgWithdrawalFailed
	} else {
		resp, err = f.client.CreateDeposit(ctx, req, models.NewIdempotencyKey())
		fallback = msgDepositFailed
	}

	if err != nil {
		f.finish(kind, Failed, false)
		f.notifier.Error(api.Message(err, fallback))
		f.logger.Info("payment request failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to request %s: %w", kind, err)
	}

	f.finish(kind, Success, f.view.Valid(tag))
	f.notifier.Success(resp.Message)
	f.logger.Info("payment request submitted",
		zap.String("kind", string(kind)),
		zap.String("amount", value.String()))

	// the refresh reports its own failure
	_ = f.RefreshAll(ctx)

	return resp, nil
}

// finish records the outcome and returns the action to Idle.
func (f *Flow) finish(kind models.PaymentKind, outcome Status, clearForm bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcome[kind] = outcome
	f.status[kind] = Idle
	if clearForm {
		*f.forms[kind] = Form{}
	}
}

// RefreshAll reloads balance, wagering status and both request lists
// concurrently and applies them in one step once every read has finished.
func (f *Flow) RefreshAll(ctx context.Context) error {
	viewTag := f.view.Current()
	loadTag := f.loads.Advance()

	var (
		balance     *models.Balance
		wagering    *models.WageringStatus
		deposits    []models.Deposit
		withdrawals []models.Withdrawal

		balanceErr, wageringErr, depositsErr, withdrawalsErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		balance, balanceErr = f.client.Balance(ctx)
		return balanceErr
	})
	g.Go(func() error {
		wagering, wageringErr = f.client.WageringStatus(ctx)
		return wageringErr
	})
	g.Go(func() error {
		deposits, depositsErr = f.client.Deposits(ctx, ListLimit)
		return depositsErr
	})
	g.Go(func() error {
		withdrawals, withdrawalsErr = f.client.Withdrawals(ctx, ListLimit)
		return withdrawalsErr
	})
	err := g.Wait()

	if !f.view.Valid(viewTag) || !f.loads.Valid(loadTag) {
		f.logger.Debug("discarding stale wallet refresh")
		return nil
	}

	f.mu.Lock()
	if err == nil || !f.allOrNothing {
		if balanceErr == nil {
			f.state.Balance = balance
		}
		if wageringErr == nil {
			f.state.Wagering = wagering
		}
		if depositsErr == nil {
			f.state.Deposits = deposits
		}
		if withdrawalsErr == nil {
			f.state.Withdrawals = withdrawals
		}
		f.state.LoadedAt = time.Now()
	}
	f.mu.Unlock()

	if err != nil {
		f.notifier.Error(msgRefreshFailed)
		f.logger.Warn("wallet refresh failed",
			zap.NamedError("balance", balanceErr),
			zap.NamedError("wagering", wageringErr),
			zap.NamedError("deposits", depositsErr),
			zap.NamedError("withdrawals", withdrawalsErr))
		return fmt.Errorf("failed to refresh wallet: %w", err)
	}

	return nil
}

// Close detaches the view; responses still in flight are dropped.
func (f *Flow) Close() {
	f.view.Advance()
	f.loads.Advance()
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.state
	s.Deposits = append([]models.Deposit(nil), f.state.Deposits...)
	s.Withdrawals = append([]models.Withdrawal(nil), f.state.Withdrawals...)
	return s
}

// RecentDeposits returns the newest requests in server order.
func (f *Flow) RecentDeposits() []models.Deposit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return recent(f.state.Deposits)
}

func (f *Flow) RecentWithdrawals() []models.Withdrawal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return recent(f.state.Withdrawals)
}

func recent(records []models.PaymentRecord) []models.PaymentRecord {
	n := len(records)
	if n > RecentCount {
		n = RecentCount
	}
	return append([]models.PaymentRecord(nil), records[:n]...)
}

func (f *Flow) Form(kind models.PaymentKind) Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.forms[kind]
}

// Status is Submitting while a request is in flight and Idle otherwise.
func (f *Flow) Status(kind models.PaymentKind) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status[kind]
}

// Outcome is the result of the last finished request of kind, Idle if none.
func (f *Flow) Outcome(kind models.PaymentKind) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome[kind]
}

// ParseAmount accepts a positive decimal amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

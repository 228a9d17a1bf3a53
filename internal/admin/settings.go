package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"casino-client/internal/api"
	"casino-client/internal/models"
	"casino-client/internal/notify"
)

var (
	ErrNothingToSave = errors.New("settings cannot be saved now")
	ErrInvalidValue  = errors.New("invalid settings value")
)

var hundred = decimal.NewFromInt(100)

// EdgeToPercent shows a house edge fraction as a percentage (0.03 -> 3).
func EdgeToPercent(edge float64) float64 {
	return decimal.NewFromFloat(edge).Mul(hundred).Round(2).InexactFloat64()
}

// PercentToEdge stores a percentage as a fraction (3 -> 0.03).
func PercentToEdge(percent float64) float64 {
	return decimal.NewFromFloat(percent).Div(hundred).InexactFloat64()
}

// Draft is the settings form as typed. The house edge is a percentage.
type Draft struct {
	DepositMin       string
	DepositMax       string
	WithdrawMin      string
	WithdrawMax      string
	DailyBetLimit    string
	CrashEnabled     bool
	CrashMinBet      string
	CrashMaxBet      string
	HouseEdgePercent string
}

func DraftFrom(s models.Settings) Draft {
	return Draft{
		DepositMin:       models.FormatAmount(s.DepositMin),
		DepositMax:       models.FormatAmount(s.DepositMax),
		WithdrawMin:      models.FormatAmount(s.WithdrawMin),
		WithdrawMax:      models.FormatAmount(s.WithdrawMax),
		DailyBetLimit:    models.FormatAmount(s.DailyBetLimit),
		CrashEnabled:     s.CrashEnabled,
		CrashMinBet:      models.FormatAmount(s.CrashMinBet),
		CrashMaxBet:      models.FormatAmount(s.CrashMaxBet),
		HouseEdgePercent: models.FormatAmount(EdgeToPercent(s.CrashHouseEdge)),
	}
}

// Settings parses the draft back into platform settings.
func (d Draft) Settings() (models.Settings, error) {
	var (
		s   models.Settings
		err error
	)
	fields := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"deposit_min", d.DepositMin, &s.DepositMin},
		{"deposit_max", d.DepositMax, &s.DepositMax},
		{"withdraw_min", d.WithdrawMin, &s.WithdrawMin},
		{"withdraw_max", d.WithdrawMax, &s.WithdrawMax},
		{"daily_bet_limit", d.DailyBetLimit, &s.DailyBetLimit},
		{"crash_min_bet", d.CrashMinBet, &s.CrashMinBet},
		{"crash_max_bet", d.CrashMaxBet, &s.CrashMaxBet},
	}
	for _, f := range fields {
		if *f.dst, err = parseNumber(f.value); err != nil {
			return models.Settings{}, fmt.Errorf("%w: %s", ErrInvalidValue, f.name)
		}
	}

	percent, err := decimal.NewFromString(strings.TrimSpace(d.HouseEdgePercent))
	if err != nil {
		return models.Settings{}, fmt.Errorf("%w: house edge", ErrInvalidValue)
	}
	s.CrashHouseEdge = percent.Div(hundred).InexactFloat64()
	s.CrashEnabled = d.CrashEnabled

	return s, nil
}

func parseNumber(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// SettingsDialog edits a draft against the last loaded settings.
type SettingsDialog struct {
	client   *api.Client
	notifier notify.Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	loaded  *models.Settings
	draft   Draft
	loading bool
	saving  bool
}

func NewSettingsDialog(client *api.Client, notifier notify.Notifier, logger *zap.Logger) *SettingsDialog {
	if notifier == nil {
		notifier = &notify.Recorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsDialog{client: client, notifier: notifier, logger: logger}
}

// Open loads the current settings and resets the draft to them.
func (d *SettingsDialog) Open(ctx context.Context) error {
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()

	settings, err := d.client.Settings(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.notifier.Error(api.Message(err, "Failed to load settings"))
		return fmt.Errorf("failed to load settings: %w", err)
	}
	d.loaded = settings
	d.draft = DraftFrom(*settings)
	return nil
}

func (d *SettingsDialog) Draft() Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Edit applies fn to the draft.
func (d *SettingsDialog) Edit(fn func(*Draft)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.draft)
}

// Dirty compares the parsed draft with the loaded snapshot. A draft that does
// not parse counts as dirty.
func (d *SettingsDialog) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty()
}

func (d *SettingsDialog) dirty() bool {
	if d.loaded == nil {
		return false
	}
	parsed, err := d.draft.Settings()
	return err != nil || parsed != *d.loaded
}

func (d *SettingsDialog) CanSave() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canSave()
}

func (d *SettingsDialog) canSave() bool {
	if d.loading || d.saving || !d.dirty() {
		return false
	}
	_, err := d.draft.Settings()
	return err == nil
}

func (d *SettingsDialog) Save(ctx context.Context) (*models.Settings, error) {
	d.mu.Lock()
	if !d.canSave() {
		d.mu.Unlock()
		return nil, ErrNothingToSave
	}
	next, _ := d.draft.Settings()
	d.saving = true
	d.mu.Unlock()

	saved, err := d.client.UpdateSettings(ctx, &next)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.saving = false
	if err != nil {
		d.notifier.Error(api.Message(err, "Failed to save settings"))
		d.logger.Info("settings save failed", zap.Error(err))
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	d.loaded = saved
	d.draft = DraftFrom(*saved)
	d.notifier.Success("Settings saved")
	return saved, nil
}

package sandbox

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"casino-client/internal/models"
)

type account struct {
	models.User
	PasswordHash  []byte
	LockedBalance float64

	TotalDeposits    float64
	TotalWithdrawals float64
	TotalBets        float64
	TotalWins        float64
	BetsCount        int
}

func (a *account) balance(currency string) models.Balance {
	return models.Balance{
		Currency:         currency,
		WalletBalance:    a.WalletBalance,
		LockedBalance:    a.LockedBalance,
		BonusBalance:     a.BonusBalance,
		AvailableBalance: a.WalletBalance,
		TotalBalance:     models.RoundMoney(a.WalletBalance + a.LockedBalance + a.BonusBalance),
	}
}

// Store is the sandbox's whole platform state. Callers hold mu.
type Store struct {
	mu sync.Mutex

	settings models.Settings

	accounts     map[string]*account
	emails       map[string]string
	deposits     map[string]*models.PaymentRecord
	withdrawals  map[string]*models.PaymentRecord
	bets         []*models.Bet
	transactions []*models.Transaction
	wagering     map[string][]*models.WageringRecord

	seq int64
}

func NewStore() *Store {
	return &Store{
		settings:    models.DefaultSettings(),
		accounts:    make(map[string]*account),
		emails:      make(map[string]string),
		deposits:    make(map[string]*models.PaymentRecord),
		withdrawals: make(map[string]*models.PaymentRecord),
		wagering:    make(map[string][]*models.WageringRecord),
	}
}

// stamp returns strictly increasing timestamps so ordering by created_at is stable.
func (s *Store) stamp() time.Time {
	s.seq++
	return time.Now().UTC().Add(time.Duration(s.seq) * time.Microsecond)
}

func (s *Store) addAccount(a *account) {
	a.ID = uuid.NewString()
	a.CreatedAt = s.stamp()
	s.accounts[a.ID] = a
	s.emails[strings.ToLower(a.Email)] = a.ID
}

func (s *Store) accountByEmail(email string) *account {
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil
	}
	return s.accounts[id]
}

func (s *Store) records(kind models.PaymentKind) map[string]*models.PaymentRecord {
	if kind == models.KindWithdrawal {
		return s.withdrawals
	}
	return s.deposits
}

func (s *Store) addTransaction(userID string, typ models.TransactionType, amount, before, after float64, description string) {
	s.transactions = append(s.transactions, &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          typ,
		Amount:        amount,
		Status:        "completed",
		Description:   description,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     s.stamp(),
	})
}

func newestFirst(records []*models.PaymentRecord, limit int) []models.PaymentRecord {
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	out := make([]models.PaymentRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	return out
}

func (s *Store) paymentsFor(kind models.PaymentKind, userID string, limit int) []models.PaymentRecord {
	var matched []*models.PaymentRecord
	for _, r := range s.records(kind) {
		if r.UserID == userID {
			matched = append(matched, r)
		}
	}
	return newestFirst(matched, limit)
}

func (s *Store) pending(kind models.PaymentKind) []models.PaymentRecord {
	var matched []*models.PaymentRecord
	for _, r := range s.records(kind) {
		if r.Status == models.StatusPending {
			matched = append(matched, r)
		}
	}
	return newestFirst(matched, 100)
}

func (s *Store) wageringStatus(userID string) models.WageringStatus {
	var (
		target, wagered float64
		active          []models.WageringRecord
	)
	for _, r := range s.wagering[userID] {
		if r.Status != "active" {
			continue
		}
		target += r.TargetAmount
		wagered += r.WageredAmount
		active = append(active, *r)
	}

	remaining := models.RoundMoney(target - wagered)
	if remaining < 0 {
		remaining = 0
	}

	return models.WageringStatus{
		HasActiveWagering: len(active) > 0,
		TotalTarget:       models.RoundMoney(target),
		TotalWagered:      models.RoundMoney(wagered),
		Remaining:         remaining,
		Records:           active,
		CanWithdraw:       len(active) == 0,
	}
}

// applyWagering spreads a bet over active records, oldest first.
func (s *Store) applyWagering(userID string, amount float64) {
	remaining := amount
	for _, r := range s.wagering[userID] {
		if remaining <= 0 {
			break
		}
		if r.Status != "active" {
			continue
		}
		left := r.TargetAmount - r.WageredAmount
		if left <= 0 {
			r.Status = "completed"
			continue
		}
		add := remaining
		if add > left {
			add = left
		}
		r.WageredAmount = models.RoundMoney(r.WageredAmount + add)
		remaining -= add
		if r.WageredAmount >= r.TargetAmount {
			r.Status = "completed"
		}
	}
}

func (s *Store) dailyBetTotal(userID string, now time.Time) float64 {
	since := now.Add(-24 * time.Hour)
	var total float64
	for _, b := range s.bets {
		if b.UserID == userID && b.CreatedAt.After(since) {
			total += b.BetAmount
		}
	}
	return total
}

func (s *Store) dashboard(now time.Time) models.DashboardStats {
	var stats models.DashboardStats

	for _, a := range s.accounts {
		if a.Role == models.RoleUser {
			stats.Users.Total++
			if a.IsActive {
				stats.Users.Active++
			}
		}
		if a.KYCStatus == models.KYCPending {
			stats.PendingApprovals.KYC++
		}
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today := func(t *time.Time) bool {
		return t != nil && !t.Before(dayStart) && t.Before(dayStart.Add(24*time.Hour))
	}

	for _, d := range s.deposits {
		switch {
		case d.Status == models.StatusPending:
			stats.PendingApprovals.Deposits++
		case d.Status == models.StatusApproved && today(d.ApprovedAt):
			stats.Today.Deposits += d.Amount
		}
	}
	for _, w := range s.withdrawals {
		switch {
		case w.Status == models.StatusPending:
			stats.PendingApprovals.Withdrawals++
		case w.Status == models.StatusApproved && today(w.ApprovedAt):
			stats.Today.Withdrawals += w.Amount
		}
	}

	for _, b := range s.bets {
		if today(&b.CreatedAt) {
			stats.Today.TotalBets += b.BetAmount
			stats.Today.BetsCount++
		}
	}

	if stats.Today.Deposits > 0 {
		stats.Today.WinningRatio = models.RoundMoney(stats.Today.Withdrawals / stats.Today.Deposits * 100)
	}

	return stats
}

package models

import "time"

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Terminal states never change again.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PaymentKind selects between the two mobile-money request families.
type PaymentKind string

const (
	KindDeposit    PaymentKind = "deposit"
	KindWithdrawal PaymentKind = "withdrawal"
)

func (k PaymentKind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// PaymentRequest is the create payload for both deposits and withdrawals.
type PaymentRequest struct {
	Amount         float64 `json:"amount"`
	JazzCashNumber string  `json:"jazzcash_number"`
}

type PaymentRecord struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Amount          float64       `json:"amount"`
	JazzCashNumber  string        `json:"jazzcash_number"`
	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy      string        `json:"approved_by,omitempty"`
}

type (
	Deposit    = PaymentRecord
	Withdrawal = PaymentRecord
)

type CreatePaymentResponse struct {
	Message      string        `json:"message"`
	DepositID    string        `json:"deposit_id,omitempty"`
	WithdrawalID string        `json:"withdrawal_id,omitempty"`
	Status       RequestStatus `json:"status"`
}

type TransactionType string

const (
	TransactionTypeBet        TransactionType = "bet"
	TransactionTypeWin        TransactionType = "win"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Type          TransactionType `json:"type"`
	Amount        float64         `json:"amount"`
	Status        string          `json:"status"`
	Description   string          `json:"description"`
	BalanceBefore float64         `json:"balance_before"`
	BalanceAfter  float64         `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Bet struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	GameID     string    `json:"game_id"`
	GameName   string    `json:"game_name"`
	BetAmount  float64   `json:"bet_amount"`
	Multiplier float64   `json:"multiplier"`
	Payout     float64   `json:"payout"`
	Status     BetStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

package models

import "time"

// Balance is reported by the platform; the client never derives totals itself.
type Balance struct {
	Currency         string  `json:"currency"`
	WalletBalance    float64 `json:"wallet_balance"`
	LockedBalance    float64 `json:"locked_balance"`
	BonusBalance     float64 `json:"bonus_balance"`
	AvailableBalance float64 `json:"available_balance"`
	TotalBalance     float64 `json:"total_balance"`
}

type WageringRecord struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	SourceID        string    `json:"source_id"`
	PrincipalAmount float64   `json:"principal_amount"`
	Multiplier      float64   `json:"multiplier"`
	TargetAmount    float64   `json:"target_amount"`
	WageredAmount   float64   `json:"wagered_amount"`
	Status          string    `json:"status"` // active, completed
	CreatedAt       time.Time `json:"created_at"`
}

type WageringStatus struct {
	HasActiveWagering bool             `json:"has_active_wagering"`
	TotalTarget       float64          `json:"total_target"`
	TotalWagered      float64          `json:"total_wagered"`
	Remaining         float64          `json:"remaining"`
	Records           []WageringRecord `json:"records,omitempty"`
	CanWithdraw       bool             `json:"can_withdraw"`
}

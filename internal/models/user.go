package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "not_submitted"
	KYCPending      KYCStatus = "pending"
	KYCApproved     KYCStatus = "approved"
	KYCRejected     KYCStatus = "rejected"
)

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	FullName   string    `json:"full_name"`
	Role       Role      `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	KYCStatus  KYCStatus `json:"kyc_status"`

	WalletBalance float64 `json:"wallet_balance"`
	BonusBalance  float64 `json:"bonus_balance"`
	VIPLevel      int     `json:"vip_level"`
	ReferralCode  string  `json:"referral_code,omitempty"`

	IsFrozen     bool   `json:"is_frozen"`
	FrozenReason string `json:"frozen_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type ProfileUpdate struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type UserStats struct {
	TotalDeposits    float64 `json:"total_deposits"`
	TotalWithdrawals float64 `json:"total_withdrawals"`
	TotalBets        float64 `json:"total_bets"`
	TotalWins        float64 `json:"total_wins"`
	NetProfit        float64 `json:"net_profit"`
	BetsCount        int     `json:"bets_count"`
	VIPLevel         int     `json:"vip_level"`
}

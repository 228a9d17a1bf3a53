package models

// Settings are the admin-editable platform limits. CrashHouseEdge is a fraction (0.03 = 3%).
type Settings struct {
	DepositMin     float64 `json:"deposit_min"`
	DepositMax     float64 `json:"deposit_max"`
	WithdrawMin    float64 `json:"withdraw_min"`
	WithdrawMax    float64 `json:"withdraw_max"`
	DailyBetLimit  float64 `json:"daily_bet_limit"`
	CrashEnabled   bool    `json:"crash_enabled"`
	CrashMinBet    float64 `json:"crash_min_bet"`
	CrashMaxBet    float64 `json:"crash_max_bet"`
	CrashHouseEdge float64 `json:"crash_house_edge"`
}

func DefaultSettings() Settings {
	return Settings{
		DepositMin:     300,
		DepositMax:     50000,
		WithdrawMin:    300,
		WithdrawMax:    30000,
		DailyBetLimit:  100000,
		CrashEnabled:   true,
		CrashMinBet:    50,
		CrashMaxBet:    50000,
		CrashHouseEdge: 0.03,
	}
}

type UserCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type PendingApprovals struct {
	Deposits    int `json:"deposits"`
	Withdrawals int `json:"withdrawals"`
	KYC         int `json:"kyc"`
}

type TodayStats struct {
	Deposits     float64 `json:"deposits"`
	Withdrawals  float64 `json:"withdrawals"`
	WinningRatio float64 `json:"winning_ratio"`
	TotalBets    float64 `json:"total_bets"`
	BetsCount    int     `json:"bets_count"`
}

type DashboardStats struct {
	Users            UserCounts       `json:"users"`
	PendingApprovals PendingApprovals `json:"pending_approvals"`
	Today            TodayStats       `json:"today"`
}

package models

type BetStatus string

const (
	BetWon  BetStatus = "won"
	BetLost BetStatus = "lost"
)

const (
	MinCashoutMultiplier = 1.01
	MaxCashoutMultiplier = 100.0
)

type CrashBetRequest struct {
	Amount            float64 `json:"amount"`
	CashoutMultiplier float64 `json:"cashout_multiplier"`
	ClientSeed        string  `json:"client_seed"`
	Nonce             int64   `json:"nonce"`
}

// ProvablyFair carries the revealed seeds of a settled round.
type ProvablyFair struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ServerSeed     string `json:"server_seed"`
	ClientSeed     string `json:"client_seed"`
	Nonce          int64  `json:"nonce"`
	Verify         string `json:"verify"`
}

type RoundBalances struct {
	AvailableBalance float64 `json:"available_balance"`
	LockedBalance    float64 `json:"locked_balance"`
}

type CrashSettlement struct {
	BetID             string        `json:"bet_id"`
	Status            BetStatus     `json:"status"`
	Amount            float64       `json:"amount"`
	CashoutMultiplier float64       `json:"cashout_multiplier"`
	CrashPoint        float64       `json:"crash_point"`
	Payout            float64       `json:"payout"`
	Currency          string        `json:"currency"`
	ProvablyFair      ProvablyFair  `json:"provably_fair"`
	Balances          RoundBalances `json:"balances"`
}

func (s *CrashSettlement) Won() bool {
	return s.Status == BetWon
}

// GameSettings is the public subset of the platform settings.
type GameSettings struct {
	Currency       string  `json:"currency"`
	CrashHouseEdge float64 `json:"crash_house_edge"`
	CrashMinBet    float64 `json:"crash_min_bet"`
	CrashMaxBet    float64 `json:"crash_max_bet"`
	CrashEnabled   bool    `json:"crash_enabled"`
}

type FairnessInfo struct {
	Algorithm      string  `json:"algorithm"`
	HouseEdge      float64 `json:"house_edge"`
	VerifyEndpoint string  `json:"verify_endpoint"`
}

type VerifyResult struct {
	ServerSeedHash string  `json:"server_seed_hash"`
	ClientSeed     string  `json:"client_seed"`
	Nonce          int64   `json:"nonce"`
	CrashPoint     float64 `json:"crash_point"`
}

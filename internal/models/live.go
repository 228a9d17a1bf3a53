package models

import "encoding/json"

// Event types pushed over the /ws channel.
const (
	EventBalanceUpdate    = "BALANCE_UPDATE"
	EventDepositUpdate    = "DEPOSIT_UPDATE"
	EventWithdrawalUpdate = "WITHDRAWAL_UPDATE"
	EventGameSettled      = "GAME_SETTLED"
	EventPing             = "PING"
	EventPong             = "PONG"
)

type LiveMessage struct {
	Type   string          `json:"type"`
	UserID string          `json:"user_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Refreshes reports whether the event means server-side balances may have changed.
func (m *LiveMessage) Refreshes() bool {
	switch m.Type {
	case EventBalanceUpdate, EventDepositUpdate, EventWithdrawalUpdate, EventGameSettled:
		return true
	}
	return false
}

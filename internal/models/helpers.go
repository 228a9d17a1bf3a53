package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateClientSeed returns a per-bet seed of the form u-<unix ms>-<8 hex>.
func GenerateClientSeed(now time.Time) string {
	return fmt.Sprintf("u-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func NewIdempotencyKey() string {
	return uuid.NewString()
}

// FormatAmount renders an amount the way the platform prints it: no trailing zeros.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).String()
}

func FormatCurrency(currency string, amount float64) string {
	if currency == "" {
		currency = "PKR"
	}
	return currency + " " + FormatAmount(amount)
}

// RoundMoney rounds half away from zero to two places.
func RoundMoney(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

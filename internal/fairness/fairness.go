package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"

	"casino-client/internal/models"
)

const (
	Algorithm = "HMAC-SHA256(server_seed, client_seed:nonce) => 52-bit => crash formula"

	MaxCrashPoint = 100.0
	two52         = 1 << 52
)

var (
	ErrSeedHashMismatch   = errors.New("server seed does not match committed hash")
	ErrCrashPointMismatch = errors.New("crash point does not match seeds")
	ErrHouseEdge          = errors.New("house edge must be in [0, 1)")
)

func NewServerSeed() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate server seed: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func HashServerSeed(serverSeed string) string {
	hash := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(hash[:])
}

// GameHash is HMAC-SHA256 keyed by the server seed over "client_seed:nonce".
func GameHash(serverSeed, clientSeed string, nonce int64) string {
	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(fmt.Sprintf("%s:%d", clientSeed, nonce)))
	return hex.EncodeToString(h.Sum(nil))
}

// CrashPoint maps seeds to a multiplier in [1, 100], rounded to 2 places.
func CrashPoint(serverSeed, clientSeed string, nonce int64, houseEdge float64) float64 {
	return math.Round(exactCrashPoint(serverSeed, clientSeed, nonce, houseEdge)*100) / 100
}

func exactCrashPoint(serverSeed, clientSeed string, nonce int64, houseEdge float64) float64 {
	hash := GameHash(serverSeed, clientSeed, nonce)

	// first 52 bits
	r, _ := strconv.ParseUint(hash[:13], 16, 64)

	crash := (1 - houseEdge) * (float64(two52) / float64(r+1))
	return math.Max(1, math.Min(crash, MaxCrashPoint))
}

// matchesCrashPoint accepts either rounding of an exact half. Platforms
// differ on ties: some round half away from zero, others half to even.
func matchesCrashPoint(exact, claimed float64) bool {
	for _, rounded := range []float64{
		math.Round(exact*100) / 100,
		math.RoundToEven(exact*100) / 100,
	} {
		if math.Abs(rounded-claimed) < 1e-9 {
			return true
		}
	}
	return false
}

// Verify recomputes a settled round. A nil error means the revealed seed matches
// the committed hash and reproduces the reported crash point.
func Verify(proof models.ProvablyFair, crashPoint, houseEdge float64) error {
	if houseEdge < 0 || houseEdge >= 1 {
		return ErrHouseEdge
	}
	if HashServerSeed(proof.ServerSeed) != proof.ServerSeedHash {
		return ErrSeedHashMismatch
	}

	exact := exactCrashPoint(proof.ServerSeed, proof.ClientSeed, proof.Nonce, houseEdge)
	if !matchesCrashPoint(exact, crashPoint) {
		return fmt.Errorf("%w: expected %.2f, got %.2f", ErrCrashPointMismatch, math.Round(exact*100)/100, crashPoint)
	}

	return nil
}

// VerifyURL is the server-side verification link published with each round.
func VerifyURL(serverSeed, clientSeed string, nonce int64) string {
	return fmt.Sprintf("/api/games/crash/verify?server_seed=%s&client_seed=%s&nonce=%d", serverSeed, clientSeed, nonce)
}

package auth_test

import (
	"testing"
	"time"

	"casino-client/internal/auth"
)

func TestIssueAndParse(t *testing.T) {
	token, err := auth.IssueToken("secret", "u-1", "a@b.c", "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	claims, err := auth.ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "admin" {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	if _, err := auth.ParseToken("other", token); err == nil {
		t.Error("Expected error for wrong secret")
	}

	peeked, err := auth.PeekClaims(token)
	if err != nil {
		t.Fatalf("PeekClaims failed: %v", err)
	}
	if peeked.Expired(time.Now()) {
		t.Error("Fresh token should not be expired")
	}
	if !peeked.Expired(time.Now().Add(2 * time.Hour)) {
		t.Error("Token should be expired after its ttl")
	}
}

func TestPeekClaimsGarbage(t *testing.T) {
	if _, err := auth.PeekClaims("not-a-jwt"); err == nil {
		t.Error("Expected error for malformed token")
	}
}

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"casino-client/internal/api"
	"casino-client/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(srv.URL, srv.Client(), nil)
}

func TestBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(models.Balance{Currency: "PKR", WalletBalance: 500})
	})

	if _, err := client.Balance(context.Background()); err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Expected no Authorization header without token, got %q", gotAuth)
	}
	if gotPath != "/api/user/wallet/balance" {
		t.Errorf("Expected /api prefix, got %s", gotPath)
	}

	client.SetTokenSource(api.TokenFunc(func() string { return "abc" }))
	balance, err := client.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Expected bearer token, got %q", gotAuth)
	}
	if balance.WalletBalance != 500 {
		t.Errorf("Expected wallet balance 500, got %v", balance.WalletBalance)
	}
}

func TestUnauthorizedEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid token"}`))
	})

	calls := 0
	client.OnUnauthorized(func() { calls++ })

	_, err := client.Profile(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected one unauthorized event, got %d", calls)
	}

	client.Deposits(context.Background(), 20)
	if calls != 2 {
		t.Errorf("Expected unauthorized event on every 401, got %d", calls)
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", http.StatusBadRequest, `{"detail":"Minimum deposit amount is PKR 300"}`, "Minimum deposit amount is PKR 300"},
		{"error field", http.StatusForbidden, `{"error":"Admin access required"}`, "Admin access required"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, "Deposit request failed"},
		{"plain text", http.StatusInternalServerError, `upstream exploded`, "Deposit request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.CreateDeposit(context.Background(), &models.PaymentRequest{Amount: 100}, "")
			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *api.Error, got %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, apiErr.Status)
			}
			if got := api.Message(err, "Deposit request failed"); got != tt.want {
				t.Errorf("Expected message %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := api.New(srv.URL, srv.Client(), nil)
	srv.Close()

	_, err := client.Balance(context.Background())
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *api.Error, got %T", err)
	}
	if apiErr.Status != 0 {
		t.Errorf("Expected status 0 for transport failure, got %d", apiErr.Status)
	}
	if got := api.Message(err, "fallback"); got != "fallback" {
		t.Errorf("Expected fallback message, got %q", got)
	}
}

func TestCreateDepositPayload(t *testing.T) {
	var (
		gotKey  string
		gotBody map[string]any
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(api.HeaderIdempotencyKey)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(models.CreatePaymentResponse{DepositID: "d1", Status: models.StatusPending})
	})

	resp, err := client.CreateDeposit(context.Background(), &models.PaymentRequest{Amount: 500, JazzCashNumber: "03001234567"}, "key-1")
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}
	if resp.DepositID != "d1" {
		t.Errorf("Expected deposit id d1, got %s", resp.DepositID)
	}
	if gotKey != "key-1" {
		t.Errorf("Expected idempotency key key-1, got %q", gotKey)
	}
	if gotBody["amount"] != float64(500) || gotBody["jazzcash_number"] != "03001234567" {
		t.Errorf("Unexpected payload: %v", gotBody)
	}

	client.CreateWithdrawal(context.Background(), &models.PaymentRequest{Amount: 500}, "")
	if gotKey == "" || gotKey == "key-1" {
		t.Errorf("Expected a generated idempotency key, got %q", gotKey)
	}
}

func TestRejectSendsReason(t *testing.T) {
	var (
		gotMethod, gotPath, gotQuery string
		gotBody                      map[string]string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("reason")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"message":"ok"}`))
	})

	if err := client.Reject(context.Background(), models.KindWithdrawal, "w-9", "wrong number"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/admin/withdrawals/w-9/reject" {
		t.Errorf("Unexpected request %s %s", gotMethod, gotPath)
	}
	if gotQuery != "wrong number" || gotBody["reason"] != "wrong number" {
		t.Errorf("Expected reason in query and body, got %q / %v", gotQuery, gotBody)
	}
}

func TestListLimit(t *testing.T) {
	var gotLimit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`[]`))
	})

	if _, err := client.Withdrawals(context.Background(), 20); err != nil {
		t.Fatalf("Withdrawals failed: %v", err)
	}
	if gotLimit != "20" {
		t.Errorf("Expected limit=20, got %q", gotLimit)
	}
}

func TestUnknownKindNotSent(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"message":"ok"}`))
	})

	ctx := context.Background()
	if err := client.Approve(ctx, "withdrawals", "w-1"); !errors.Is(err, api.ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind from Approve, got %v", err)
	}
	if err := client.Reject(ctx, "deposits", "d-1", "dup"); !errors.Is(err, api.ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind from Reject, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no requests, got %d", calls)
	}
}

package api

import (
	"context"
	"net/http"

	"casino-client/internal/models"
)

// CreateDeposit submits a pending deposit. An empty idempotency key gets a fresh one.
func (c *Client) CreateDeposit(ctx context.Context, req *models.PaymentRequest, idempotencyKey string) (*models.CreatePaymentResponse, error) {
	return c.createPayment(ctx, "/payment/deposit", req, idempotencyKey)
}

func (c *Client) CreateWithdrawal(ctx context.Context, req *models.PaymentRequest, idempotencyKey string) (*models.CreatePaymentResponse, error) {
	return c.createPayment(ctx, "/payment/withdrawal", req, idempotencyKey)
}

func (c *Client) createPayment(ctx context.Context, path string, req *models.PaymentRequest, idempotencyKey string) (*models.CreatePaymentResponse, error) {
	if idempotencyKey == "" {
		idempotencyKey = models.NewIdempotencyKey()
	}

	var resp models.CreatePaymentResponse
	if err := c.send(ctx, http.MethodPost, path, nil, req, &resp, idempotencyHeader(idempotencyKey)); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Deposits(ctx context.Context, limit int) ([]models.Deposit, error) {
	var deposits []models.Deposit
	if err := c.Send(ctx, http.MethodGet, "/payment/deposits", limitQuery(limit), nil, &deposits); err != nil {
		return nil, err
	}
	return deposits, nil
}

func (c *Client) Withdrawals(ctx context.Context, limit int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	if err := c.Send(ctx, http.MethodGet, "/payment/withdrawals", limitQuery(limit), nil, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

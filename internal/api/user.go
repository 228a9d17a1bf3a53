package api

import (
	"context"
	"net/http"

	"casino-client/internal/models"
)

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Send(ctx, http.MethodGet, "/user/profile", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update *models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.Send(ctx, http.MethodPut, "/user/profile", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Balance(ctx context.Context) (*models.Balance, error) {
	var balance models.Balance
	if err := c.Send(ctx, http.MethodGet, "/user/wallet/balance", nil, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *Client) Transactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.Send(ctx, http.MethodGet, "/user/transactions", limitQuery(limit), nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) Bets(ctx context.Context, limit int) ([]models.Bet, error) {
	var bets []models.Bet
	if err := c.Send(ctx, http.MethodGet, "/user/bets", limitQuery(limit), nil, &bets); err != nil {
		return nil, err
	}
	return bets, nil
}

func (c *Client) Stats(ctx context.Context) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.Send(ctx, http.MethodGet, "/user/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) WageringStatus(ctx context.Context) (*models.WageringStatus, error) {
	var status models.WageringStatus
	if err := c.Send(ctx, http.MethodGet, "/wagering/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"casino-client/internal/models"
)

func (c *Client) GameSettings(ctx context.Context) (*models.GameSettings, error) {
	var settings models.GameSettings
	if err := c.Send(ctx, http.MethodGet, "/games/settings", nil, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) PlaceCrashBet(ctx context.Context, req *models.CrashBetRequest, idempotencyKey string) (*models.CrashSettlement, error) {
	if idempotencyKey == "" {
		idempotencyKey = models.NewIdempotencyKey()
	}

	var settlement models.CrashSettlement
	if err := c.send(ctx, http.MethodPost, "/games/crash/bet", nil, req, &settlement, idempotencyHeader(idempotencyKey)); err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (c *Client) CrashFairness(ctx context.Context) (*models.FairnessInfo, error) {
	var info models.FairnessInfo
	if err := c.Send(ctx, http.MethodGet, "/games/crash/fairness", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) CrashVerify(ctx context.Context, serverSeed, clientSeed string, nonce int64) (*models.VerifyResult, error) {
	q := url.Values{}
	q.Set("server_seed", serverSeed)
	q.Set("client_seed", clientSeed)
	q.Set("nonce", strconv.FormatInt(nonce, 10))

	var result models.VerifyResult
	if err := c.Send(ctx, http.MethodGet, "/games/crash/verify", q, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

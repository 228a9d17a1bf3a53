package api

import (
	"context"
	"net/http"

	"casino-client/internal/models"
)

func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.Send(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.login(ctx, "/auth/login", email, password)
}

func (c *Client) AdminLogin(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.login(ctx, "/auth/admin/login", email, password)
}

func (c *Client) login(ctx context.Context, path, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := &models.LoginRequest{Email: email, Password: password}
	if err := c.Send(ctx, http.MethodPost, path, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"casino-client/internal/models"
)

type reasonBody struct {
	Reason string `json:"reason"`
}

func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.Send(ctx, http.MethodGet, "/admin/stats/dashboard", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Users(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	if err := c.Send(ctx, http.MethodGet, "/admin/users", limitQuery(limit), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SuspendUser(ctx context.Context, userID string) error {
	return c.userAction(ctx, userID, "suspend", "")
}

func (c *Client) ActivateUser(ctx context.Context, userID string) error {
	return c.userAction(ctx, userID, "activate", "")
}

func (c *Client) FreezeUser(ctx context.Context, userID, reason string) error {
	return c.userAction(ctx, userID, "freeze", reason)
}

func (c *Client) UnfreezeUser(ctx context.Context, userID string) error {
	return c.userAction(ctx, userID, "unfreeze", "")
}

func (c *Client) userAction(ctx context.Context, userID, action, reason string) error {
	path := fmt.Sprintf("/admin/users/%s/%s", url.PathEscape(userID), action)
	if reason == "" {
		return c.Send(ctx, http.MethodPut, path, nil, nil, nil)
	}
	return c.Send(ctx, http.MethodPut, path, reasonQuery(reason), &reasonBody{Reason: reason}, nil)
}

func (c *Client) PendingDeposits(ctx context.Context) ([]models.Deposit, error) {
	return c.pending(ctx, models.KindDeposit)
}

func (c *Client) PendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return c.pending(ctx, models.KindWithdrawal)
}

func (c *Client) pending(ctx context.Context, kind models.PaymentKind) ([]models.PaymentRecord, error) {
	coll, err := collection(kind)
	if err != nil {
		return nil, err
	}

	var records []models.PaymentRecord
	if err := c.Send(ctx, http.MethodGet, "/admin/"+coll+"/pending", nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Approve moves a pending deposit or withdrawal to approved.
func (c *Client) Approve(ctx context.Context, kind models.PaymentKind, id string) error {
	coll, err := collection(kind)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/admin/%s/%s/approve", coll, url.PathEscape(id))
	return c.Send(ctx, http.MethodPut, path, nil, nil, nil)
}

// Reject sends the reason both as a query parameter and in the body.
func (c *Client) Reject(ctx context.Context, kind models.PaymentKind, id, reason string) error {
	coll, err := collection(kind)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/admin/%s/%s/reject", coll, url.PathEscape(id))
	return c.Send(ctx, http.MethodPut, path, reasonQuery(reason), &reasonBody{Reason: reason}, nil)
}

func (c *Client) Settings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := c.Send(ctx, http.MethodGet, "/admin/settings", nil, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) UpdateSettings(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	var saved models.Settings
	if err := c.Send(ctx, http.MethodPut, "/admin/settings", nil, settings, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func collection(kind models.PaymentKind) (string, error) {
	switch kind {
	case models.KindDeposit:
		return "deposits", nil
	case models.KindWithdrawal:
		return "withdrawals", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func reasonQuery(reason string) url.Values {
	q := url.Values{}
	q.Set("reason", reason)
	return q
}

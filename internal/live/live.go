// Package live subscribes to the platform's websocket and turns balance events
// into refresh triggers. Pushed numbers are never applied directly.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"casino-client/internal/api"
	"casino-client/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var ErrNoToken = errors.New("live updates need an authenticated session")

// Handler is called for every event that may have changed balances.
type Handler func(ctx context.Context, msg models.LiveMessage)

type Listener struct {
	endpoint string
	tokens   api.TokenSource
	dialer   *websocket.Dialer
	logger   *zap.Logger

	writeMu   sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once
}

// New derives the websocket endpoint from the client's base URL.
func New(client *api.Client, tokens api.TokenSource, logger *zap.Logger) (*Listener, error) {
	endpoint, err := url.Parse(client.BaseURL() + "/ws")
	if err != nil {
		return nil, fmt.Errorf("failed to parse websocket url: %w", err)
	}
	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	default:
		endpoint.Scheme = "ws"
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Listener{
		endpoint: endpoint.String(),
		tokens:   tokens,
		dialer:   websocket.DefaultDialer,
		logger:   logger,
		ready:    make(chan struct{}),
	}, nil
}

// Run holds the connection until ctx is done or the server goes away.
// It returns nil when ctx ended the subscription.
func (l *Listener) Run(ctx context.Context, handle Handler) error {
	token := l.tokens.Token()
	if token == "" {
		return ErrNoToken
	}

	// browsers cannot set headers on the upgrade, so the platform takes ?token=
	endpoint := l.endpoint + "?token=" + url.QueryEscape(token)
	conn, _, err := l.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to live updates: %w", err)
	}
	defer conn.Close()

	l.logger.Info("live updates connected", zap.String("endpoint", l.endpoint))

	if err := l.write(conn, &models.LiveMessage{Type: models.EventPing}); err != nil {
		return fmt.Errorf("failed to ping live updates: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go l.keepalive(ctx, conn, done)

	for {
		var msg models.LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("live updates closed: %w", err)
		}

		switch {
		case msg.Type == models.EventPong:
			l.readyOnce.Do(func() { close(l.ready) })
		case msg.Refreshes():
			l.logger.Debug("live event", zap.String("type", msg.Type))
			handle(ctx, msg)
		default:
			l.logger.Debug("ignoring live event", zap.String("type", msg.Type))
		}
	}
}

// Ready is closed once the server has answered the first PING, after which
// the subscription is registered and no event is missed.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// keepalive sends PING frames and closes the connection once ctx ends so the
// read loop unblocks.
func (l *Listener) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.write(conn, &models.LiveMessage{Type: models.EventPing}); err != nil {
				l.logger.Debug("live ping failed", zap.Error(err))
				return
			}
		case <-ctx.Done():
			l.writeMu.Lock()
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			l.writeMu.Unlock()
			conn.Close()
			return
		case <-done:
			return
		}
	}
}

// write serializes frames; a connection supports one concurrent writer.
func (l *Listener) write(conn *websocket.Conn, msg *models.LiveMessage) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

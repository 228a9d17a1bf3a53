package sandbox

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"casino-client/internal/models"
)

const (
	MessageBalanceUpdate    = models.EventBalanceUpdate
	MessageDepositUpdate    = models.EventDepositUpdate
	MessageWithdrawalUpdate = models.EventWithdrawalUpdate
	MessageGameSettled      = models.EventGameSettled
	MessagePing             = models.EventPing
	MessagePong             = models.EventPong

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans platform events out to the websocket connections of each user.
type Hub struct {
	clients    map[string]map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan *Message
	done       chan struct{}
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	hub := &Hub{
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *Message, 100),
		done:       make(chan struct{}),
		logger:     logger,
	}

	go hub.run()

	return hub
}

func (hub *Hub) run() {
	for {
		select {
		case c := <-hub.register:
			if hub.clients[c.userID] == nil {
				hub.clients[c.userID] = make(map[*client]struct{})
			}
			hub.clients[c.userID][c] = struct{}{}
			hub.logger.Debug("client registered", zap.String("user_id", c.userID))

		case c := <-hub.unregister:
			if conns, ok := hub.clients[c.userID]; ok {
				if _, ok := conns[c]; ok {
					delete(conns, c)
					close(c.send)
				}
				if len(conns) == 0 {
					delete(hub.clients, c.userID)
				}
				hub.logger.Debug("client unregistered", zap.String("user_id", c.userID))
			}

		case msg := <-hub.broadcast:
			hub.deliver(msg)

		case <-hub.done:
			for _, conns := range hub.clients {
				for c := range conns {
					c.conn.Close()
				}
			}
			hub.clients = nil
			return
		}
	}
}

func (hub *Hub) deliver(msg *Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		hub.logger.Warn("failed to marshal message", zap.Error(err))
		return
	}

	for userID, conns := range hub.clients {
		if msg.UserID != "" && msg.UserID != userID {
			continue
		}
		for c := range conns {
			select {
			case c.send <- payload:
			default:
			}
		}
	}
}

// Publish queues msg; it never blocks the caller.
func (hub *Hub) Publish(msg *Message) {
	select {
	case hub.broadcast <- msg:
	case <-hub.done:
	default:
		hub.logger.Warn("broadcast queue full, dropping message", zap.String("type", msg.Type))
	}
}

func (hub *Hub) Close() {
	select {
	case <-hub.done:
	default:
		close(hub.done)
	}
}

func (hub *Hub) serve(c *gin.Context, userID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	cl := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 16),
	}

	select {
	case hub.register <- cl:
	case <-hub.done:
		conn.Close()
		return
	}

	go cl.writePump(hub)
	cl.readPump(hub)
}

func (c *client) readPump(hub *Hub) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		if msg.Type == MessagePing {
			pong, _ := json.Marshal(&Message{Type: MessagePong, Data: gin.H{"timestamp": time.Now().Unix()}})
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

func (c *client) writePump(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-hub.done:
			return
		}
	}
}

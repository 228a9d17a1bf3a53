package sandbox

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"casino-client/internal/auth"
	"casino-client/internal/models"
)

const headerIdempotencyKey = "Idempotency-Key"

var errEmailTaken = errors.New("email already registered")

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				fail(c, http.StatusUnauthorized, "Invalid authorization format")
				return
			}
			tokenString = parts[1]
		} else {
			// browsers cannot set headers on websocket upgrades
			tokenString = c.Query("token")
			if tokenString == "" {
				fail(c, http.StatusUnauthorized, "Not authenticated")
				return
			}
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, tokenString)
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		s.store.mu.Lock()
		a, ok := s.store.accounts[claims.UserID]
		active := ok && a.IsActive
		s.store.mu.Unlock()

		if !ok {
			fail(c, http.StatusUnauthorized, "User not found")
			return
		}
		if !active {
			fail(c, http.StatusForbidden, "Account is suspended")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != string(models.RoleAdmin) {
			fail(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

type idempotentResponse struct {
	created     time.Time
	done        chan struct{}
	status      int
	contentType string
	body        []byte
}

type idempotencyCache struct {
	mu      sync.Mutex
	entries map[string]*idempotentResponse
}

func newIdempotencyCache() *idempotencyCache {
	return &idempotencyCache{entries: make(map[string]*idempotentResponse)}
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// idempotent replays the first response for a repeated Idempotency-Key from the
// same user on the same route. Server errors are not cached.
func (s *Server) idempotent() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(headerIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		scoped := c.GetString("user_id") + "|" + c.FullPath() + "|" + key

		s.idem.mu.Lock()
		if prev, ok := s.idem.entries[scoped]; ok {
			s.idem.mu.Unlock()
			<-prev.done
			c.Header("Idempotent-Replayed", "true")
			c.Data(prev.status, prev.contentType, prev.body)
			c.Abort()
			return
		}
		entry := &idempotentResponse{created: s.now(), done: make(chan struct{})}
		s.idem.entries[scoped] = entry
		s.idem.mu.Unlock()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		entry.status = w.Status()
		entry.contentType = w.Header().Get("Content-Type")
		entry.body = w.buf.Bytes()

		if entry.status >= http.StatusInternalServerError {
			s.idem.mu.Lock()
			delete(s.idem.entries, scoped)
			s.idem.mu.Unlock()
		}
		close(entry.done)
	}
}

// PruneIdempotencyKeys forgets finished responses older than maxAge and
// reports how many were dropped.
func (s *Server) PruneIdempotencyKeys(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.idem.mu.Lock()
	defer s.idem.mu.Unlock()

	pruned := 0
	for key, entry := range s.idem.entries {
		select {
		case <-entry.done:
		default:
			continue
		}
		if !entry.created.After(cutoff) {
			delete(s.idem.entries, key)
			pruned++
		}
	}
	return pruned
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}

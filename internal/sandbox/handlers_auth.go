package sandbox

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"casino-client/internal/auth"
	"casino-client/internal/models"
)

func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if !strings.Contains(req.Email, "@") {
		fail(c, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	a, err := s.createAccount(req.Email, req.Phone, req.Password, req.FullName, models.RoleUser)
	if errors.Is(err, errEmailTaken) {
		fail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.respondWithToken(c, a)
}

func (s *Server) login(c *gin.Context) {
	a, ok := s.authenticate(c)
	if !ok {
		return
	}
	s.respondWithToken(c, a)
}

func (s *Server) adminLogin(c *gin.Context) {
	a, ok := s.authenticate(c)
	if !ok {
		return
	}
	if a.Role != models.RoleAdmin {
		fail(c, http.StatusForbidden, "Admin access required")
		return
	}
	s.respondWithToken(c, a)
}

func (s *Server) authenticate(c *gin.Context) (*account, bool) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return nil, false
	}

	s.store.mu.Lock()
	a := s.store.accountByEmail(req.Email)
	var (
		hash   []byte
		active bool
	)
	if a != nil {
		hash, active = a.PasswordHash, a.IsActive
	}
	s.store.mu.Unlock()

	if a == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return nil, false
	}
	if !active {
		fail(c, http.StatusForbidden, "Account is suspended")
		return nil, false
	}

	return a, true
}

func (s *Server) respondWithToken(c *gin.Context, a *account) {
	s.store.mu.Lock()
	user := a.User
	s.store.mu.Unlock()

	token, err := auth.IssueToken(s.cfg.JWTSecret, user.ID, user.Email, string(user.Role), s.cfg.TokenTTL)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

package sandbox

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-client/internal/models"
)

func (s *Server) dashboard(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c.JSON(http.StatusOK, s.store.dashboard(s.now().UTC()))
}

func (s *Server) getSettings(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c.JSON(http.StatusOK, s.store.settings)
}

func (s *Server) updateSettings(c *gin.Context) {
	var req models.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	switch {
	case req.DepositMin <= 0 || req.DepositMin > req.DepositMax:
		fail(c, http.StatusBadRequest, "Invalid deposit limits")
		return
	case req.WithdrawMin <= 0 || req.WithdrawMin > req.WithdrawMax:
		fail(c, http.StatusBadRequest, "Invalid withdrawal limits")
		return
	case req.CrashMinBet <= 0 || req.CrashMinBet > req.CrashMaxBet:
		fail(c, http.StatusBadRequest, "Invalid crash bet limits")
		return
	case req.DailyBetLimit <= 0:
		fail(c, http.StatusBadRequest, "Invalid daily bet limit")
		return
	case req.CrashHouseEdge < 0 || req.CrashHouseEdge >= 1:
		fail(c, http.StatusBadRequest, "House edge must be between 0 and 1")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	s.store.settings = req
	c.JSON(http.StatusOK, s.store.settings)
}

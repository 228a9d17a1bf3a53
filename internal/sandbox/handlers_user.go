package sandbox

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"casino-client/internal/models"
)

// currentAccount loads the caller's account. Callers hold s.store.mu.
func (s *Server) currentAccount(c *gin.Context) (*account, bool) {
	a, ok := s.store.accounts[c.GetString("user_id")]
	if !ok {
		fail(c, http.StatusNotFound, "User not found")
	}
	return a, ok
}

func (s *Server) profile(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.User)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.currentAccount(c)
	if !ok {
		return
	}
	if req.FullName != "" {
		a.FullName = req.FullName
	}
	if req.Phone != "" {
		a.Phone = req.Phone
	}
	c.JSON(http.StatusOK, a.User)
}

func (s *Server) balance(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.balance(s.cfg.Currency))
}

func (s *Server) transactions(c *gin.Context) {
	limit := queryLimit(c, 50)
	userID := c.GetString("user_id")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []models.Transaction{}
	for i := len(s.store.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if tx := s.store.transactions[i]; tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) bets(c *gin.Context) {
	limit := queryLimit(c, 50)
	userID := c.GetString("user_id")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []models.Bet{}
	for i := len(s.store.bets) - 1; i >= 0 && len(out) < limit; i-- {
		if b := s.store.bets[i]; b.UserID == userID {
			out = append(out, *b)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) stats(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.UserStats{
		TotalDeposits:    a.TotalDeposits,
		TotalWithdrawals: a.TotalWithdrawals,
		TotalBets:        a.TotalBets,
		TotalWins:        a.TotalWins,
		NetProfit:        models.RoundMoney(a.TotalWins - a.TotalBets),
		BetsCount:        a.BetsCount,
		VIPLevel:         a.VIPLevel,
	})
}

func (s *Server) wageringStatus(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c.JSON(http.StatusOK, s.store.wageringStatus(c.GetString("user_id")))
}

func (s *Server) listUsers(c *gin.Context) {
	limit := queryLimit(c, 50)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	users := make([]models.User, 0, len(s.store.accounts))
	for _, a := range s.store.accounts {
		users = append(users, a.User)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) suspendUser(c *gin.Context) {
	s.updateUser(c, "User suspended", func(a *account) {
		a.IsActive = false
	})
}

func (s *Server) activateUser(c *gin.Context) {
	s.updateUser(c, "User activated", func(a *account) {
		a.IsActive = true
	})
}

func (s *Server) freezeUser(c *gin.Context) {
	reason := reasonFrom(c)
	if reason == "" {
		reason = "Frozen by admin"
	}
	s.updateUser(c, "User frozen", func(a *account) {
		a.IsFrozen = true
		a.FrozenReason = reason
	})
}

func (s *Server) unfreezeUser(c *gin.Context) {
	s.updateUser(c, "User unfrozen", func(a *account) {
		a.IsFrozen = false
		a.FrozenReason = ""
	})
}

func (s *Server) updateUser(c *gin.Context, message string, apply func(a *account)) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.store.accounts[c.Param("id")]
	if !ok {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	apply(a)
	c.JSON(http.StatusOK, gin.H{"message": message})
}

package sandbox

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"casino-client/internal/models"
)

func (s *Server) createDeposit(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.JazzCashNumber) == "" {
		fail(c, http.StatusBadRequest, "JazzCash number is required")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	settings := s.store.settings
	if req.Amount < settings.DepositMin {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Minimum deposit amount is %s", models.FormatCurrency(s.cfg.Currency, settings.DepositMin)))
		return
	}
	if req.Amount > settings.DepositMax {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Maximum deposit amount is %s", models.FormatCurrency(s.cfg.Currency, settings.DepositMax)))
		return
	}

	a, ok := s.currentAccount(c)
	if !ok {
		return
	}

	d := &models.PaymentRecord{
		ID:             uuid.NewString(),
		UserID:         a.ID,
		Amount:         req.Amount,
		JazzCashNumber: strings.TrimSpace(req.JazzCashNumber),
		Status:         models.StatusPending,
		CreatedAt:      s.store.stamp(),
	}
	s.store.deposits[d.ID] = d

	c.JSON(http.StatusOK, models.CreatePaymentResponse{
		Message:   "Deposit request submitted successfully",
		DepositID: d.ID,
		Status:    models.StatusPending,
	})
}

func (s *Server) createWithdrawal(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.JazzCashNumber) == "" {
		fail(c, http.StatusBadRequest, "JazzCash number is required")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	a, ok := s.currentAccount(c)
	if !ok {
		return
	}

	settings := s.store.settings
	switch {
	case a.KYCStatus != models.KYCApproved:
		fail(c, http.StatusBadRequest, "KYC verification required before withdrawal")
		return
	case a.IsFrozen:
		fail(c, http.StatusForbidden, "Account is frozen. Contact support.")
		return
	case s.store.wageringStatus(a.ID).HasActiveWagering:
		fail(c, http.StatusBadRequest, "Complete wagering requirements before withdrawal")
		return
	case a.WalletBalance < req.Amount:
		fail(c, http.StatusBadRequest, "Insufficient balance")
		return
	case req.Amount < settings.WithdrawMin:
		fail(c, http.StatusBadRequest, fmt.Sprintf("Minimum withdrawal amount is %s", models.FormatCurrency(s.cfg.Currency, settings.WithdrawMin)))
		return
	case req.Amount > settings.WithdrawMax:
		fail(c, http.StatusBadRequest, fmt.Sprintf("Maximum withdrawal amount is %s", models.FormatCurrency(s.cfg.Currency, settings.WithdrawMax)))
		return
	}

	// funds stay locked until an admin decides
	a.WalletBalance = models.RoundMoney(a.WalletBalance - req.Amount)
	a.LockedBalance = models.RoundMoney(a.LockedBalance + req.Amount)

	w := &models.PaymentRecord{
		ID:             uuid.NewString(),
		UserID:         a.ID,
		Amount:         req.Amount,
		JazzCashNumber: strings.TrimSpace(req.JazzCashNumber),
		Status:         models.StatusPending,
		CreatedAt:      s.store.stamp(),
	}
	s.store.withdrawals[w.ID] = w

	s.notifyBalance(a.ID, MessageBalanceUpdate)

	c.JSON(http.StatusOK, models.CreatePaymentResponse{
		Message:      "Withdrawal request submitted successfully",
		WithdrawalID: w.ID,
		Status:       models.StatusPending,
	})
}

func (s *Server) listDeposits(c *gin.Context) {
	s.listPayments(c, models.KindDeposit)
}

func (s *Server) listWithdrawals(c *gin.Context) {
	s.listPayments(c, models.KindWithdrawal)
}

func (s *Server) listPayments(c *gin.Context, kind models.PaymentKind) {
	limit := queryLimit(c, 50)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c.JSON(http.StatusOK, s.store.paymentsFor(kind, c.GetString("user_id"), limit))
}

func (s *Server) pendingDeposits(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c.JSON(http.StatusOK, s.store.pending(models.KindDeposit))
}

func (s *Server) pendingWithdrawals(c *gin.Context) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c.JSON(http.StatusOK, s.store.pending(models.KindWithdrawal))
}

func (s *Server) approveDeposit(c *gin.Context) {
	s.decide(c, models.KindDeposit, models.StatusApproved, "")
}

func (s *Server) rejectDeposit(c *gin.Context) {
	s.decide(c, models.KindDeposit, models.StatusRejected, reasonFrom(c))
}

func (s *Server) approveWithdrawal(c *gin.Context) {
	s.decide(c, models.KindWithdrawal, models.StatusApproved, "")
}

func (s *Server) rejectWithdrawal(c *gin.Context) {
	s.decide(c, models.KindWithdrawal, models.StatusRejected, reasonFrom(c))
}

// decide moves a pending request to a terminal state and applies its balance effect.
func (s *Server) decide(c *gin.Context, kind models.PaymentKind, to models.RequestStatus, reason string) {
	label := "Deposit"
	if kind == models.KindWithdrawal {
		label = "Withdrawal"
	}

	if to == models.StatusRejected && reason == "" {
		fail(c, http.StatusBadRequest, "Rejection reason is required")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r, ok := s.store.records(kind)[c.Param("id")]
	if !ok || r.Status.Terminal() {
		fail(c, http.StatusNotFound, label+" not found or already processed")
		return
	}
	a, ok := s.store.accounts[r.UserID]
	if !ok {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	now := s.now().UTC()
	switch {
	case kind == models.KindDeposit && to == models.StatusApproved:
		before := a.WalletBalance
		a.WalletBalance = models.RoundMoney(a.WalletBalance + r.Amount)
		a.TotalDeposits = models.RoundMoney(a.TotalDeposits + r.Amount)
		s.store.addTransaction(a.ID, models.TransactionTypeDeposit, r.Amount, before, a.WalletBalance, "JazzCash deposit")
		s.addDepositWagering(a.ID, r, now)

	case kind == models.KindWithdrawal && to == models.StatusApproved:
		if a.LockedBalance < r.Amount {
			fail(c, http.StatusBadRequest, "User does not have enough locked funds")
			return
		}
		a.LockedBalance = models.RoundMoney(a.LockedBalance - r.Amount)
		a.TotalWithdrawals = models.RoundMoney(a.TotalWithdrawals + r.Amount)
		s.store.addTransaction(a.ID, models.TransactionTypeWithdrawal, r.Amount, a.WalletBalance+r.Amount, a.WalletBalance, "JazzCash withdrawal")

	case kind == models.KindWithdrawal && to == models.StatusRejected:
		a.LockedBalance = models.RoundMoney(a.LockedBalance - r.Amount)
		a.WalletBalance = models.RoundMoney(a.WalletBalance + r.Amount)
	}

	r.Status = to
	if to == models.StatusApproved {
		r.ApprovedAt = &now
		r.ApprovedBy = c.GetString("user_id")
	} else {
		r.RejectionReason = reason
	}

	update := MessageDepositUpdate
	if kind == models.KindWithdrawal {
		update = MessageWithdrawalUpdate
	}
	s.notifyBalance(a.ID, update, MessageBalanceUpdate)

	s.logger.Sugar().Infof("%s %s %s", label, r.ID, to)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s %s", label, to)})
}

func (s *Server) addDepositWagering(userID string, d *models.PaymentRecord, now time.Time) {
	mult := s.cfg.DepositWageringMultiplier
	if mult <= 0 {
		return
	}
	s.store.wagering[userID] = append(s.store.wagering[userID], &models.WageringRecord{
		ID:              uuid.NewString(),
		Source:          "deposit",
		SourceID:        d.ID,
		PrincipalAmount: d.Amount,
		Multiplier:      mult,
		TargetAmount:    models.RoundMoney(d.Amount * mult),
		Status:          "active",
		CreatedAt:       now,
	})
}

// reasonFrom reads ?reason= first and falls back to a {"reason": ...} body.
func reasonFrom(c *gin.Context) string {
	if reason := strings.TrimSpace(c.Query("reason")); reason != "" {
		return reason
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&body)
	}
	return strings.TrimSpace(body.Reason)
}

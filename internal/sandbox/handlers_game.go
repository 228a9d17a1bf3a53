package sandbox

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"casino-client/internal/fairness"
	"casino-client/internal/models"
)

func (s *Server) gameSettings(c *gin.Context) {
	s.store.mu.Lock()
	settings := s.store.settings
	s.store.mu.Unlock()

	c.JSON(http.StatusOK, models.GameSettings{
		Currency:       s.cfg.Currency,
		CrashHouseEdge: settings.CrashHouseEdge,
		CrashMinBet:    settings.CrashMinBet,
		CrashMaxBet:    settings.CrashMaxBet,
		CrashEnabled:   settings.CrashEnabled,
	})
}

func (s *Server) crashFairness(c *gin.Context) {
	s.store.mu.Lock()
	edge := s.store.settings.CrashHouseEdge
	s.store.mu.Unlock()

	c.JSON(http.StatusOK, models.FairnessInfo{
		Algorithm:      fairness.Algorithm,
		HouseEdge:      edge,
		VerifyEndpoint: "/api/games/crash/verify",
	})
}

func (s *Server) crashVerify(c *gin.Context) {
	serverSeed := c.Query("server_seed")
	clientSeed := c.Query("client_seed")
	nonce, err := strconv.ParseInt(c.Query("nonce"), 10, 64)
	if serverSeed == "" || clientSeed == "" || err != nil {
		fail(c, http.StatusUnprocessableEntity, "server_seed, client_seed and nonce are required")
		return
	}

	s.store.mu.Lock()
	edge := s.store.settings.CrashHouseEdge
	s.store.mu.Unlock()

	c.JSON(http.StatusOK, models.VerifyResult{
		ServerSeedHash: fairness.HashServerSeed(serverSeed),
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		CrashPoint:     fairness.CrashPoint(serverSeed, clientSeed, nonce, edge),
	})
}

// placeCrashBet settles a single-round crash bet immediately.
func (s *Server) placeCrashBet(c *gin.Context) {
	var req models.CrashBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if req.Amount <= 0 {
		fail(c, http.StatusBadRequest, "Invalid bet amount")
		return
	}
	if req.CashoutMultiplier < models.MinCashoutMultiplier || req.CashoutMultiplier > models.MaxCashoutMultiplier {
		fail(c, http.StatusBadRequest, "Invalid cashout multiplier")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	settings := s.store.settings
	if !settings.CrashEnabled {
		fail(c, http.StatusBadRequest, "Crash game is currently disabled")
		return
	}
	if req.Amount < settings.CrashMinBet {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Minimum bet is %s", models.FormatCurrency(s.cfg.Currency, settings.CrashMinBet)))
		return
	}
	if req.Amount > settings.CrashMaxBet {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Maximum bet is %s", models.FormatCurrency(s.cfg.Currency, settings.CrashMaxBet)))
		return
	}

	a, ok := s.currentAccount(c)
	if !ok {
		return
	}
	if a.IsFrozen {
		fail(c, http.StatusForbidden, "Account is frozen. Contact support.")
		return
	}

	now := s.now().UTC()
	if s.store.dailyBetTotal(a.ID, now)+req.Amount > settings.DailyBetLimit {
		fail(c, http.StatusBadRequest, "Daily betting limit reached")
		return
	}
	if a.WalletBalance < req.Amount {
		fail(c, http.StatusBadRequest, "Insufficient balance")
		return
	}

	clientSeed := req.ClientSeed
	if clientSeed == "" {
		clientSeed = a.ID
	}
	nonce := req.Nonce
	if nonce <= 0 {
		nonce = 1
	}

	serverSeed, err := s.serverSeed(clientSeed, nonce)
	if err != nil {
		s.logger.Error("failed to generate server seed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to start round")
		return
	}

	crashPoint := fairness.CrashPoint(serverSeed, clientSeed, nonce, settings.CrashHouseEdge)
	won := req.CashoutMultiplier <= crashPoint

	var payout float64
	status := models.BetLost
	if won {
		payout = models.RoundMoney(req.Amount * req.CashoutMultiplier)
		status = models.BetWon
	}

	before := a.WalletBalance
	a.WalletBalance = models.RoundMoney(a.WalletBalance - req.Amount)
	a.TotalBets = models.RoundMoney(a.TotalBets + req.Amount)
	a.BetsCount++
	s.store.addTransaction(a.ID, models.TransactionTypeBet, req.Amount, before, a.WalletBalance, "Crash bet")
	s.store.applyWagering(a.ID, req.Amount)

	if won {
		before = a.WalletBalance
		a.WalletBalance = models.RoundMoney(a.WalletBalance + payout)
		a.TotalWins = models.RoundMoney(a.TotalWins + payout)
		s.store.addTransaction(a.ID, models.TransactionTypeWin, payout, before, a.WalletBalance, "Crash win")
	}

	bet := &models.Bet{
		ID:        uuid.NewString(),
		UserID:    a.ID,
		GameID:    "crash",
		GameName:  "Crash",
		BetAmount: req.Amount,
		Payout:    payout,
		Status:    status,
		CreatedAt: now,
	}
	if won {
		bet.Multiplier = req.CashoutMultiplier
	}
	s.store.bets = append(s.store.bets, bet)

	s.notifyBalance(a.ID, MessageGameSettled, MessageBalanceUpdate)

	c.JSON(http.StatusOK, models.CrashSettlement{
		BetID:             bet.ID,
		Status:            status,
		Amount:            req.Amount,
		CashoutMultiplier: req.CashoutMultiplier,
		CrashPoint:        crashPoint,
		Payout:            payout,
		Currency:          s.cfg.Currency,
		ProvablyFair: models.ProvablyFair{
			ServerSeedHash: fairness.HashServerSeed(serverSeed),
			ServerSeed:     serverSeed,
			ClientSeed:     clientSeed,
			Nonce:          nonce,
			Verify:         fairness.VerifyURL(serverSeed, clientSeed, nonce),
		},
		Balances: models.RoundBalances{
			AvailableBalance: a.WalletBalance,
			LockedBalance:    a.LockedBalance,
		},
	})
}

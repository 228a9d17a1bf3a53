package sandbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"casino-client/internal/config"
	"casino-client/internal/fairness"
	"casino-client/internal/models"
)

// Server is an in-memory rendition of the remote platform: every endpoint the
// client talks to, with the same validation rules and error bodies.
type Server struct {
	cfg    *config.SandboxConfig
	store  *Store
	hub    *Hub
	logger *zap.Logger

	passwordCost int
	serverSeed   SeedFunc
	idem         *idempotencyCache
	now          func() time.Time
}

// SeedFunc picks the server seed of a new crash round.
type SeedFunc func(clientSeed string, nonce int64) (string, error)

type Option func(*Server)

// WithPasswordCost lowers bcrypt cost, mostly for tests.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.passwordCost = cost }
}

// WithoutDepositWagering stops deposit approvals from creating wagering targets.
func WithoutDepositWagering() Option {
	return func(s *Server) { s.cfg.DepositWageringMultiplier = 0 }
}

func WithServerSeeds(fn SeedFunc) Option {
	return func(s *Server) { s.serverSeed = fn }
}

func New(cfg *config.SandboxConfig, logger *zap.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:          cfg,
		store:        NewStore(),
		hub:          NewHub(logger),
		logger:       logger,
		passwordCost: bcrypt.DefaultCost,
		serverSeed: func(string, int64) (string, error) {
			return fairness.NewServerSeed()
		},
		idem: newIdempotencyCache(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.createAccount(cfg.AdminEmail, "", cfg.AdminPassword, "Administrator", models.RoleAdmin); err != nil {
		s.hub.Close()
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	return s, nil
}

func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) Router() *gin.Engine {
	if s.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.POST("/admin/login", s.adminLogin)
	}

	public := api.Group("/games")
	{
		public.GET("/settings", s.gameSettings)
		public.GET("/crash/fairness", s.crashFairness)
		public.GET("/crash/verify", s.crashVerify)
	}

	protected := api.Group("")
	protected.Use(s.authMiddleware())
	{
		protected.GET("/ws", s.websocket)

		user := protected.Group("/user")
		{
			user.GET("/profile", s.profile)
			user.PUT("/profile", s.updateProfile)
			user.GET("/wallet/balance", s.balance)
			user.GET("/transactions", s.transactions)
			user.GET("/bets", s.bets)
			user.GET("/stats", s.stats)
		}

		protected.GET("/wagering/status", s.wageringStatus)

		payment := protected.Group("/payment")
		{
			payment.POST("/deposit", s.idempotent(), s.createDeposit)
			payment.GET("/deposits", s.listDeposits)
			payment.POST("/withdrawal", s.idempotent(), s.createWithdrawal)
			payment.GET("/withdrawals", s.listWithdrawals)
		}

		protected.POST("/games/crash/bet", s.idempotent(), s.placeCrashBet)

		admin := protected.Group("/admin")
		admin.Use(s.adminMiddleware())
		{
			admin.GET("/stats/dashboard", s.dashboard)
			admin.GET("/users", s.listUsers)
			admin.PUT("/users/:id/suspend", s.suspendUser)
			admin.PUT("/users/:id/activate", s.activateUser)
			admin.PUT("/users/:id/freeze", s.freezeUser)
			admin.PUT("/users/:id/unfreeze", s.unfreezeUser)

			admin.GET("/deposits/pending", s.pendingDeposits)
			admin.PUT("/deposits/:id/approve", s.approveDeposit)
			admin.PUT("/deposits/:id/reject", s.rejectDeposit)
			admin.GET("/withdrawals/pending", s.pendingWithdrawals)
			admin.PUT("/withdrawals/:id/approve", s.approveWithdrawal)
			admin.PUT("/withdrawals/:id/reject", s.rejectWithdrawal)

			admin.GET("/settings", s.getSettings)
			admin.PUT("/settings", s.updateSettings)
		}
	}

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) websocket(c *gin.Context) {
	s.hub.serve(c, c.GetString("user_id"))
}

func (s *Server) notifyBalance(userID string, types ...string) {
	for _, t := range types {
		s.hub.Publish(&Message{Type: t, UserID: userID})
	}
}

// fail writes the platform's error body.
func fail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func (s *Server) createAccount(email, phone, password, fullName string, role models.Role) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	kyc := models.KYCNotSubmitted
	if s.cfg.AutoApproveKYC || role == models.RoleAdmin {
		kyc = models.KYCApproved
	}

	a := &account{
		User: models.User{
			Email:        strings.TrimSpace(email),
			Phone:        phone,
			FullName:     fullName,
			Role:         role,
			IsActive:     true,
			IsVerified:   true,
			KYCStatus:    kyc,
			ReferralCode: strings.ToUpper(randomHex(4)),
		},
		PasswordHash: hash,
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.accountByEmail(email) != nil {
		return nil, errEmailTaken
	}
	s.store.addAccount(a)

	return a, nil
}

func queryLimit(c *gin.Context, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(c.Query("limit"), "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

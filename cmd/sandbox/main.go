package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"casino-client/internal/config"
	"casino-client/internal/logger"
	"casino-client/internal/sandbox"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadSandbox()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	srv, err := sandbox.New(cfg, zl)
	if err != nil {
		zl.Fatal("failed to start sandbox", zap.Error(err))
	}
	defer srv.Close()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if n := srv.PruneIdempotencyKeys(24 * time.Hour); n > 0 {
				zl.Debug("pruned idempotency keys", zap.Int("count", n))
			}
		}
	}()

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	zl.Info("sandbox starting", zap.String("port", port), zap.String("admin", cfg.AdminEmail))
	if err := srv.Router().Run(":" + port); err != nil {
		zl.Fatal("failed to start server", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"casino-client/internal/api"
	"casino-client/internal/config"
	"casino-client/internal/logger"
	"casino-client/internal/notify"
	"casino-client/internal/session"
)

const usage = `usage: casinoctl <command> [flags]

player:
  register  login  logout  whoami  profile
  balance  refresh  deposit  withdraw  history  stats
  bet  fairness  verify  watch

admin:
  admin-login  dashboard  approve  reject
  freeze  unfreeze  suspend  activate  settings
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		zl.Fatal("failed to open session store", zap.Error(err))
	}
	defer closeStore()

	client := api.NewFromConfig(cfg, zl)
	nav := session.NavigatorFunc(func() {
		fmt.Fprintln(os.Stderr, "Session expired. Run `casinoctl login` again.")
	})
	sess := session.New(client, store, nav, zl)
	if err := sess.Init(ctx); err != nil {
		zl.Fatal("failed to restore session", zap.Error(err))
	}

	app := &app{
		client:   client,
		session:  sess,
		notifier: notify.NewConsole(os.Stdout, zl),
		logger:   zl,
		out:      os.Stdout,
	}

	cmd, ok := app.commands()[os.Args[1]]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := cmd(ctx, os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		zl.Debug("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (session.TokenStore, func(), error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), func() {}, nil
	case config.StoreRedis:
		store, err := session.NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return session.NewFileStore(cfg.SessionFile), func() {}, nil
	}
}

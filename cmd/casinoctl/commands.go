package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"casino-client/internal/admin"
	"casino-client/internal/api"
	"casino-client/internal/crash"
	"casino-client/internal/live"
	"casino-client/internal/models"
	"casino-client/internal/notify"
	"casino-client/internal/session"
	"casino-client/internal/wallet"
)

var (
	errUsage           = errors.New("usage")
	errWageringUnknown = errors.New("wagering status unavailable")
)

type command func(ctx context.Context, args []string) error

type app struct {
	client   *api.Client
	session  *session.Session
	notifier notify.Notifier
	logger   *zap.Logger
	out      io.Writer
}

func (a *app) commands() map[string]command {
	return map[string]command{
		"register":    a.register,
		"login":       a.login(false),
		"admin-login": a.login(true),
		"logout":      a.logout,
		"whoami":      a.whoami,
		"profile":     a.profile,
		"balance":     a.balance,
		"refresh":     a.refresh,
		"deposit":     a.payment(models.KindDeposit),
		"withdraw":    a.payment(models.KindWithdrawal),
		"history":     a.history,
		"stats":       a.stats,
		"bet":         a.bet,
		"fairness":    a.fairness,
		"verify":      a.verify,
		"watch":       a.watch,
		"dashboard":   a.dashboard,
		"approve":     a.decide(true),
		"reject":      a.decide(false),
		"freeze":      a.freeze,
		"unfreeze":    a.userAction("unfreeze"),
		"suspend":     a.userAction("suspend"),
		"activate":    a.userAction("activate"),
		"settings":    a.settings,
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		a.notifier.Error("Not logged in")
		return session.ErrNotAuthenticated
	}
	return nil
}

func (a *app) requireAdmin() error {
	if err := a.session.RequireAdmin(); err != nil {
		a.notifier.Error("Admin access required")
		return err
	}
	return nil
}

// fail reports a direct client call's error, preferring the server's detail.
func (a *app) fail(err error, fallback string) error {
	a.notifier.Error(api.Message(err, fallback))
	return err
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	var req models.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "account password")
	fs.StringVar(&req.Phone, "phone", "", "mobile number")
	fs.StringVar(&req.FullName, "name", "", "full name")
	fs.StringVar(&req.ReferralCode, "referral", "", "referral code")
	if err := parse(fs, args); err != nil {
		return err
	}

	user, err := a.session.Register(ctx, &req)
	if err != nil {
		return a.fail(err, "Registration failed")
	}
	a.notifier.Success("Welcome, " + user.Email)
	return nil
}

func (a *app) login(asAdmin bool) command {
	return func(ctx context.Context, args []string) error {
		fs := a.flags("login")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := parse(fs, args); err != nil {
			return err
		}

		login := a.session.Login
		if asAdmin {
			login = a.session.AdminLogin
		}
		user, err := login(ctx, *email, *password)
		if err != nil {
			return a.fail(err, "Login failed")
		}
		a.notifier.Success(fmt.Sprintf("Logged in as %s (%s)", user.Email, user.Role))
		return nil
	}
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.notifier.Success("Logged out")
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	return a.print(a.session.User())
}

func (a *app) profile(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	fs := a.flags("profile")
	var update models.ProfileUpdate
	fs.StringVar(&update.FullName, "name", "", "new full name")
	fs.StringVar(&update.Phone, "phone", "", "new mobile number")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		user *models.User
		err  error
	)
	if update == (models.ProfileUpdate{}) {
		user, err = a.session.Profile(ctx)
	} else {
		user, err = a.session.UpdateProfile(ctx, &update)
	}
	if err != nil {
		return a.fail(err, "Failed to load profile")
	}
	return a.print(user)
}

func (a *app) balance(ctx context.Context, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	balance, err := a.client.Balance(ctx)
	if err != nil {
		return a.fail(err, "Failed to load balance")
	}
	return a.print(balance)
}

func (a *app) refresh(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	fs := a.flags("refresh")
	strict := fs.Bool("strict", false, "discard every panel when any read fails")
	if err := parse(fs, args); err != nil {
		return err
	}

	flow := a.wallet(*strict)
	err := flow.RefreshAll(ctx)
	a.printWallet(flow)
	return err
}

func (a *app) wallet(strict bool) *wallet.Flow {
	var opts []wallet.Option
	if strict {
		opts = append(opts, wallet.AllOrNothing())
	}
	return wallet.New(a.client, a.notifier, a.logger, opts...)
}

func (a *app) printWallet(flow *wallet.Flow) {
	snap := flow.Snapshot()
	if snap.Balance != nil {
		fmt.Fprintf(a.out, "Available %s   Locked %s   Total %s\n",
			models.FormatCurrency(snap.Balance.Currency, snap.Balance.AvailableBalance),
			models.FormatCurrency(snap.Balance.Currency, snap.Balance.LockedBalance),
			models.FormatCurrency(snap.Balance.Currency, snap.Balance.TotalBalance))
	}
	if snap.Wagering != nil && snap.Wagering.HasActiveWagering {
		fmt.Fprintf(a.out, "Wagering remaining %s (withdrawals disabled)\n", models.FormatAmount(snap.Wagering.Remaining))
	}
	for _, d := range flow.RecentDeposits() {
		fmt.Fprintf(a.out, "deposit     %s  %-9s %s\n", d.CreatedAt.Format("2006-01-02 15:04"), d.Status, models.FormatAmount(d.Amount))
	}
	for _, w := range flow.RecentWithdrawals() {
		fmt.Fprintf(a.out, "withdrawal  %s  %-9s %s\n", w.CreatedAt.Format("2006-01-02 15:04"), w.Status, models.FormatAmount(w.Amount))
	}
}

func (a *app) payment(kind models.PaymentKind) command {
	return func(ctx context.Context, args []string) error {
		if err := a.requireLogin(); err != nil {
			return err
		}

		fs := a.flags(string(kind))
		amount := fs.String("amount", "", "amount")
		account := fs.String("account", "", "JazzCash number")
		if err := parse(fs, args); err != nil {
			return err
		}

		flow := a.wallet(false)
		if kind == models.KindWithdrawal {
			// only the wagering panel gates the submission; RefreshAll reports other failures
			refreshErr := flow.RefreshAll(ctx)
			if flow.Snapshot().Wagering == nil {
				if refreshErr == nil {
					refreshErr = errWageringUnknown
				}
				return refreshErr
			}
			if !flow.CanSubmitWithdrawal() {
				a.notifier.Error("Complete wagering requirements before withdrawal")
				return wallet.ErrWageringActive
			}
		}

		var err error
		if kind == models.KindWithdrawal {
			_, err = flow.RequestWithdrawal(ctx, *amount, *account)
		} else {
			_, err = flow.RequestDeposit(ctx, *amount, *account)
		}
		switch {
		case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, wallet.ErrAccountRequired):
			a.notifier.Error(capitalize(err.Error()))
			return err
		case err != nil:
			return err
		}

		a.printWallet(flow)
		return nil
	}
}

func (a *app) history(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	fs := a.flags("history")
	kind := fs.String("kind", "transactions", "transactions, bets, deposits or withdrawals")
	limit := fs.Int("limit", 20, "max rows")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		v   any
		err error
	)
	switch *kind {
	case "transactions":
		v, err = a.client.Transactions(ctx, *limit)
	case "bets":
		v, err = a.client.Bets(ctx, *limit)
	case "deposits":
		v, err = a.client.Deposits(ctx, *limit)
	case "withdrawals":
		v, err = a.client.Withdrawals(ctx, *limit)
	default:
		fmt.Fprintf(a.out, "unknown history kind %q\n", *kind)
		return errUsage
	}
	if err != nil {
		return a.fail(err, "Failed to load history")
	}
	return a.print(v)
}

func (a *app) stats(ctx context.Context, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	stats, err := a.client.Stats(ctx)
	if err != nil {
		return a.fail(err, "Failed to load stats")
	}
	return a.print(stats)
}

func (a *app) bet(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	fs := a.flags("bet")
	amount := fs.String("amount", "", "bet amount")
	target := fs.Float64("target", 2, "cashout multiplier, 1.01 to 5.00")
	rounds := fs.Int("rounds", 1, "number of consecutive rounds")
	if err := parse(fs, args); err != nil {
		return err
	}

	game := crash.New(a.client, a.notifier, a.logger)
	hundredths := int(*target*100 + 0.5)

	for i := 0; i < *rounds; i++ {
		round, err := game.PlaceBet(ctx, *amount, hundredths)
		if err != nil {
			return err
		}

		s := round.Settlement
		fmt.Fprintf(a.out, "crash %.2fx  target %.2fx  %s  payout %s\n", s.CrashPoint, s.CashoutMultiplier, s.Status, models.FormatAmount(s.Payout))
		fmt.Fprintf(a.out, "  server seed hash %s\n  server seed      %s\n  client seed      %s  nonce %d\n",
			s.ProvablyFair.ServerSeedHash, s.ProvablyFair.ServerSeed, s.ProvablyFair.ClientSeed, s.ProvablyFair.Nonce)
		if round.Verified {
			fmt.Fprintln(a.out, "  verified locally")
		} else {
			fmt.Fprintf(a.out, "  NOT verified: %s\n", round.Mismatch)
		}
	}

	if b := game.Balance(); b != nil {
		fmt.Fprintf(a.out, "Available %s\n", models.FormatCurrency(b.Currency, b.AvailableBalance))
	}
	return nil
}

func (a *app) fairness(ctx context.Context, _ []string) error {
	info, err := crash.New(a.client, a.notifier, a.logger).Fairness(ctx)
	if err != nil {
		return a.fail(err, "Failed to load fairness info")
	}
	return a.print(info)
}

func (a *app) verify(ctx context.Context, args []string) error {
	fs := a.flags("verify")
	serverSeed := fs.String("server-seed", "", "revealed server seed")
	clientSeed := fs.String("client-seed", "", "client seed")
	nonce := fs.Int64("nonce", 1, "round nonce")
	if err := parse(fs, args); err != nil {
		return err
	}

	result, err := crash.New(a.client, a.notifier, a.logger).Verify(ctx, *serverSeed, *clientSeed, *nonce)
	if err != nil {
		return a.fail(err, "Verification failed")
	}
	return a.print(result)
}

// watch keeps the wallet view fresh from live events until interrupted.
func (a *app) watch(ctx context.Context, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	listener, err := live.New(a.client, a.session, a.logger)
	if err != nil {
		return err
	}

	flow := a.wallet(false)
	if err := flow.RefreshAll(ctx); err == nil {
		a.printWallet(flow)
	}

	return listener.Run(ctx, func(ctx context.Context, msg models.LiveMessage) {
		fmt.Fprintf(a.out, "-- %s\n", msg.Type)
		if err := flow.RefreshAll(ctx); err == nil {
			a.printWallet(flow)
		}
	})
}

func (a *app) dashboard(ctx context.Context, _ []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	console := admin.New(a.client, a.notifier, a.logger)
	loadErr := console.LoadDashboard(ctx)
	dash := console.Dashboard()

	if dash.Stats != nil {
		s := dash.Stats
		fmt.Fprintf(a.out, "Users %d (%d active)   Pending: %d deposits, %d withdrawals, %d KYC\n",
			s.Users.Total, s.Users.Active, s.PendingApprovals.Deposits, s.PendingApprovals.Withdrawals, s.PendingApprovals.KYC)
		fmt.Fprintf(a.out, "Today: deposits %s  withdrawals %s  bets %s (%d)  ratio %s%%\n",
			models.FormatAmount(s.Today.Deposits), models.FormatAmount(s.Today.Withdrawals),
			models.FormatAmount(s.Today.TotalBets), s.Today.BetsCount, models.FormatAmount(s.Today.WinningRatio))
	}
	for _, d := range dash.PendingDeposits {
		fmt.Fprintf(a.out, "deposit     %s  %s  %s\n", d.ID, d.JazzCashNumber, models.FormatAmount(d.Amount))
	}
	for _, w := range dash.PendingWithdrawals {
		fmt.Fprintf(a.out, "withdrawal  %s  %s  %s\n", w.ID, w.JazzCashNumber, models.FormatAmount(w.Amount))
	}
	if st := console.Panel(admin.PanelUsers); st.Err != nil {
		fmt.Fprintln(a.out, "users unavailable")
	}
	for _, u := range dash.Users {
		flags := ""
		if u.IsFrozen {
			flags += " frozen"
		}
		if !u.IsActive {
			flags += " suspended"
		}
		fmt.Fprintf(a.out, "user        %s  %s  %s%s\n", u.ID, u.Email, models.FormatAmount(u.WalletBalance), flags)
	}

	return loadErr
}

func (a *app) decide(approve bool) command {
	return func(ctx context.Context, args []string) error {
		if err := a.requireAdmin(); err != nil {
			return err
		}

		fs := a.flags("decide")
		kind := fs.String("kind", string(models.KindDeposit), "deposit or withdrawal")
		id := fs.String("id", "", "request id")
		reason := fs.String("reason", "", "rejection reason")
		if err := parse(fs, args); err != nil {
			return err
		}

		console := admin.New(a.client, a.notifier, a.logger)
		if approve {
			return console.Approve(ctx, models.PaymentKind(*kind), *id)
		}

		err := console.Reject(ctx, models.PaymentKind(*kind), *id, *reason)
		if errors.Is(err, admin.ErrReasonRequired) {
			a.notifier.Error("Rejection reason is required")
		}
		return err
	}
}

func (a *app) freeze(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	fs := a.flags("freeze")
	id := fs.String("id", "", "user id")
	reason := fs.String("reason", "", "freeze reason")
	if err := parse(fs, args); err != nil {
		return err
	}

	return a.moderate(admin.New(a.client, a.notifier, a.logger).FreezeToggle(ctx, &models.User{ID: *id}, *reason))
}

func (a *app) moderate(err error) error {
	if errors.Is(err, admin.ErrUserRequired) {
		a.notifier.Error("User id is required")
	}
	return err
}

func (a *app) userAction(action string) command {
	return func(ctx context.Context, args []string) error {
		if err := a.requireAdmin(); err != nil {
			return err
		}

		fs := a.flags(action)
		id := fs.String("id", "", "user id")
		if err := parse(fs, args); err != nil {
			return err
		}

		console := admin.New(a.client, a.notifier, a.logger)
		switch action {
		case "unfreeze":
			return a.moderate(console.FreezeToggle(ctx, &models.User{ID: *id, IsFrozen: true}, ""))
		case "suspend":
			return console.Suspend(ctx, *id)
		default:
			return console.Activate(ctx, *id)
		}
	}
}

// settings prints the platform settings, or applies key=value edits.
func (a *app) settings(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	dialog := admin.NewSettingsDialog(a.client, a.notifier, a.logger)
	if err := dialog.Open(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		return a.print(dialog.Draft())
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(a.out, "expected key=value, got %q\n", arg)
			return errUsage
		}
		if err := applySetting(dialog, key, value); err != nil {
			fmt.Fprintln(a.out, err)
			return errUsage
		}
	}

	if !dialog.Dirty() {
		a.notifier.Success("Nothing to change")
		return nil
	}
	if !dialog.CanSave() {
		a.notifier.Error("Settings contain an invalid value")
		return admin.ErrInvalidValue
	}
	_, err := dialog.Save(ctx)
	return err
}

func applySetting(dialog *admin.SettingsDialog, key, value string) error {
	var err error
	dialog.Edit(func(d *admin.Draft) {
		switch key {
		case "deposit_min":
			d.DepositMin = value
		case "deposit_max":
			d.DepositMax = value
		case "withdraw_min":
			d.WithdrawMin = value
		case "withdraw_max":
			d.WithdrawMax = value
		case "daily_bet_limit":
			d.DailyBetLimit = value
		case "crash_min_bet":
			d.CrashMinBet = value
		case "crash_max_bet":
			d.CrashMaxBet = value
		case "house_edge_percent":
			d.HouseEdgePercent = value
		case "crash_enabled":
			var enabled bool
			if enabled, err = strconv.ParseBool(value); err == nil {
				d.CrashEnabled = enabled
			}
		default:
			err = fmt.Errorf("unknown setting %q", key)
		}
	})
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

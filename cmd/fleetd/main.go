package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/auth"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/backoffice"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/httpapi"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/jobs"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/metrics"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/notify"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/report"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagListenAddr      = "listen-addr"
	flagStoreURL        = "store-url"
	flagTimezone        = "timezone"
	flagAllowedOrigins  = "allowed-origins"
	flagTokenSecret     = "token-secret"
	flagTokenTTL        = "token-ttl"
	flagSummarySchedule = "summary-schedule"
	flagRequestTimeout  = "request-timeout"
	envPrefix           = "FLEETD"

	defaultStoreURL = "file://./db"
	defaultTimezone = "Asia/Baku"
	defaultTokenTTL = 12 * time.Hour
)

type runtimeConfig struct {
	HTTP            httpapi.Config
	StoreURL        string
	Timezone        string
	TokenSecret     string
	TokenTTL        time.Duration
	SummarySchedule string
}

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fleetd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	rootCmd := &cobra.Command{
		Use:           "fleetd",
		Short:         "Car rental back-office with a per-day reservation ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String(flagStoreURL, defaultStoreURL, "storage URL: file://<dir>, memory://, sqlite://<path>, postgres://... (gorm) or pgx://... (native pgx pool)")
	rootCmd.PersistentFlags().String(flagTimezone, defaultTimezone, "IANA timezone of the ledger calendar")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the nightly summary",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	serveCmd.Flags().String(flagListenAddr, ":3001", "HTTP listen address")
	serveCmd.Flags().String(flagAllowedOrigins, "*", "comma-separated list of allowed CORS origins")
	serveCmd.Flags().String(flagTokenSecret, "", "HS256 signing key for login tokens; a random key is used when empty")
	serveCmd.Flags().Duration(flagTokenTTL, defaultTokenTTL, "login token lifetime")
	serveCmd.Flags().String(flagSummarySchedule, jobs.DefaultSummarySchedule, "cron schedule of the daily summary, evaluated in the ledger timezone")
	serveCmd.Flags().Duration(flagRequestTimeout, 15*time.Second, "per-request timeout")

	migrateCmd := &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Rewrite legacy reservations into the per-day ledger format",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			upgraded, err := runMigrateLegacy(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "upgraded %d reservations\n", upgraded)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)
	return rootCmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(flagStoreURL, envPrefix+"_STORE_URL", "DATABASE_URL"); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg.StoreURL = strings.TrimSpace(v.GetString(flagStoreURL))
	cfg.Timezone = strings.TrimSpace(v.GetString(flagTimezone))
	cfg.TokenSecret = v.GetString(flagTokenSecret)
	cfg.TokenTTL = v.GetDuration(flagTokenTTL)
	cfg.SummarySchedule = strings.TrimSpace(v.GetString(flagSummarySchedule))
	cfg.HTTP = httpapi.Config{
		ListenAddr:     v.GetString(flagListenAddr),
		AllowedOrigins: httpapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins)),
		RequestTimeout: v.GetDuration(flagRequestTimeout),
	}

	if cfg.StoreURL == "" {
		return fmt.Errorf("%s is required", flagStoreURL)
	}
	if _, err := ledger.NewCalendar(cfg.Timezone); err != nil {
		return fmt.Errorf("%s: %w", flagTimezone, err)
	}
	if cfg.SummarySchedule == "" {
		cfg.SummarySchedule = jobs.DefaultSummarySchedule
	}
	return cfg.HTTP.Validate()
}

func runServe(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	calendar, err := ledger.NewCalendar(cfg.Timezone)
	if err != nil {
		return err
	}
	repository, cleanup, err := openRepository(ctx, cfg.StoreURL, calendar, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serviceMetrics := metrics.New(registry)
	notifier := notify.NewLogNotifier(logger.Named("notify"))

	backofficeService, err := backoffice.NewService(repository, calendar, time.Now,
		backoffice.WithNotifier(notifier),
		backoffice.WithLogger(logger.Named("backoffice")),
	)
	if err != nil {
		return fmt.Errorf("backoffice service init: %w", err)
	}
	ledgerService, err := ledger.NewService(repository, calendar, time.Now,
		ledger.WithOperationLogger(httpapi.NewOperationLogger(logger.Named("ledger"), serviceMetrics)),
		ledger.WithNotifier(backofficeService),
	)
	if err != nil {
		return fmt.Errorf("ledger service init: %w", err)
	}
	reportService, err := report.NewService(repository, calendar, time.Now)
	if err != nil {
		return fmt.Errorf("report service init: %w", err)
	}

	secret := cfg.TokenSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("no token secret configured; login tokens will not survive a restart")
	}
	issuer, err := auth.NewIssuer([]byte(secret), cfg.TokenTTL, time.Now)
	if err != nil {
		return fmt.Errorf("token issuer init: %w", err)
	}
	authService, err := auth.NewService(repository, issuer)
	if err != nil {
		return fmt.Errorf("auth service init: %w", err)
	}

	if changed, err := ledgerService.RefreshCarStatuses(ctx); err != nil {
		logger.Warn("car status refresh failed", zap.Error(err))
	} else if changed > 0 {
		logger.Info("car statuses refreshed", zap.Int("changed", changed))
	}

	summaryJob, err := jobs.NewSummaryJob(reportService, notifier,
		jobs.WithLogger(logger.Named("jobs")),
		jobs.WithMetrics(serviceMetrics),
	)
	if err != nil {
		return fmt.Errorf("summary job init: %w", err)
	}
	scheduler := jobs.NewScheduler(calendar.Location(), time.Minute, logger.Named("scheduler"))
	if err := scheduler.Register(cfg.SummarySchedule, jobs.SummaryJobName, summaryJob.Run); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	return httpapi.Run(ctx, cfg.HTTP, httpapi.Dependencies{
		Ledger:     ledgerService,
		Backoffice: backofficeService,
		Reports:    reportService,
		Auth:       authService,
		Logger:     logger,
		Metrics:    serviceMetrics,
		Gatherer:   registry,
	})
}

func runMigrateLegacy(ctx context.Context, cfg *runtimeConfig) (int, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return 0, fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	calendar, err := ledger.NewCalendar(cfg.Timezone)
	if err != nil {
		return 0, err
	}
	repository, cleanup, err := openRepository(ctx, cfg.StoreURL, calendar, logger)
	if err != nil {
		return 0, err
	}
	defer func() { _ = cleanup() }()

	upgraded, err := repository.UpgradeLegacyReservations(ctx)
	if err != nil {
		return 0, fmt.Errorf("upgrade legacy reservations: %w", err)
	}
	logger.Info("legacy reservations upgraded", zap.Int("count", upgraded), zap.String("store", redactStoreURL(cfg.StoreURL)))
	return upgraded, nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"bankdash/internal/bank"
	"bankdash/internal/bank/httpapi"
	"bankdash/internal/bank/memory"
	"bankdash/internal/cache"
	"bankdash/internal/config"
	"bankdash/internal/core"
	"bankdash/internal/events"
	"bankdash/internal/log"
	"bankdash/internal/query"
	"bankdash/internal/session"
	"bankdash/internal/storage"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting bankdash")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := storage.NewSessionRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open session repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The session store is built in two steps for the http backend: the
	// API client reads the token straight from the store it belongs to.
	var (
		client bank.Client
		auth   session.Authenticator
		sess   *session.Store
	)
	switch cfg.DataBackend {
	case "http":
		api := httpapi.NewClient(cfg.APIBaseURL, httpapi.WithTokenSource(func() string {
			if sess == nil {
				return ""
			}
			return sess.Token()
		}))
		client, auth = api, api
		logger.Info("Initialized http backend", log.FieldBackend, cfg.DataBackend, "base_url", cfg.APIBaseURL)
	default:
		backend := memory.New()
		client, auth = backend, backend
		logger.Info("Initialized memory backend", log.FieldBackend, cfg.DataBackend)
	}

	sess = session.New(ctx, auth, repo, logger)

	var opts []query.Option
	if cfg.AMQPURL != "" {
		publisher, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Transfers still work without the event stream.
			logger.Warn("AMQP unavailable, transfer events disabled", log.FieldError, err)
		} else {
			defer publisher.Close()
			opts = append(opts, query.WithPublisher(publisher))
			logger.Info("Transfer events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	queryCfg := query.DefaultConfig()
	queryCfg.FetchTimeout = cfg.FetchTimeout
	queryCfg.RatesRefreshInterval = cfg.RatesRefreshInterval
	queryCfg.CacheSize = cfg.CacheSize

	svc := query.NewService(queryCfg, client, sess, logger, opts...)
	defer svc.Close()

	manager := cache.NewManager()
	svc.RegisterCaches(manager)
	manager.StartCleanup(cfg.CacheCleanupInterval)
	defer manager.Stop()

	if !sess.Current().IsAuthenticated && cfg.LoginEmail != "" {
		if err := sess.Login(ctx, cfg.LoginEmail, cfg.LoginPassword); err != nil {
			logger.Error("Startup login failed", log.FieldEmail, cfg.LoginEmail, log.FieldError, err)
			os.Exit(1)
		}
	}

	rates := core.DefaultRates()
	if cfg.RatesFile != "" {
		rates, err = core.LoadRateTable(cfg.RatesFile)
		if err != nil {
			logger.Error("Failed to load rate table", log.FieldError, err, "path", cfg.RatesFile)
			os.Exit(1)
		}
	}

	if sess.Current().IsAuthenticated {
		warmCaches(ctx, svc, rates, logger)
	} else {
		logger.Info("No session; set LOGIN_EMAIL and LOGIN_PASSWORD to authenticate at startup")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	logger.Info("Stopped gracefully")
}

// warmCaches primes the dashboard's hottest queries so the first render
// never waits on the network.
func warmCaches(ctx context.Context, svc *query.Service, rates core.RateTable, logger *log.Logger) {
	if accounts, err := svc.Accounts(ctx); err != nil {
		logger.Warn("Failed to warm accounts", log.FieldError, err)
	} else {
		// Mixed-currency portfolios are normalized to rubles for the
		// headline figure.
		total := decimal.Zero
		for _, a := range core.GetActiveAccounts(accounts) {
			total = total.Add(rates.Convert(a.Currency, core.RUB, a.Balance))
		}
		logger.Info("Accounts loaded", "count", len(accounts), "total_balance_rub", total.StringFixed(2))
	}

	if _, err := svc.Analytics(ctx, core.PeriodMonth); err != nil {
		logger.Warn("Failed to warm analytics", log.FieldError, err, log.FieldPeriod, core.PeriodMonth)
	}

	if _, err := svc.ExchangeRates(ctx); err != nil {
		logger.Warn("Failed to warm exchange rates", log.FieldError, err)
	}
}

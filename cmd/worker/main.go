package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"wathaci/internal/bootstrap"
	"wathaci/internal/infra"
	"wathaci/internal/infra/credentials"
	"wathaci/internal/metrics"
	"wathaci/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	if _, err := credentials.NewStore(runner).Resolve(ctx, cfg); err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load stored provider credentials")
	}

	providers, err := bootstrap.OpenProviders(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure providers")
	}
	m := metrics.New()
	c, err := bootstrap.Build(ctx, cfg, runner, providers, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to wire services")
	}
	defer c.Close()

	poll := cfg.WorkerPollInterval
	s := worker.NewScheduler(m, logger)
	s.Add(worker.Job{Name: "notifications", Interval: poll, Run: c.Deliverer.RunOnce})
	s.Add(worker.Job{Name: "compliance_reminders", Interval: 60 * poll, Run: c.Compliance.SendReminders})
	s.Add(worker.Job{Name: "payment_reconcile", Interval: 12 * poll, Run: c.Billing.Reconcile})
	s.Add(worker.Job{Name: "subscription_expiry", Interval: 60 * poll, Run: func(ctx context.Context) (int, error) {
		report, err := c.Billing.ExpireSubscriptions(ctx)
		return report.Notified + report.Expired, err
	}})

	crawlInterval := cfg.CrawlInterval
	if !c.Crawler.Enabled() {
		crawlInterval = 0
	}
	s.Add(worker.Job{Name: "funding_crawl", Interval: crawlInterval, Run: func(ctx context.Context) (int, error) {
		report, err := c.Crawler.CrawlFile(ctx, cfg.FundingSourcesFile)
		if err != nil {
			return 0, err
		}
		if len(report.Errors) > 0 {
			logger.Warn().Strs("errors", report.Errors).Msg("worker: crawl finished with errors")
		}
		return report.Upserted, nil
	}})

	logger.Info().Strs("jobs", s.Jobs()).Msg("worker: started")
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

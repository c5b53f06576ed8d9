package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"wathaci/internal/adapter/repo"
	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/infra/idempotency"
	"wathaci/internal/metrics"
	"wathaci/internal/notify"
	"wathaci/internal/providers/lenco"
	"wathaci/internal/providers/openai"
	"wathaci/internal/providers/resend"
	"wathaci/internal/providers/twilio"
	"wathaci/internal/service/auth"
	"wathaci/internal/service/billing"
	"wathaci/internal/service/compliance"
	"wathaci/internal/service/diagnostics"
	"wathaci/internal/service/funding"
	"wathaci/internal/service/profiles"
	"wathaci/internal/storage"
)

// Providers holds the external clients. A nil field means the provider is
// not configured.
type Providers struct {
	Gateway   billing.Gateway
	Email     notify.EmailSender
	SMS       notify.SMSSender
	Extractor funding.Extractor
}

// OpenProviders builds every provider client the configuration allows.
// Missing credentials disable a provider; any other setup failure is
// returned.
func OpenProviders(cfg *infra.Config, logger zerolog.Logger) (Providers, error) {
	var p Providers

	gateway, err := lenco.NewClient(lenco.Options{
		APIKey:        cfg.LencoAPIKey,
		BaseURL:       cfg.LencoBaseURL,
		WebhookSecret: cfg.LencoWebhookSecret,
	})
	switch {
	case err == nil:
		p.Gateway = gateway
	case errors.Is(err, domain.ErrProviderDisabled):
		logger.Warn().Msg("lenco not configured, payments disabled")
	default:
		return p, fmt.Errorf("lenco: %w", err)
	}

	email, err := resend.NewClient(resend.Options{
		APIKey:  cfg.ResendAPIKey,
		BaseURL: cfg.ResendBaseURL,
		From:    cfg.EmailFrom,
	})
	switch {
	case err == nil:
		p.Email = email
	case errors.Is(err, domain.ErrProviderDisabled):
		logger.Warn().Msg("resend not configured, email channel disabled")
	default:
		return p, fmt.Errorf("resend: %w", err)
	}

	sms, err := twilio.NewClient(twilio.Options{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFromNumber,
		BaseURL:    cfg.TwilioBaseURL,
	})
	switch {
	case err == nil:
		p.SMS = sms
	case errors.Is(err, domain.ErrProviderDisabled):
		logger.Warn().Msg("twilio not configured, sms channel disabled")
	default:
		return p, fmt.Errorf("twilio: %w", err)
	}

	extractor, err := openai.NewClient(openai.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		OnFailure: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("openai request failed")
		},
		OnWarning: func(reason, detail string) {
			logger.Warn().Str("reason", reason).Str("detail", detail).Msg("openai warning")
		},
	})
	switch {
	case err == nil:
		p.Extractor = extractor
	case errors.Is(err, domain.ErrProviderDisabled):
		logger.Warn().Msg("openai not configured, funding crawl disabled")
	default:
		return p, fmt.Errorf("openai: %w", err)
	}

	return p, nil
}

// Container is the wired service graph shared by the binaries.
type Container struct {
	Users         *repo.UserRepositoryPG
	Notifications *repo.NotificationRepositoryPG
	Stats         *repo.StatsRepositoryPG
	Events        idempotency.Store

	Dispatcher  *notify.Dispatcher
	Deliverer   *notify.Deliverer
	Auth        *auth.Service
	Profiles    *profiles.Service
	Compliance  *compliance.Service
	Diagnostics *diagnostics.Service
	Billing     *billing.Service
	Funding     *funding.Service
	Crawler     *funding.Crawler

	closers []func() error
}

// Build wires repositories and services on top of sql.
func Build(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor, p Providers, m *metrics.Metrics, logger zerolog.Logger) (*Container, error) {
	c := &Container{
		Users:         repo.NewUserRepository(sql),
		Notifications: repo.NewNotificationRepository(sql),
		Stats:         repo.NewStatsRepository(sql),
	}

	if cfg.RedisURL != "" {
		store, err := idempotency.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.Events = store
		c.closers = append(c.closers, store.Close)
	} else {
		logger.Warn().Msg("REDIS_URL empty, webhook deduplication is process local")
		c.Events = idempotency.NewMemoryStore()
	}

	storagePath := cfg.StoragePath
	if abs, err := filepath.Abs(storagePath); err == nil {
		storagePath = abs
	}
	files, err := storage.NewFileStore(storagePath)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	c.Dispatcher = notify.NewDispatcher(c.Notifications, c.Users, cfg.AppBaseURL, logger)
	c.Deliverer = notify.NewDeliverer(c.Notifications, p.Email, p.SMS, m, logger)

	c.Compliance = compliance.NewService(repo.NewComplianceRepository(sql), files, c.Dispatcher, logger)
	c.Auth = auth.NewService(c.Users, c.Dispatcher, auth.Options{
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.JWTTTL,
		DefaultCountry: cfg.DefaultCountry,
	}, logger)
	c.Profiles = profiles.NewService(repo.NewProfileRepository(sql), c.Compliance, cfg.DefaultCountry, logger)
	c.Diagnostics = diagnostics.NewService(repo.NewDiagnosticRepository(sql))
	c.Billing = billing.NewService(billing.Deps{
		Subscriptions: repo.NewSubscriptionRepository(sql),
		Payments:      repo.NewPaymentRepository(sql),
		Donations:     repo.NewDonationRepository(sql),
		Gateway:       p.Gateway,
		Events:        c.Events,
		Notifier:      c.Dispatcher,
		Metrics:       m,
		Logger:        logger,
	}, billing.Options{
		Currency:           cfg.DefaultCurrency,
		PlatformFeePercent: cfg.PlatformFeePercent,
	})

	fundingRepo := repo.NewFundingRepository(sql)
	c.Funding = funding.NewService(fundingRepo)
	c.Crawler = funding.NewCrawler(fundingRepo, funding.NewFetcher(nil, cfg.CrawlRequestsPerSecond), p.Extractor, m, logger)

	return c, nil
}

// Close releases connections opened by Build.
func (c *Container) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

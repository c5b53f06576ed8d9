package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wathaci/internal/bootstrap"
	"wathaci/internal/http/handlers"
	httpapi "wathaci/internal/http/httpapi"
	"wathaci/internal/infra"
	"wathaci/internal/infra/credentials"
	"wathaci/internal/infra/geoip"
	"wathaci/internal/metrics"
	mw "wathaci/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	resolved, err := credentials.NewStore(runner).Resolve(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load stored provider credentials")
	} else if len(resolved) > 0 {
		logger.Info().Strs("providers", resolved).Msg("provider credentials loaded from store")
	}

	var countryLookup mw.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
		defer resolver.Close()
	}

	m := metrics.New()

	providers, err := bootstrap.OpenProviders(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure providers")
	}
	c, err := bootstrap.Build(ctx, cfg, runner, providers, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire services")
	}
	defer c.Close()

	app := &handlers.App{
		DB:             runner,
		Logger:         logger,
		Metrics:        m,
		JWTSecret:      cfg.JWTSecret,
		FundingSources: cfg.FundingSourcesFile,
		Auth:           c.Auth,
		Profiles:       c.Profiles,
		Compliance:     c.Compliance,
		Diagnostics:    c.Diagnostics,
		Billing:        c.Billing,
		Funding:        c.Funding,
		Crawler:        c.Crawler,
		Notifications:  c.Notifications,
		Stats:          c.Stats,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		Metrics:         m,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		TrustedProxies:  cfg.TrustedProxies,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   countryLookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

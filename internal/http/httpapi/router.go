package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"wathaci/internal/http/handlers"
	"wathaci/internal/metrics"
	mw "wathaci/internal/middleware"
)

// Options configures the router middleware stack.
type Options struct {
	Logger          zerolog.Logger
	Metrics         *metrics.Metrics
	AllowedOrigins  []string
	TrustedProxies  []netip.Prefix
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   mw.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.RequestID,
		mw.TrustedRealIP(opts.TrustedProxies),
		chimw.Recoverer,
		mw.Logger(opts.Logger),
		mw.Metrics(opts.Metrics),
		mw.CORS(opts.AllowedOrigins),
		mw.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	limited := mw.RateLimit(opts.RateLimitPerMin, time.Minute)
	requireAuth := mw.AuthJWT(app.JWTSecret)

	r.Get("/metrics", app.MetricsExport)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/readyz", app.Ready)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.With(limited).Post("/auth/signup", app.AuthSignup)
		r.With(limited).Post("/auth/signin", app.AuthSignin)

		r.Get("/plans", app.PlansList)
		r.Post("/webhooks/lenco", app.LencoWebhook)

		r.Route("/donations", func(r chi.Router) {
			r.With(limited).Post("/", app.DonationsCreate)
			r.Get("/testimonials", app.DonationsTestimonials)
			r.Get("/stats", app.DonationsStats)
		})

		r.Get("/funding", app.FundingList)
		r.Get("/funding/{id}", app.FundingGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", app.Me)
			r.Post("/auth/refresh", app.AuthRefresh)
			r.Post("/auth/password", app.AuthChangePassword)

			r.Get("/profile", app.ProfileGet)
			r.Put("/profile", app.ProfileUpdate)

			r.Route("/compliance", func(r chi.Router) {
				r.Get("/summary", app.ComplianceSummary)
				r.Get("/tasks", app.ComplianceList)
				r.Post("/tasks", app.ComplianceCreate)
				r.Route("/tasks/{id}", func(r chi.Router) {
					r.Get("/", app.ComplianceGet)
					r.Patch("/", app.ComplianceUpdate)
					r.Delete("/", app.ComplianceDelete)
					r.Post("/documents", app.ComplianceUpload)
					r.Get("/documents/archive", app.ComplianceArchive)
				})
			})

			r.Route("/diagnostics", func(r chi.Router) {
				r.Get("/", app.DiagnosticsHistory)
				r.Post("/", app.DiagnosticsSubmit)
				r.Get("/latest", app.DiagnosticsLatest)
			})

			r.Post("/subscriptions", app.SubscriptionCreate)
			r.Get("/subscriptions/current", app.SubscriptionCurrent)
			r.Get("/payments/{reference}", app.PaymentStatus)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", app.NotificationsList)
				r.Post("/read-all", app.NotificationsReadAll)
				r.Post("/{id}/read", app.NotificationRead)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Get("/stats", app.StatsSummary)
				r.Post("/admin/funding/crawl", app.FundingCrawl)
			})
		})
	})

	return r
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/metrics"
	"wathaci/internal/middleware"
	"wathaci/internal/service/auth"
	"wathaci/internal/service/billing"
	"wathaci/internal/service/compliance"
	"wathaci/internal/service/funding"
	"wathaci/internal/service/profiles"
)

const maxJSONBody = 1 << 20

type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.Session, error)
	Signin(ctx context.Context, in auth.SigninInput) (*auth.Session, error)
	ChangePassword(ctx context.Context, userID string, in auth.PasswordInput) error
	User(ctx context.Context, userID string) (*domain.User, error)
	Refresh(ctx context.Context, userID string) (*auth.Session, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*profiles.Result, error)
	Update(ctx context.Context, userID string, in profiles.Input) (*profiles.Result, error)
}

type ComplianceService interface {
	List(ctx context.Context, userID, status string, overdue *bool) ([]domain.ComplianceTask, error)
	Get(ctx context.Context, userID, taskID string) (*domain.ComplianceTask, error)
	Create(ctx context.Context, userID string, in compliance.CreateInput) (*domain.ComplianceTask, error)
	Update(ctx context.Context, userID, taskID string, in compliance.UpdateInput) (*compliance.UpdateResult, error)
	Delete(ctx context.Context, userID, taskID string) error
	Summary(ctx context.Context, userID string) (*domain.ComplianceSummary, error)
	AddDocument(ctx context.Context, userID, taskID string, up compliance.Upload) (*domain.ComplianceDocument, error)
	Documents(ctx context.Context, userID, taskID string) ([]domain.ComplianceDocument, error)
	Archive(ctx context.Context, userID, taskID string) ([]byte, string, error)
}

type DiagnosticsService interface {
	Submit(ctx context.Context, userID string, answers domain.DiagnosticAnswers) (*domain.Diagnostic, error)
	History(ctx context.Context, userID string, limit int) ([]domain.Diagnostic, error)
	Latest(ctx context.Context, userID string) (*domain.Diagnostic, error)
}

type BillingService interface {
	Plans() []domain.Plan
	Subscribe(ctx context.Context, userID string, in billing.SubscribeInput) (*billing.Checkout, error)
	CurrentSubscription(ctx context.Context, userID string) (*domain.Subscription, error)
	Payment(ctx context.Context, userID, reference string) (*domain.Payment, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*billing.WebhookResult, error)
	Donate(ctx context.Context, userID string, in billing.DonateInput) (*billing.Checkout, error)
	Testimonials(ctx context.Context, limit int) ([]domain.Donation, error)
	DonationStats(ctx context.Context) (*domain.DonationStats, error)
}

type FundingService interface {
	List(ctx context.Context, q funding.Query) ([]domain.FundingOpportunity, error)
	Get(ctx context.Context, id string) (*domain.FundingOpportunity, error)
}

type FundingCrawler interface {
	CrawlFile(ctx context.Context, path string) (*funding.CrawlReport, error)
}

type StatsSource interface {
	PlatformStats(ctx context.Context) (*domain.PlatformStats, error)
}

// App carries the dependencies shared by every handler.
type App struct {
	DB             infra.Pinger
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	JWTSecret      string
	FundingSources string

	Auth          AuthService
	Profiles      ProfileService
	Compliance    ComplianceService
	Diagnostics   DiagnosticsService
	Billing       BillingService
	Funding       FundingService
	Crawler       FundingCrawler
	Notifications domain.NotificationRepository
	Stats         StatsSource
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]any{"code": errCode, "message": message},
	})
}

// fail maps a service error onto the JSON error envelope.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && !verr.Empty() {
		a.json(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"code":    "invalid_input",
				"message": "Please correct the highlighted fields.",
				"fields":  verr.Fields,
			},
		})
		return
	}
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	a.error(w, status, code, userMessage(err))
}

// decode reads a JSON body of at most maxJSONBody bytes. It writes the
// error response itself and reports false on failure.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		msg := "invalid payload"
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		a.error(w, http.StatusBadRequest, "bad_request", msg)
		return false
	}
	return true
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// optionalUserID returns the caller of a public route when a valid bearer
// token is present.
func (a *App) optionalUserID(r *http.Request) string {
	if id := a.currentUserID(r); id != "" {
		return id
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || a.JWTSecret == "" {
		return ""
	}
	claims, err := middleware.VerifyJWT(a.JWTSecret, strings.TrimSpace(token))
	if err != nil {
		return ""
	}
	return claims.Subject
}

func (a *App) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return "", false
	}
	return userID, true
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

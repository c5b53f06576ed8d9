// Package billing sells plan subscriptions and takes donations through
// mobile money collections, and settles them from webhooks and polling.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wathaci/internal/domain"
	"wathaci/internal/infra/idempotency"
	"wathaci/internal/metrics"
	"wathaci/internal/notify"
	"wathaci/internal/providers/lenco"
	"wathaci/internal/validation"
	"wathaci/pkg/msisdn"
)

// ReferencePrefix starts every payment reference sent to the gateway.
const ReferencePrefix = "WC-"

// Gateway is the mobile money provider.
type Gateway interface {
	InitiateCollection(ctx context.Context, req lenco.CollectionRequest) (*lenco.Collection, error)
	CollectionStatus(ctx context.Context, reference string) (*lenco.Collection, error)
	VerifySignature(body []byte, signature string) error
}

// Notifier queues notifications.
type Notifier interface {
	Enqueue(ctx context.Context, req notify.Request) ([]domain.Notification, error)
}

// Options tunes pricing.
type Options struct {
	Currency           string
	PlatformFeePercent float64
}

// Service coordinates subscriptions, donations and their payments.
type Service struct {
	subs      domain.SubscriptionRepository
	payments  domain.PaymentRepository
	donations domain.DonationRepository
	gateway   Gateway
	events    idempotency.Store
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	currency string
	feeRate  decimal.Decimal
	now      func() time.Time
}

// Deps groups the collaborators of a Service. Gateway may be nil when the
// payment provider is not configured.
type Deps struct {
	Subscriptions domain.SubscriptionRepository
	Payments      domain.PaymentRepository
	Donations     domain.DonationRepository
	Gateway       Gateway
	Events        idempotency.Store
	Notifier      Notifier
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

func NewService(deps Deps, opts Options) *Service {
	currency := strings.ToUpper(opts.Currency)
	if currency == "" {
		currency = "ZMW"
	}
	events := deps.Events
	if events == nil {
		events = idempotency.NewMemoryStore()
	}
	return &Service{
		subs:      deps.Subscriptions,
		payments:  deps.Payments,
		donations: deps.Donations,
		gateway:   deps.Gateway,
		events:    events,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		currency:  currency,
		feeRate:   decimal.NewFromFloat(opts.PlatformFeePercent).Div(decimal.NewFromInt(100)),
		now:       time.Now,
	}
}

// Plans returns the catalog in the service currency.
func (s *Service) Plans() []domain.Plan {
	return Plans(s.currency)
}

// Fee is the platform fee on amount rounded to 2 decimal places.
func (s *Service) Fee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(s.feeRate).Round(2)
}

// SubscribeInput is the body of POST /v1/subscriptions.
type SubscribeInput struct {
	Plan     string `json:"plan" validate:"required,oneof=free basic professional enterprise"`
	Interval string `json:"interval" validate:"omitempty,oneof=monthly annual"`
	Phone    string `json:"phone" validate:"required_unless=Plan free"`
	Operator string `json:"operator" validate:"omitempty,oneof=airtel mtn zamtel"`
}

func (in *SubscribeInput) normalize() {
	in.Plan = strings.ToLower(strings.TrimSpace(in.Plan))
	in.Interval = strings.ToLower(strings.TrimSpace(in.Interval))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Operator = strings.ToLower(strings.TrimSpace(in.Operator))
}

// Checkout is the outcome of starting a paid operation.
type Checkout struct {
	Subscription *domain.Subscription `json:"subscription,omitempty"`
	Donation     *domain.Donation     `json:"donation,omitempty"`
	Payment      *domain.Payment      `json:"payment,omitempty"`
}

// Subscribe starts a plan purchase. The free plan is activated immediately.
func (s *Service) Subscribe(ctx context.Context, userID string, in SubscribeInput) (*Checkout, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	plan, _ := LookupPlan(domain.PlanCode(in.Plan), s.currency)
	interval := domain.BillingInterval(in.Interval)
	if interval == "" {
		interval = domain.IntervalMonthly
	}

	if plan.IsFree() {
		sub, err := s.subs.Create(ctx, &domain.Subscription{UserID: userID, Plan: plan.Code, Interval: interval, Status: domain.SubscriptionPending})
		if err != nil {
			return nil, err
		}
		start := s.now()
		if err := s.subs.Activate(ctx, sub.ID, start, start.AddDate(100, 0, 0)); err != nil {
			return nil, err
		}
		if err := s.subs.CancelOthers(ctx, userID, sub.ID); err != nil {
			return nil, err
		}
		return &Checkout{Subscription: s.reload(ctx, sub)}, nil
	}

	phone, operator, err := resolvePayer(in.Phone, in.Operator)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("payments: %w", domain.ErrProviderDisabled)
	}
	sub, err := s.subs.Create(ctx, &domain.Subscription{UserID: userID, Plan: plan.Code, Interval: interval, Status: domain.SubscriptionPending})
	if err != nil {
		return nil, err
	}
	uid := userID
	payment, err := s.startCollection(ctx, &domain.Payment{
		UserID:    &uid,
		Purpose:   domain.PurposeSubscription,
		SubjectID: sub.ID,
		Phone:     phone,
		Operator:  operator,
	}, plan.Price(interval))
	if err != nil {
		return nil, err
	}
	return &Checkout{Subscription: sub, Payment: payment}, nil
}

// CurrentSubscription returns the active subscription of userID.
func (s *Service) CurrentSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	return s.subs.Current(ctx, userID)
}

// Payment returns a payment owned by userID, refreshing a pending one from
// the gateway first.
func (s *Service) Payment(ctx context.Context, userID, reference string) (*domain.Payment, error) {
	p, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.UserID == nil || *p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if p.Status != domain.PaymentPending || s.gateway == nil {
		return p, nil
	}
	col, err := s.gateway.CollectionStatus(ctx, reference)
	if err != nil {
		s.logger.Warn().Err(err).Str("reference", reference).Msg("billing: refresh payment status")
		return p, nil
	}
	return s.settle(ctx, p, col)
}

// startCollection prices, stores and initiates a payment. A gateway error
// fails the payment and is returned to the caller.
func (s *Service) startCollection(ctx context.Context, p *domain.Payment, amount decimal.Decimal) (*domain.Payment, error) {
	fee := s.Fee(amount)
	p.Reference = ReferencePrefix + uuid.NewString()
	p.AmountMinor = domain.ToMinor(amount)
	p.FeeMinor = domain.ToMinor(fee)
	p.Currency = s.currency
	p.Status = domain.PaymentPending

	saved, err := s.payments.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("reference", saved.Reference).
		Str("purpose", string(saved.Purpose)).
		Str("phone", msisdn.Mask(saved.Phone)).
		Int64("amount_minor", saved.TotalMinor()).
		Msg("billing: initiating collection")

	col, err := s.gateway.InitiateCollection(ctx, lenco.CollectionRequest{
		Reference: saved.Reference,
		Amount:    domain.FromMinor(saved.TotalMinor()),
		Currency:  saved.Currency,
		Phone:     saved.Phone,
		Operator:  saved.Operator,
	})
	if err != nil {
		reason := err.Error()
		if _, terr := s.payments.Transition(ctx, saved.Reference, domain.PaymentFailed, "", reason); terr != nil {
			s.logger.Error().Err(terr).Str("reference", saved.Reference).Msg("billing: fail payment")
		}
		s.observePayment(saved.Purpose, domain.PaymentFailed)
		if err := s.onFailed(ctx, saved, reason); err != nil {
			s.logger.Error().Err(err).Str("reference", saved.Reference).Msg("billing: failure side effects")
		}
		return nil, err
	}
	return s.settle(ctx, saved, col)
}

// resolvePayer normalizes the phone and picks the operator from the prefix
// unless one is given. Unknown prefixes need an explicit operator.
func resolvePayer(phone, operator string) (string, domain.MobileOperator, error) {
	normalized, err := msisdn.Normalize(phone)
	if err != nil {
		return "", "", domain.NewValidationError("phone", "invalid phone number")
	}
	op := domain.MobileOperator(strings.ToLower(strings.TrimSpace(operator)))
	if op == "" {
		detected, _ := msisdn.Operator(normalized)
		op = domain.MobileOperator(detected)
	}
	if !op.Valid() {
		return "", "", domain.NewValidationError("operator", "must be one of: airtel mtn zamtel")
	}
	return normalized, op, nil
}

func (s *Service) reload(ctx context.Context, sub *domain.Subscription) *domain.Subscription {
	fresh, err := s.subs.Get(ctx, sub.ID)
	if err != nil {
		return sub
	}
	return fresh
}

func (s *Service) observePayment(purpose domain.PaymentPurpose, status domain.PaymentStatus) {
	if s.metrics != nil {
		s.metrics.PaymentsTotal.WithLabelValues(string(purpose), string(status)).Inc()
	}
}

func money(minor int64) string {
	return domain.FromMinor(minor).StringFixed(2)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

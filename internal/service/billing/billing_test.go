package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wathaci/internal/domain"
	"wathaci/internal/infra/idempotency"
	"wathaci/internal/metrics"
	"wathaci/internal/notify"
	"wathaci/internal/providers/lenco"
)

const webhookSecret = "whsec"

type memSubs struct {
	subs      map[string]*domain.Subscription
	seq       int
	notified  []string
	expired   []string
	canceled  []string
	activated []string

	activateErr error
}

func (m *memSubs) Create(_ context.Context, s *domain.Subscription) (*domain.Subscription, error) {
	m.seq++
	cp := *s
	cp.ID = fmt.Sprintf("sub%d", m.seq)
	m.subs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memSubs) Get(_ context.Context, id string) (*domain.Subscription, error) {
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubs) Current(_ context.Context, userID string) (*domain.Subscription, error) {
	var best *domain.Subscription
	for _, s := range m.subs {
		if s.UserID == userID && s.Status == domain.SubscriptionActive {
			if best == nil || s.CurrentPeriodEnd.After(*best.CurrentPeriodEnd) {
				best = s
			}
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memSubs) Activate(_ context.Context, id string, start, end time.Time) error {
	if err := m.activateErr; err != nil {
		m.activateErr = nil
		return err
	}
	s := m.subs[id]
	if s.Status != domain.SubscriptionPending {
		return domain.ErrConflict
	}
	s.Status = domain.SubscriptionActive
	s.CurrentPeriodStart = &start
	s.CurrentPeriodEnd = &end
	m.activated = append(m.activated, id)
	return nil
}

func (m *memSubs) CancelOthers(_ context.Context, userID, keepID string) error {
	for id, s := range m.subs {
		if s.UserID == userID && id != keepID && (s.Status == domain.SubscriptionActive || s.Status == domain.SubscriptionPending) {
			s.Status = domain.SubscriptionCanceled
			m.canceled = append(m.canceled, id)
		}
	}
	return nil
}

func (m *memSubs) ListExpiring(_ context.Context, before time.Time, _ int) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, s := range m.subs {
		if s.Status == domain.SubscriptionActive && s.ExpiryNotifiedAt == nil && !s.CurrentPeriodEnd.After(before) && s.CurrentPeriodEnd.After(testNow) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSubs) ListExpired(_ context.Context, now time.Time, _ int) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, s := range m.subs {
		if s.Status == domain.SubscriptionActive && !s.CurrentPeriodEnd.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSubs) MarkExpired(_ context.Context, id string) error {
	m.subs[id].Status = domain.SubscriptionExpired
	m.expired = append(m.expired, id)
	return nil
}

func (m *memSubs) MarkExpiryNotified(_ context.Context, id string, at time.Time) error {
	m.subs[id].ExpiryNotifiedAt = &at
	m.notified = append(m.notified, id)
	return nil
}

type memPayments struct {
	byRef map[string]*domain.Payment
	stale []domain.Payment
}

func (m *memPayments) Create(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	cp := *p
	cp.ID = "pay-" + p.Reference
	cp.CreatedAt = testNow
	m.byRef[cp.Reference] = &cp
	out := cp
	return &out, nil
}

func (m *memPayments) GetByReference(_ context.Context, ref string) (*domain.Payment, error) {
	p, ok := m.byRef[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPayments) Transition(_ context.Context, ref string, status domain.PaymentStatus, gatewayRef, reason string) (bool, error) {
	p, ok := m.byRef[ref]
	if !ok || p.Status.Terminal() {
		return false, nil
	}
	p.Status = status
	p.GatewayReference = gatewayRef
	p.FailureReason = reason
	return true, nil
}

func (m *memPayments) ListStalePending(context.Context, time.Time, int) ([]domain.Payment, error) {
	return m.stale, nil
}

type memDonations struct {
	byID map[string]*domain.Donation

	setStatusErr error
}

func (m *memDonations) Create(_ context.Context, d *domain.Donation) (*domain.Donation, error) {
	cp := *d
	cp.ID = fmt.Sprintf("don%d", len(m.byID)+1)
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memDonations) Get(_ context.Context, id string) (*domain.Donation, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDonations) SetStatus(_ context.Context, id string, status domain.DonationStatus) error {
	if err := m.setStatusErr; err != nil {
		m.setStatusErr = nil
		return err
	}
	m.byID[id].Status = status
	return nil
}

func (m *memDonations) ListTestimonials(context.Context, int) ([]domain.Donation, error) {
	return nil, nil
}

func (m *memDonations) Stats(context.Context) (*domain.DonationStats, error) {
	return &domain.DonationStats{TotalMinor: 1000}, nil
}

type fakeGateway struct {
	initiateStatus string
	initiateErr    error
	statuses       map[string]string
	requests       []lenco.CollectionRequest
}

func (g *fakeGateway) InitiateCollection(_ context.Context, req lenco.CollectionRequest) (*lenco.Collection, error) {
	g.requests = append(g.requests, req)
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	status := g.initiateStatus
	if status == "" {
		status = lenco.StatusPending
	}
	return &lenco.Collection{Reference: req.Reference, Status: status}, nil
}

func (g *fakeGateway) CollectionStatus(_ context.Context, ref string) (*lenco.Collection, error) {
	status, ok := g.statuses[ref]
	if !ok {
		return nil, errors.New("lenco unavailable")
	}
	return &lenco.Collection{Reference: ref, Status: status, LencoReference: "L-" + ref}, nil
}

func (g *fakeGateway) VerifySignature(body []byte, signature string) error {
	return lenco.VerifySignature(lenco.WebhookKey(webhookSecret), body, signature)
}

type recordingNotifier struct {
	requests []notify.Request
}

func (r *recordingNotifier) Enqueue(_ context.Context, req notify.Request) ([]domain.Notification, error) {
	r.requests = append(r.requests, req)
	return nil, nil
}

func (r *recordingNotifier) templates() []string {
	var out []string
	for _, req := range r.requests {
		out = append(out, req.Template)
	}
	return out
}

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	subs      *memSubs
	payments  *memPayments
	donations *memDonations
	gateway   *fakeGateway
	notifier  *recordingNotifier
}

func newFixture() *fixture {
	f := &fixture{
		subs:      &memSubs{subs: map[string]*domain.Subscription{}},
		payments:  &memPayments{byRef: map[string]*domain.Payment{}},
		donations: &memDonations{byID: map[string]*domain.Donation{}},
		gateway:   &fakeGateway{statuses: map[string]string{}},
		notifier:  &recordingNotifier{},
	}
	f.svc = NewService(Deps{
		Subscriptions: f.subs,
		Payments:      f.payments,
		Donations:     f.donations,
		Gateway:       f.gateway,
		Events:        idempotency.NewMemoryStore(),
		Notifier:      f.notifier,
		Metrics:       metrics.New(),
		Logger:        zerolog.Nop(),
	}, Options{Currency: "ZMW", PlatformFeePercent: 2.5})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func webhookBody(event, reference, reason string) ([]byte, string) {
	body := []byte(fmt.Sprintf(`{"event":%q,"data":{"id":"col-%s","reference":%q,"lencoReference":"L-%s","status":"x","reasonForFailure":%q}}`,
		event, reference, reference, reference, reason))
	return body, lenco.Sign(lenco.WebhookKey(webhookSecret), body)
}

func TestPlansCatalog(t *testing.T) {
	plans := Plans("ZMW")
	require.Len(t, plans, 4)
	want := map[domain.PlanCode][2]string{
		domain.PlanFree:         {"0", "0"},
		domain.PlanBasic:        {"50", "500"},
		domain.PlanProfessional: {"150", "1500"},
		domain.PlanEnterprise:   {"500", "5000"},
	}
	for _, p := range plans {
		assert.Equal(t, want[p.Code][0], p.MonthlyPrice.String(), p.Code)
		assert.Equal(t, want[p.Code][1], p.AnnualPrice.String(), p.Code)
		assert.Equal(t, "ZMW", p.Currency)
	}
}

func TestFeeRounding(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "1.25", f.svc.Fee(decimal.NewFromInt(50)).StringFixed(2))
	assert.Equal(t, "0.31", f.svc.Fee(decimal.RequireFromString("12.34")).StringFixed(2))
	assert.Equal(t, "37.50", f.svc.Fee(decimal.NewFromInt(1500)).StringFixed(2))
}

func TestSubscribeFreeActivatesWithoutPayment(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "free"})
	require.NoError(t, err)
	assert.Nil(t, out.Payment)
	assert.Equal(t, domain.SubscriptionActive, out.Subscription.Status)
	assert.Empty(t, f.gateway.requests)
}

func TestSubscribeStartsCollection(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Interval: "annual", Phone: "0961234567"})
	require.NoError(t, err)
	require.NotNil(t, out.Payment)
	p := out.Payment
	assert.Regexp(t, `^WC-[0-9a-f-]{36}$`, p.Reference)
	assert.Equal(t, int64(50000), p.AmountMinor)
	assert.Equal(t, int64(1250), p.FeeMinor)
	assert.Equal(t, domain.OperatorMTN, p.Operator)
	assert.Equal(t, "260961234567", p.Phone)
	assert.Equal(t, domain.PaymentPending, p.Status)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "512.50", f.gateway.requests[0].Amount.StringFixed(2))
	assert.Equal(t, domain.SubscriptionPending, out.Subscription.Status)
}

func TestSubscribeValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    SubscribeInput
		field string
	}{
		{"unknown plan", SubscribeInput{Plan: "gold", Phone: "0971234567"}, "plan"},
		{"bad interval", SubscribeInput{Plan: "basic", Interval: "weekly", Phone: "0971234567"}, "interval"},
		{"bad phone", SubscribeInput{Plan: "basic", Phone: "0211234567"}, "phone"},
		{"bad operator", SubscribeInput{Plan: "basic", Phone: "0971234567", Operator: "vodafone"}, "operator"},
		{"paid plan without phone", SubscribeInput{Plan: "enterprise"}, "phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Subscribe(context.Background(), "u1", tt.in)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "err = %v", err)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, f.payments.byRef)
		})
	}
}

func TestCheckoutValidationMessages(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "gold", Interval: "weekly"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be one of: free basic professional enterprise", verr.Fields["plan"])
	assert.Equal(t, "must be one of: monthly annual", verr.Fields["interval"])

	_, err = f.svc.Donate(context.Background(), "", DonateInput{Amount: decimal.NewFromInt(5), Email: "x@", Currency: "usd"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"amount":   "must be between 10 and 100000",
		"email":    "must be a valid email address",
		"currency": "must be ZMW",
		"phone":    "is required",
	}, verr.Fields)
}

func TestSubscribeNormalizesCase(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: " Basic ", Interval: "ANNUAL", Phone: "0971234567", Operator: "MTN"})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanBasic, out.Subscription.Plan)
	assert.Equal(t, domain.IntervalAnnual, out.Subscription.Interval)
}

func TestSubscribeGatewayErrorFailsPayment(t *testing.T) {
	f := newFixture()
	f.gateway.initiateErr = &lenco.APIError{StatusCode: 400, Message: "insufficient balance"}
	_, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	require.Len(t, f.payments.byRef, 1)
	for _, p := range f.payments.byRef {
		assert.Equal(t, domain.PaymentFailed, p.Status)
	}
	assert.Equal(t, []string{notify.TemplatePaymentFailed}, f.notifier.templates())
}

func TestSubscribeWithoutGateway(t *testing.T) {
	f := newFixture()
	f.svc.gateway = nil
	_, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
}

func TestWebhookActivatesSubscriptionOnce(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "professional", Phone: "0971234567"})
	require.NoError(t, err)
	ref := out.Payment.Reference

	body, sig := webhookBody(lenco.EventCollectionSuccessful, ref, "")
	res, err := f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)

	sub := f.subs.subs[out.Subscription.ID]
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.Equal(t, "2025-04-10", sub.CurrentPeriodEnd.Format("2006-01-02"))
	assert.Equal(t, domain.PaymentSuccessful, f.payments.byRef[ref].Status)
	assert.Equal(t, "L-"+ref, f.payments.byRef[ref].GatewayReference)
	assert.Equal(t, []string{notify.TemplatePaymentSuccessful, notify.TemplateSubscriptionActivated}, f.notifier.templates())

	res, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Len(t, f.subs.activated, 1)
	assert.Len(t, f.notifier.requests, 2)
}

func TestWebhookRetryActivatesAfterFailedActivation(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	require.NoError(t, err)
	ref := out.Payment.Reference
	f.subs.activateErr = errors.New("db blip")

	body, sig := webhookBody(lenco.EventCollectionSuccessful, ref, "")
	_, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.Error(t, err)
	assert.Equal(t, domain.PaymentSuccessful, f.payments.byRef[ref].Status)
	assert.Equal(t, domain.SubscriptionPending, f.subs.subs[out.Subscription.ID].Status)
	assert.Empty(t, f.notifier.requests)

	res, err := f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.Equal(t, domain.SubscriptionActive, f.subs.subs[out.Subscription.ID].Status)
	assert.Equal(t, []string{notify.TemplatePaymentSuccessful, notify.TemplateSubscriptionActivated}, f.notifier.templates())

	res, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Len(t, f.subs.activated, 1)
}

func TestTransitionResumesSettledButPendingSubscription(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	require.NoError(t, err)
	ref := out.Payment.Reference
	f.payments.byRef[ref].Status = domain.PaymentSuccessful

	_, err = f.svc.transition(context.Background(), out.Payment, domain.PaymentSuccessful, "L-"+ref, "")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, f.subs.subs[out.Subscription.ID].Status)

	_, err = f.svc.transition(context.Background(), out.Payment, domain.PaymentSuccessful, "L-"+ref, "")
	require.NoError(t, err)
	assert.Len(t, f.subs.activated, 1)
	assert.Len(t, f.notifier.requests, 2)
}

func TestRenewalExtendsCurrentPeriod(t *testing.T) {
	f := newFixture()
	start := testNow.AddDate(0, -1, 0)
	end := testNow.AddDate(0, 0, 5)
	f.subs.subs["old"] = &domain.Subscription{ID: "old", UserID: "u1", Plan: domain.PlanBasic, Interval: domain.IntervalMonthly,
		Status: domain.SubscriptionActive, CurrentPeriodStart: &start, CurrentPeriodEnd: &end}

	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	require.NoError(t, err)
	body, sig := webhookBody(lenco.EventCollectionSuccessful, out.Payment.Reference, "")
	_, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)

	sub := f.subs.subs[out.Subscription.ID]
	assert.Equal(t, end.AddDate(0, 1, 0), *sub.CurrentPeriodEnd)
	assert.Equal(t, start, *sub.CurrentPeriodStart)
	assert.Equal(t, domain.SubscriptionCanceled, f.subs.subs["old"].Status)
}

func TestWebhookRejections(t *testing.T) {
	f := newFixture()
	body, _ := webhookBody(lenco.EventCollectionSuccessful, "WC-x", "")

	_, err := f.svc.HandleWebhook(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	bad := []byte(`{"event":"collection.successful"}`)
	_, err = f.svc.HandleWebhook(context.Background(), bad, lenco.Sign(lenco.WebhookKey(webhookSecret), bad))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, err := f.svc.HandleWebhook(context.Background(), body, lenco.Sign(lenco.WebhookKey(webhookSecret), body))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownReference, res.Outcome)

	other, sig := webhookBody("transfer.successful", "WC-y", "")
	res, err = f.svc.HandleWebhook(context.Background(), other, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
}

func TestFailedWebhookAfterSuccessIsNoop(t *testing.T) {
	f := newFixture()
	f.gateway.initiateStatus = lenco.StatusSuccessful
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccessful, out.Payment.Status)

	body, sig := webhookBody(lenco.EventCollectionFailed, out.Payment.Reference, "timeout")
	_, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccessful, f.payments.byRef[out.Payment.Reference].Status)
	assert.NotContains(t, f.notifier.templates(), notify.TemplatePaymentFailed)
}

func TestFailedWebhookFailsPendingSubscriptionPayment(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	require.NoError(t, err)
	ref := out.Payment.Reference

	body, sig := webhookBody(lenco.EventCollectionFailed, ref, "insufficient funds")
	res, err := f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)

	p := f.payments.byRef[ref]
	assert.Equal(t, domain.PaymentFailed, p.Status)
	assert.Equal(t, "insufficient funds", p.FailureReason)
	assert.Equal(t, domain.SubscriptionPending, f.subs.subs[out.Subscription.ID].Status)
	assert.Empty(t, f.subs.activated)

	require.Len(t, f.notifier.requests, 1)
	req := f.notifier.requests[0]
	assert.Equal(t, notify.TemplatePaymentFailed, req.Template)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, []domain.Channel{domain.ChannelEmail, domain.ChannelInApp}, req.Channels)
	assert.Equal(t, "insufficient funds", req.Data.Reason)
	assert.Equal(t, "51.25", req.Data.Amount)
}

func TestFailedWebhookFailsPendingDonation(t *testing.T) {
	tests := []struct {
		name     string
		in       DonateInput
		channels []domain.Channel
	}{
		{"donor with email", DonateInput{Amount: decimal.NewFromInt(20), Email: "mwila@example.zm", Phone: "0971234567"},
			[]domain.Channel{domain.ChannelEmail, domain.ChannelInApp}},
		{"phone only donor", DonateInput{Amount: decimal.NewFromInt(20), Phone: "0971234567"},
			[]domain.Channel{domain.ChannelSMS}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			out, err := f.svc.Donate(context.Background(), "", tt.in)
			require.NoError(t, err)
			ref := out.Payment.Reference

			body, sig := webhookBody(lenco.EventCollectionFailed, ref, "")
			_, err = f.svc.HandleWebhook(context.Background(), body, sig)
			require.NoError(t, err)

			assert.Equal(t, domain.PaymentFailed, f.payments.byRef[ref].Status)
			assert.Equal(t, "declined", f.payments.byRef[ref].FailureReason)
			assert.Equal(t, domain.DonationFailed, f.donations.byID[out.Donation.ID].Status)

			require.Len(t, f.notifier.requests, 1)
			req := f.notifier.requests[0]
			assert.Equal(t, notify.TemplatePaymentFailed, req.Template)
			assert.Equal(t, tt.channels, req.Channels)
			assert.Equal(t, "declined", req.Data.Reason)
		})
	}
}

func TestDonateAndReceipt(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Donate(context.Background(), "", DonateInput{
		Amount:    decimal.RequireFromString("100"),
		DonorName: "  Jane   Doe ",
		Email:     "Jane@Example.com",
		Phone:     "0771234567",
		Message:   "Keep going",
		Anonymous: true,
		Campaign:  "youth-fund",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", out.Donation.DonorName)
	assert.Equal(t, "jane@example.com", out.Donation.Email)
	assert.Nil(t, out.Payment.UserID)
	assert.Equal(t, domain.OperatorAirtel, out.Payment.Operator)
	assert.Equal(t, int64(10000), out.Payment.AmountMinor)

	body, sig := webhookBody(lenco.EventCollectionSuccessful, out.Payment.Reference, "")
	_, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationPaid, f.donations.byID[out.Donation.ID].Status)
	require.Len(t, f.notifier.requests, 1)
	req := f.notifier.requests[0]
	assert.Equal(t, notify.TemplateDonationReceipt, req.Template)
	assert.Equal(t, "jane@example.com", req.Email)
	assert.Equal(t, "102.50", req.Data.Amount)
}

func TestWebhookRetryMarksDonationPaid(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Donate(context.Background(), "", DonateInput{Amount: decimal.NewFromInt(50), Email: "bupe@example.zm", Phone: "0971234567"})
	require.NoError(t, err)
	f.donations.setStatusErr = errors.New("db blip")

	body, sig := webhookBody(lenco.EventCollectionSuccessful, out.Payment.Reference, "")
	_, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.Error(t, err)
	assert.Equal(t, domain.DonationPending, f.donations.byID[out.Donation.ID].Status)

	_, err = f.svc.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationPaid, f.donations.byID[out.Donation.ID].Status)
	assert.Equal(t, []string{notify.TemplateDonationReceipt}, f.notifier.templates())
}

func TestDonateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    DonateInput
		field string
	}{
		{"too small", DonateInput{Amount: decimal.NewFromInt(9), Phone: "0971234567"}, "amount"},
		{"too large", DonateInput{Amount: decimal.NewFromInt(100001), Phone: "0971234567"}, "amount"},
		{"fractional ngwee", DonateInput{Amount: decimal.RequireFromString("10.005"), Phone: "0971234567"}, "amount"},
		{"currency", DonateInput{Amount: decimal.NewFromInt(50), Currency: "usd", Phone: "0971234567"}, "currency"},
		{"email", DonateInput{Amount: decimal.NewFromInt(50), Email: "nope", Phone: "0971234567"}, "email"},
		{"phone", DonateInput{Amount: decimal.NewFromInt(50)}, "phone"},
		{"long message", DonateInput{Amount: decimal.NewFromInt(50), Phone: "0971234567", Message: strings.Repeat("ü", 501)}, "message"},
		{"operator", DonateInput{Amount: decimal.NewFromInt(50), Phone: "0971234567", Operator: "vodafone"}, "operator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Donate(context.Background(), "", tt.in)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "err = %v", err)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, f.donations.byID)
		})
	}
}

func TestPaymentRefreshOwnership(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
	require.NoError(t, err)
	ref := out.Payment.Reference

	_, err = f.svc.Payment(context.Background(), "u2", ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := f.svc.Payment(context.Background(), "u1", ref)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, p.Status)

	f.gateway.statuses[ref] = lenco.StatusFailed
	p, err = f.svc.Payment(context.Background(), "u1", ref)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, p.Status)
	assert.Equal(t, "declined", p.FailureReason)
}

func TestReconcile(t *testing.T) {
	f := newFixture()
	for _, status := range []string{lenco.StatusSuccessful, lenco.StatusPending, ""} {
		out, err := f.svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "basic", Phone: "0971234567"})
		require.NoError(t, err)
		if status != "" {
			f.gateway.statuses[out.Payment.Reference] = status
		}
		f.payments.stale = append(f.payments.stale, *f.payments.byRef[out.Payment.Reference])
	}
	n, err := f.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExpireSubscriptions(t *testing.T) {
	f := newFixture()
	soon := testNow.Add(48 * time.Hour)
	past := testNow.Add(-time.Hour)
	start := testNow.AddDate(0, -1, 0)
	f.subs.subs["soon"] = &domain.Subscription{ID: "soon", UserID: "u1", Plan: domain.PlanBasic, Status: domain.SubscriptionActive, CurrentPeriodStart: &start, CurrentPeriodEnd: &soon}
	f.subs.subs["gone"] = &domain.Subscription{ID: "gone", UserID: "u2", Plan: domain.PlanBasic, Status: domain.SubscriptionActive, CurrentPeriodStart: &start, CurrentPeriodEnd: &past}

	report, err := f.svc.ExpireSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpiryReport{Notified: 1, Expired: 1}, report)
	assert.Equal(t, []string{"soon"}, f.subs.notified)
	assert.Equal(t, []string{"gone"}, f.subs.expired)
	assert.Equal(t, []string{notify.TemplateSubscriptionExpiring}, f.notifier.templates())

	report, err = f.svc.ExpireSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpiryReport{}, report)
}

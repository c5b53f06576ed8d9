package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wathaci/internal/domain"
	"wathaci/internal/notify"
	"wathaci/internal/providers/lenco"
)

// gatewayStatus maps a collection status onto a payment status. Anything
// not final stays pending.
func gatewayStatus(status string) domain.PaymentStatus {
	switch strings.ToLower(status) {
	case lenco.StatusSuccessful:
		return domain.PaymentSuccessful
	case lenco.StatusFailed:
		return domain.PaymentFailed
	default:
		return domain.PaymentPending
	}
}

// settle applies a gateway view to p. The first transition out of pending
// runs the side effects; later calls return the stored payment and only
// finish side effects an earlier attempt left undone.
func (s *Service) settle(ctx context.Context, p *domain.Payment, col *lenco.Collection) (*domain.Payment, error) {
	status := gatewayStatus(col.Status)
	if status == domain.PaymentPending {
		return p, nil
	}
	return s.transition(ctx, p, status, col.LencoReference, col.ReasonForFailure)
}

func (s *Service) transition(ctx context.Context, p *domain.Payment, status domain.PaymentStatus, gatewayRef, reason string) (*domain.Payment, error) {
	if status == domain.PaymentFailed && reason == "" {
		reason = "declined"
	}
	changed, err := s.payments.Transition(ctx, p.Reference, status, gatewayRef, reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		stored, err := s.payments.GetByReference(ctx, p.Reference)
		if err != nil {
			return nil, err
		}
		if err := s.resume(ctx, stored); err != nil {
			return nil, err
		}
		return stored, nil
	}
	out := *p
	out.Status = status
	out.GatewayReference = gatewayRef
	if status == domain.PaymentFailed {
		out.FailureReason = reason
	}
	s.observePayment(p.Purpose, status)
	s.logger.Info().Str("reference", p.Reference).Str("status", string(status)).Msg("billing: payment settled")

	switch status {
	case domain.PaymentSuccessful:
		err = s.onSucceeded(ctx, &out)
	case domain.PaymentFailed:
		err = s.onFailed(ctx, &out, reason)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// resume repeats the side effects of a terminal payment whose subject is
// still pending, which happens when the attempt that settled it failed
// part way.
func (s *Service) resume(ctx context.Context, p *domain.Payment) error {
	switch {
	case p.Purpose == domain.PurposeSubscription && p.Status == domain.PaymentSuccessful:
		sub, err := s.subs.Get(ctx, p.SubjectID)
		if err != nil {
			return fmt.Errorf("load subscription: %w", err)
		}
		if sub.Status != domain.SubscriptionPending {
			return nil
		}
	case p.Purpose == domain.PurposeDonation && p.Status.Terminal():
		donation, err := s.donations.Get(ctx, p.SubjectID)
		if err != nil {
			return fmt.Errorf("load donation: %w", err)
		}
		if donation.Status != domain.DonationPending {
			return nil
		}
	default:
		return nil
	}

	s.logger.Warn().Str("reference", p.Reference).Str("status", string(p.Status)).Msg("billing: resuming unfinished settlement")
	if p.Status == domain.PaymentSuccessful {
		return s.onSucceeded(ctx, p)
	}
	return s.onFailed(ctx, p, p.FailureReason)
}

func (s *Service) onSucceeded(ctx context.Context, p *domain.Payment) error {
	switch p.Purpose {
	case domain.PurposeSubscription:
		return s.activate(ctx, p)
	case domain.PurposeDonation:
		if err := s.donations.SetStatus(ctx, p.SubjectID, domain.DonationPaid); err != nil {
			return fmt.Errorf("mark donation paid: %w", err)
		}
		donation, err := s.donations.Get(ctx, p.SubjectID)
		if err != nil {
			return fmt.Errorf("load donation: %w", err)
		}
		s.notifyDonor(ctx, donation, p, notify.TemplateDonationReceipt, "")
		return nil
	default:
		return nil
	}
}

func (s *Service) onFailed(ctx context.Context, p *domain.Payment, reason string) error {
	switch p.Purpose {
	case domain.PurposeDonation:
		if err := s.donations.SetStatus(ctx, p.SubjectID, domain.DonationFailed); err != nil {
			return fmt.Errorf("mark donation failed: %w", err)
		}
		donation, err := s.donations.Get(ctx, p.SubjectID)
		if err != nil {
			return fmt.Errorf("load donation: %w", err)
		}
		s.notifyDonor(ctx, donation, p, notify.TemplatePaymentFailed, reason)
	case domain.PurposeSubscription:
		if p.UserID != nil {
			s.enqueue(ctx, notify.Request{
				UserID:   *p.UserID,
				Template: notify.TemplatePaymentFailed,
				Channels: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp},
				Data:     notify.Data{Currency: p.Currency, Amount: money(p.TotalMinor()), Reference: p.Reference, Reason: reason},
			})
		}
	}
	return nil
}

// activate starts the paid period. Renewing the plan that is already active
// extends its period; any other purchase starts now.
func (s *Service) activate(ctx context.Context, p *domain.Payment) error {
	sub, err := s.subs.Get(ctx, p.SubjectID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	now := s.now()
	start, base := now, now
	current, err := s.subs.Current(ctx, sub.UserID)
	switch {
	case err == nil:
		if current.Plan == sub.Plan && current.CurrentPeriodEnd != nil && current.CurrentPeriodEnd.After(now) {
			base = *current.CurrentPeriodEnd
			if current.CurrentPeriodStart != nil {
				start = *current.CurrentPeriodStart
			}
		}
	case isNotFound(err):
	default:
		return fmt.Errorf("load current subscription: %w", err)
	}
	end := domain.AddMonthsClamped(base, intervalMonths(sub.Interval))
	err = s.subs.Activate(ctx, sub.ID, start, end)
	if errors.Is(err, domain.ErrConflict) {
		// settled concurrently by the webhook or the reconciler
		return nil
	}
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}
	if err := s.subs.CancelOthers(ctx, sub.UserID, sub.ID); err != nil {
		return fmt.Errorf("cancel previous subscriptions: %w", err)
	}

	data := notify.Data{
		Plan:      planName(sub.Plan),
		EndDate:   end.Format("2 January 2006"),
		Currency:  p.Currency,
		Amount:    money(p.TotalMinor()),
		Reference: p.Reference,
	}
	channels := []domain.Channel{domain.ChannelEmail, domain.ChannelInApp}
	s.enqueue(ctx, notify.Request{UserID: sub.UserID, Template: notify.TemplatePaymentSuccessful, Channels: channels, Data: data})
	s.enqueue(ctx, notify.Request{UserID: sub.UserID, Template: notify.TemplateSubscriptionActivated, Channels: channels, Data: data})
	return nil
}

func (s *Service) notifyDonor(ctx context.Context, d *domain.Donation, p *domain.Payment, template, reason string) {
	req := notify.Request{
		Template: template,
		Email:    d.Email,
		Data: notify.Data{
			Name:      d.DonorName,
			Currency:  p.Currency,
			Amount:    money(p.TotalMinor()),
			Reference: p.Reference,
			Campaign:  d.Campaign,
			Reason:    reason,
		},
	}
	if d.UserID != nil {
		req.UserID = *d.UserID
	}
	if d.Email != "" || req.UserID != "" {
		req.Channels = []domain.Channel{domain.ChannelEmail, domain.ChannelInApp}
	} else {
		req.Phone = d.Phone
		req.Channels = []domain.Channel{domain.ChannelSMS}
	}
	s.enqueue(ctx, req)
}

func (s *Service) enqueue(ctx context.Context, req notify.Request) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Enqueue(ctx, req); err != nil {
		s.logger.Error().Err(err).Str("template", req.Template).Msg("billing: enqueue notification")
	}
}

func planName(code domain.PlanCode) string {
	if p, ok := LookupPlan(code, ""); ok {
		return p.Name
	}
	return string(code)
}

// expiryNoticeWindow is how early a subscription_expiring notice goes out.
const expiryNoticeWindow = 3 * 24 * time.Hour

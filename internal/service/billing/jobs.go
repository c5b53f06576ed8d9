package billing

import (
	"context"
	"time"

	"wathaci/internal/domain"
	"wathaci/internal/notify"
)

const (
	// StalePaymentAge is how old a pending payment must be before polling.
	StalePaymentAge = 2 * time.Minute
	// ReconcileBatch caps gateway polls per cycle.
	ReconcileBatch = 20
	expiryBatch    = 100
)

// Reconcile polls the gateway for stale pending payments and settles those
// that reached a final status.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	if s.gateway == nil {
		return 0, nil
	}
	pending, err := s.payments.ListStalePending(ctx, s.now().Add(-StalePaymentAge), ReconcileBatch)
	if err != nil {
		return 0, err
	}
	settled := 0
	for i := range pending {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		p := &pending[i]
		col, err := s.gateway.CollectionStatus(ctx, p.Reference)
		if err != nil {
			s.logger.Warn().Err(err).Str("reference", p.Reference).Msg("billing: reconcile status")
			continue
		}
		if gatewayStatus(col.Status) == domain.PaymentPending {
			continue
		}
		if _, err := s.settle(ctx, p, col); err != nil {
			s.logger.Error().Err(err).Str("reference", p.Reference).Msg("billing: reconcile settle")
			continue
		}
		settled++
	}
	return settled, nil
}

// ExpiryReport counts the work of one ExpireSubscriptions run.
type ExpiryReport struct {
	Notified int
	Expired  int
}

// ExpireSubscriptions sends expiry notices ahead of the period end and moves
// lapsed subscriptions back to the free plan.
func (s *Service) ExpireSubscriptions(ctx context.Context) (ExpiryReport, error) {
	var report ExpiryReport
	now := s.now()

	expiring, err := s.subs.ListExpiring(ctx, now.Add(expiryNoticeWindow), expiryBatch)
	if err != nil {
		return report, err
	}
	for _, sub := range expiring {
		if sub.CurrentPeriodEnd == nil {
			continue
		}
		s.enqueue(ctx, notify.Request{
			UserID:   sub.UserID,
			Template: notify.TemplateSubscriptionExpiring,
			Channels: []domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelInApp},
			Data:     notify.Data{Plan: planName(sub.Plan), EndDate: sub.CurrentPeriodEnd.Format("2 January 2006")},
		})
		if err := s.subs.MarkExpiryNotified(ctx, sub.ID, now); err != nil {
			s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("billing: mark expiry notified")
			continue
		}
		report.Notified++
	}

	expired, err := s.subs.ListExpired(ctx, now, expiryBatch)
	if err != nil {
		return report, err
	}
	for _, sub := range expired {
		if err := s.subs.MarkExpired(ctx, sub.ID); err != nil {
			s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("billing: expire subscription")
			continue
		}
		report.Expired++
	}
	return report, nil
}

package billing

import (
	"context"
	"fmt"
	"time"

	"wathaci/internal/domain"
	"wathaci/internal/providers/lenco"
)

// webhookEventTTL is how long a processed event id is remembered.
const webhookEventTTL = 7 * 24 * time.Hour

// Webhook outcomes, also used as metric labels.
const (
	OutcomeProcessed        = "processed"
	OutcomeDuplicate        = "duplicate"
	OutcomeIgnored          = "ignored"
	OutcomeUnknownReference = "unknown_reference"
)

// WebhookResult describes how an event was handled.
type WebhookResult struct {
	EventID string `json:"event_id"`
	Outcome string `json:"outcome"`
}

// HandleWebhook verifies and applies a gateway event. Each event id is
// processed at most once; a processing error releases the claim so the
// gateway's retry can succeed.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("payments: %w", domain.ErrProviderDisabled)
	}
	if err := s.gateway.VerifySignature(body, signature); err != nil {
		s.observeWebhook("unknown", "rejected")
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	ev, err := lenco.ParseWebhook(body)
	if err != nil {
		s.observeWebhook("unknown", "rejected")
		return nil, err
	}
	res := &WebhookResult{EventID: ev.ID()}

	claimed, err := s.events.Claim(ctx, res.EventID, webhookEventTTL)
	if err != nil {
		return nil, fmt.Errorf("claim webhook event: %w", err)
	}
	if !claimed {
		res.Outcome = OutcomeDuplicate
		s.observeWebhook(ev.Event, res.Outcome)
		s.logger.Info().Str("event_id", res.EventID).Msg("billing: duplicate webhook acknowledged")
		return res, nil
	}

	outcome, err := s.applyEvent(ctx, ev)
	if err != nil {
		if rerr := s.events.Release(ctx, res.EventID); rerr != nil {
			s.logger.Error().Err(rerr).Str("event_id", res.EventID).Msg("billing: release webhook claim")
		}
		s.observeWebhook(ev.Event, "error")
		return nil, err
	}
	res.Outcome = outcome
	s.observeWebhook(ev.Event, outcome)
	return res, nil
}

func (s *Service) applyEvent(ctx context.Context, ev *lenco.WebhookEvent) (string, error) {
	var status domain.PaymentStatus
	switch ev.Event {
	case lenco.EventCollectionSuccessful:
		status = domain.PaymentSuccessful
	case lenco.EventCollectionFailed:
		status = domain.PaymentFailed
	default:
		return OutcomeIgnored, nil
	}
	p, err := s.payments.GetByReference(ctx, ev.Data.Reference)
	if isNotFound(err) {
		s.logger.Warn().Str("reference", ev.Data.Reference).Str("event", ev.Event).Msg("billing: webhook for unknown payment")
		return OutcomeUnknownReference, nil
	}
	if err != nil {
		return "", err
	}
	if _, err := s.transition(ctx, p, status, ev.Data.LencoReference, ev.Data.ReasonForFailure); err != nil {
		return "", err
	}
	return OutcomeProcessed, nil
}

func (s *Service) observeWebhook(event, outcome string) {
	if s.metrics != nil {
		s.metrics.WebhooksTotal.WithLabelValues(event, outcome).Inc()
	}
}

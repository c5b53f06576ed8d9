package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"wathaci/internal/domain"
	"wathaci/internal/metrics"
	"wathaci/pkg/msisdn"
)

// EmailSender delivers one email and returns the provider message id.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, text, html string) (string, error)
}

// SMSSender delivers one SMS and returns the provider message id.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// retryable is implemented by provider errors that know whether a resend
// could succeed.
type retryable interface {
	Retryable() bool
}

// Deliverer sends claimed notifications. A nil sender disables its channel.
type Deliverer struct {
	repo    domain.NotificationRepository
	email   EmailSender
	sms     SMSSender
	metrics *metrics.Metrics
	logger  zerolog.Logger
	batch   int
}

func NewDeliverer(r domain.NotificationRepository, email EmailSender, sms SMSSender, m *metrics.Metrics, logger zerolog.Logger) *Deliverer {
	return &Deliverer{repo: r, email: email, sms: sms, metrics: m, logger: logger, batch: 25}
}

// RunOnce claims one batch and delivers it, returning how many were sent.
func (d *Deliverer) RunOnce(ctx context.Context) (int, error) {
	items, err := d.repo.ClaimQueued(ctx, d.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, n := range items {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		ref, err := d.send(ctx, n)
		if err != nil {
			retry := isRetryable(err)
			d.logger.Warn().Err(err).
				Str("notification_id", n.ID).
				Str("channel", string(n.Channel)).
				Int("attempts", n.Attempts).
				Bool("retry", retry).
				Msg("notify: delivery failed")
			if markErr := d.repo.MarkFailed(ctx, n.ID, err.Error(), retry); markErr != nil {
				d.logger.Error().Err(markErr).Str("notification_id", n.ID).Msg("notify: mark failed")
			}
			d.observe(n.Channel, "failed")
			continue
		}
		if err := d.repo.MarkSent(ctx, n.ID, ref); err != nil {
			d.logger.Error().Err(err).Str("notification_id", n.ID).Msg("notify: mark sent")
		}
		d.observe(n.Channel, "sent")
		sent++
	}
	return sent, nil
}

func (d *Deliverer) send(ctx context.Context, n domain.Notification) (string, error) {
	switch n.Channel {
	case domain.ChannelEmail:
		if d.email == nil {
			return "", domain.ErrProviderDisabled
		}
		return d.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body, n.HTML)
	case domain.ChannelSMS:
		if d.sms == nil {
			return "", domain.ErrProviderDisabled
		}
		to, err := msisdn.Normalize(n.Recipient)
		if err != nil {
			return "", domain.ErrInvalidPhone
		}
		return d.sms.SendSMS(ctx, to, n.Body)
	default:
		return "", domain.ErrInvalidInput
	}
}

func (d *Deliverer) observe(ch domain.Channel, outcome string) {
	if d.metrics != nil {
		d.metrics.NotificationsTotal.WithLabelValues(string(ch), outcome).Inc()
	}
}

// isRetryable is false for disabled providers and bad input, true for
// transport failures, and defers to the provider otherwise.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrProviderDisabled),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidInput):
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

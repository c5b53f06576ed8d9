// Package notify renders notification templates, queues them per channel and
// delivers queued email and SMS through the configured providers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wathaci/internal/adapter/repo"
	"wathaci/internal/domain"
)

// ContactLookup resolves where a user can be reached.
type ContactLookup interface {
	Contact(ctx context.Context, userID string) (*repo.Contact, error)
}

// Request asks for one template on one or more channels. Email and Phone
// override the user's contact details and address anonymous recipients.
type Request struct {
	UserID   string
	Template string
	Channels []domain.Channel
	Data     Data
	Email    string
	Phone    string
}

// Dispatcher inserts queued notification rows.
type Dispatcher struct {
	repo     domain.NotificationRepository
	contacts ContactLookup
	appURL   string
	logger   zerolog.Logger
}

func NewDispatcher(r domain.NotificationRepository, contacts ContactLookup, appURL string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{repo: r, contacts: contacts, appURL: strings.TrimRight(appURL, "/"), logger: logger}
}

// Enqueue renders the template and queues one row per channel that has a
// recipient. In-app rows are stored as sent since they need no delivery.
func (d *Dispatcher) Enqueue(ctx context.Context, req Request) ([]domain.Notification, error) {
	if !Known(req.Template) {
		return nil, fmt.Errorf("%w: unknown template %q", domain.ErrInvalidInput, req.Template)
	}
	data := req.Data
	if data.AppURL == "" {
		data.AppURL = d.appURL
	}
	email, phone := req.Email, req.Phone
	if req.UserID != "" && d.contacts != nil {
		contact, err := d.contacts.Contact(ctx, req.UserID)
		switch {
		case err == nil:
			if email == "" {
				email = contact.Email
			}
			if phone == "" {
				phone = contact.Phone
			}
			if data.Name == "" {
				data.Name = firstNonEmpty(contact.FirstName, contact.BusinessName)
			}
		case errors.Is(err, domain.ErrNotFound):
		default:
			return nil, fmt.Errorf("lookup contact: %w", err)
		}
	}
	if data.Name == "" {
		data.Name = "there"
	}

	rendered, err := Render(req.Template, data)
	if err != nil {
		return nil, err
	}

	var userID *string
	if req.UserID != "" {
		id := req.UserID
		userID = &id
	}

	var out []domain.Notification
	for _, ch := range req.Channels {
		n := &domain.Notification{
			UserID:   userID,
			Channel:  ch,
			Template: req.Template,
			Subject:  rendered.Subject,
			Body:     rendered.Body,
			Status:   domain.NotificationQueued,
		}
		switch ch {
		case domain.ChannelEmail:
			if email == "" {
				d.logger.Debug().Str("template", req.Template).Msg("notify: no email recipient, skipping")
				continue
			}
			n.Recipient = email
			n.HTML = rendered.HTML
		case domain.ChannelSMS:
			if phone == "" {
				d.logger.Debug().Str("template", req.Template).Msg("notify: no sms recipient, skipping")
				continue
			}
			n.Recipient = phone
		case domain.ChannelInApp:
			if userID == nil {
				continue
			}
			n.Status = domain.NotificationSent
		default:
			return out, fmt.Errorf("%w: unknown channel %q", domain.ErrInvalidInput, ch)
		}
		saved, err := d.repo.Create(ctx, n)
		if err != nil {
			return out, fmt.Errorf("queue %s notification: %w", ch, err)
		}
		out = append(out, *saved)
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

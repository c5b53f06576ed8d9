package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wathaci/internal/domain"
	"wathaci/internal/validation"
)

var (
	minDonation = decimal.NewFromInt(10)
	maxDonation = decimal.NewFromInt(100000)
)

// DonateInput is the body of POST /v1/donations.
type DonateInput struct {
	Amount    decimal.Decimal `json:"amount" validate:"-"`
	Currency  string          `json:"currency" validate:"omitempty,iso4217"`
	DonorName string          `json:"donor_name" validate:"max=120"`
	Email     string          `json:"email" validate:"omitempty,email,max=254"`
	Phone     string          `json:"phone" validate:"required"`
	Operator  string          `json:"operator" validate:"omitempty,oneof=airtel mtn zamtel"`
	Message   string          `json:"message" validate:"max=500"`
	Anonymous bool            `json:"anonymous"`
	Campaign  string          `json:"campaign" validate:"max=80"`
}

func (in *DonateInput) normalize() {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.DonorName = strings.Join(strings.Fields(in.DonorName), " ")
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Operator = strings.ToLower(strings.TrimSpace(in.Operator))
	in.Message = strings.TrimSpace(in.Message)
	in.Campaign = strings.TrimSpace(in.Campaign)
}

// validateDonation runs the tag checks plus the rules that depend on the
// amount and the service currency.
func (s *Service) validateDonation(in DonateInput) error {
	verr := &domain.ValidationError{}
	if err := validation.Struct(in); err != nil && !errors.As(err, &verr) {
		return err
	}
	if in.Currency != "" && in.Currency != s.currency {
		verr.Add("currency", "must be "+s.currency)
	}
	if in.Amount.LessThan(minDonation) || in.Amount.GreaterThan(maxDonation) {
		verr.Add("amount", fmt.Sprintf("must be between %s and %s", minDonation, maxDonation))
	} else if !in.Amount.Equal(in.Amount.Round(2)) {
		verr.Add("amount", "must have at most 2 decimal places")
	}
	return verr.OrNil()
}

// Donate records a pending donation and starts its collection. userID is
// empty for signed out donors.
func (s *Service) Donate(ctx context.Context, userID string, in DonateInput) (*Checkout, error) {
	in.normalize()
	if err := s.validateDonation(in); err != nil {
		return nil, err
	}
	phone, operator, err := resolvePayer(in.Phone, in.Operator)
	if err != nil {
		return nil, err
	}
	currency := in.Currency
	if currency == "" {
		currency = s.currency
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("payments: %w", domain.ErrProviderDisabled)
	}

	var uid *string
	if userID != "" {
		id := userID
		uid = &id
	}
	donation, err := s.donations.Create(ctx, &domain.Donation{
		UserID:      uid,
		DonorName:   in.DonorName,
		Email:       in.Email,
		Phone:       phone,
		AmountMinor: domain.ToMinor(in.Amount),
		Currency:    currency,
		Message:     in.Message,
		Campaign:    in.Campaign,
		Anonymous:   in.Anonymous,
		Status:      domain.DonationPending,
	})
	if err != nil {
		return nil, err
	}
	payment, err := s.startCollection(ctx, &domain.Payment{
		UserID:    uid,
		Purpose:   domain.PurposeDonation,
		SubjectID: donation.ID,
		Phone:     phone,
		Operator:  operator,
	}, in.Amount)
	if err != nil {
		return nil, err
	}
	return &Checkout{Donation: donation, Payment: payment}, nil
}

// Testimonials returns recent paid donations that carry a message.
func (s *Service) Testimonials(ctx context.Context, limit int) ([]domain.Donation, error) {
	if limit <= 0 || limit > 50 {
		limit = 12
	}
	return s.donations.ListTestimonials(ctx, limit)
}

// DonationStats summarises paid donations.
func (s *Service) DonationStats(ctx context.Context) (*domain.DonationStats, error) {
	stats, err := s.donations.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.Currency == "" {
		stats.Currency = s.currency
	}
	return stats, nil
}

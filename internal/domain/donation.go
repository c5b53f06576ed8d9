package domain

import "time"

// DonationStatus mirrors the status of the underlying payment.
type DonationStatus string

const (
	DonationPending DonationStatus = "pending"
	DonationPaid    DonationStatus = "paid"
	DonationFailed  DonationStatus = "failed"
)

// Donation represents a supporter contribution record. Amounts are in minor
// units.
type Donation struct {
	ID          string         `json:"id"`
	UserID      *string        `json:"user_id,omitempty"`
	DonorName   string         `json:"donor_name,omitempty"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"-"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    string         `json:"currency"`
	Message     string         `json:"message,omitempty"`
	Campaign    string         `json:"campaign,omitempty"`
	Anonymous   bool           `json:"anonymous"`
	Status      DonationStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DonationStats summarises paid donations.
type DonationStats struct {
	TotalMinor int64  `json:"total_minor"`
	Currency   string `json:"currency"`
	Donors     int64  `json:"donors"`
	Count      int64  `json:"count"`
}

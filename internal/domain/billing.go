package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanCode identifies a subscription plan.
type PlanCode string

const (
	PlanFree         PlanCode = "free"
	PlanBasic        PlanCode = "basic"
	PlanProfessional PlanCode = "professional"
	PlanEnterprise   PlanCode = "enterprise"
)

// BillingInterval is the length of a paid subscription period.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// Plan is an entry of the subscription catalog.
type Plan struct {
	Code         PlanCode        `json:"code"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	AnnualPrice  decimal.Decimal `json:"annual_price"`
	Currency     string          `json:"currency"`
	Features     []string        `json:"features"`
}

// Price returns the plan price for interval.
func (p Plan) Price(interval BillingInterval) decimal.Decimal {
	if interval == IntervalAnnual {
		return p.AnnualPrice
	}
	return p.MonthlyPrice
}

// IsFree reports whether the plan costs nothing.
func (p Plan) IsFree() bool {
	return p.MonthlyPrice.IsZero()
}

// SubscriptionStatus enumerates subscription states.
type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionExpired  SubscriptionStatus = "expired"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription ties a user to a plan for a period.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	Plan               PlanCode           `json:"plan"`
	Interval           BillingInterval    `json:"interval"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`
	ExpiryNotifiedAt   *time.Time         `json:"-"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// PaymentStatus enumerates gateway payment states. Successful and failed are
// terminal.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSuccessful PaymentStatus = "successful"
	PaymentFailed     PaymentStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccessful || s == PaymentFailed
}

// PaymentPurpose says what a payment settles.
type PaymentPurpose string

const (
	PurposeSubscription PaymentPurpose = "subscription"
	PurposeDonation     PaymentPurpose = "donation"
)

// MobileOperator is a Zambian mobile money network.
type MobileOperator string

const (
	OperatorAirtel MobileOperator = "airtel"
	OperatorMTN    MobileOperator = "mtn"
	OperatorZamtel MobileOperator = "zamtel"
)

// Valid reports whether o is a known operator.
func (o MobileOperator) Valid() bool {
	return o == OperatorAirtel || o == OperatorMTN || o == OperatorZamtel
}

// Payment is one mobile money collection attempt. Amounts are in minor units
// (ngwee for ZMW).
type Payment struct {
	ID               string         `json:"id"`
	UserID           *string        `json:"user_id,omitempty"`
	Reference        string         `json:"reference"`
	Purpose          PaymentPurpose `json:"purpose"`
	SubjectID        string         `json:"subject_id"`
	AmountMinor      int64          `json:"amount_minor"`
	FeeMinor         int64          `json:"fee_minor"`
	Currency         string         `json:"currency"`
	Phone            string         `json:"phone"`
	Operator         MobileOperator `json:"operator"`
	Status           PaymentStatus  `json:"status"`
	GatewayReference string         `json:"gateway_reference,omitempty"`
	FailureReason    string         `json:"failure_reason,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TotalMinor is the amount charged to the payer.
func (p Payment) TotalMinor() int64 {
	return p.AmountMinor + p.FeeMinor
}

// ToMinor converts a decimal currency amount to minor units, rounding half
// away from zero to 2 decimal places first.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// FromMinor converts minor units to a decimal currency amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

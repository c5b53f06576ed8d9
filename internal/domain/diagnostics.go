package domain

import "time"

// HealthBand is the coarse outcome of a diagnostic.
type HealthBand string

const (
	BandHealthy  HealthBand = "healthy"
	BandModerate HealthBand = "moderate"
	BandAtRisk   HealthBand = "at_risk"
	BandCritical HealthBand = "critical"
)

// DiagnosticAnswers are the questionnaire inputs of a business health check.
// Monetary values are in whole currency units.
type DiagnosticAnswers struct {
	MonthlyRevenue      float64 `json:"monthly_revenue" validate:"gte=0"`
	MonthlyExpenses     float64 `json:"monthly_expenses" validate:"gte=0"`
	CashReserveMonths   float64 `json:"cash_reserve_months" validate:"gte=0,lte=120"`
	OutstandingDebt     float64 `json:"outstanding_debt" validate:"gte=0"`
	HasBookkeeping      bool    `json:"has_bookkeeping"`
	RegisteredWithPACRA bool    `json:"registered_with_pacra"`
	TaxCompliant        bool    `json:"tax_compliant"`
	HasBusinessPlan     bool    `json:"has_business_plan"`
	HasBankAccount      bool    `json:"has_bank_account"`
	EmployeeCount       int     `json:"employee_count" validate:"gte=0,lte=100000"`
	CustomerTrend       string  `json:"customer_trend" validate:"required,oneof=declining stable growing"`
	DigitalPresence     string  `json:"digital_presence" validate:"required,oneof=none basic active"`
}

// CategoryScores holds the per-area scores, each 0..100.
type CategoryScores struct {
	Financial  int `json:"financial"`
	Compliance int `json:"compliance"`
	Operations int `json:"operations"`
	Market     int `json:"market"`
}

// Recommendation is advice attached to a weak category.
type Recommendation struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Message  string `json:"message"`
}

// Diagnostic is a persisted business health assessment.
type Diagnostic struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	Answers         DiagnosticAnswers `json:"answers"`
	Scores          CategoryScores    `json:"scores"`
	Overall         int               `json:"overall"`
	Band            HealthBand        `json:"band"`
	Recommendations []Recommendation  `json:"recommendations"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Package diagnostics scores business health questionnaires.
package diagnostics

import (
	"context"
	"math"
	"sort"

	"wathaci/internal/domain"
	"wathaci/internal/validation"
)

// Category weights of the overall score, in percent.
const (
	weightFinancial  = 35
	weightCompliance = 25
	weightOperations = 20
	weightMarket     = 20
)

// RecommendBelow is the category score under which advice is attached.
const RecommendBelow = 60

var advice = map[string]string{
	"financial":  "Build a cash reserve of at least three months of expenses and keep spending below revenue. Reduce outstanding debt before taking on new credit.",
	"compliance": "Register with PACRA, keep your ZRA filings current and track deadlines in the compliance tracker to avoid penalties.",
	"operations": "Keep regular books, open a business bank account and write a simple business plan to guide hiring and spending.",
	"market":     "Grow your customer base with an active digital presence: a business profile, social media pages and mobile money payment options.",
}

// Service records diagnostics.
type Service struct {
	repo domain.DiagnosticRepository
}

func NewService(repo domain.DiagnosticRepository) *Service {
	return &Service{repo: repo}
}

// Submit validates and scores answers and persists the result.
func (s *Service) Submit(ctx context.Context, userID string, answers domain.DiagnosticAnswers) (*domain.Diagnostic, error) {
	if err := validation.Struct(answers); err != nil {
		return nil, err
	}
	d := Evaluate(answers)
	d.UserID = userID
	return s.repo.Create(ctx, d)
}

// History lists past diagnostics newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]domain.Diagnostic, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.repo.List(ctx, userID, limit)
}

// Latest returns the most recent diagnostic.
func (s *Service) Latest(ctx context.Context, userID string) (*domain.Diagnostic, error) {
	return s.repo.Latest(ctx, userID)
}

// Evaluate computes scores, band and recommendations without persisting.
func Evaluate(a domain.DiagnosticAnswers) *domain.Diagnostic {
	scores := domain.CategoryScores{
		Financial:  financialScore(a),
		Compliance: complianceScore(a),
		Operations: operationsScore(a),
		Market:     marketScore(a),
	}
	overall := Overall(scores)
	return &domain.Diagnostic{
		Answers:         a,
		Scores:          scores,
		Overall:         overall,
		Band:            Band(overall),
		Recommendations: Recommendations(scores),
	}
}

// Overall is the weighted mean of the category scores rounded half up.
func Overall(s domain.CategoryScores) int {
	sum := s.Financial*weightFinancial + s.Compliance*weightCompliance +
		s.Operations*weightOperations + s.Market*weightMarket
	return int(math.Floor(float64(sum)/100 + 0.5))
}

// Band maps an overall score to its health band.
func Band(overall int) domain.HealthBand {
	switch {
	case overall >= 75:
		return domain.BandHealthy
	case overall >= 50:
		return domain.BandModerate
	case overall >= 30:
		return domain.BandAtRisk
	default:
		return domain.BandCritical
	}
}

// Recommendations returns advice for each category under RecommendBelow,
// weakest first. Ties keep the weight order.
func Recommendations(s domain.CategoryScores) []domain.Recommendation {
	all := []domain.Recommendation{
		{Category: "financial", Score: s.Financial},
		{Category: "compliance", Score: s.Compliance},
		{Category: "operations", Score: s.Operations},
		{Category: "market", Score: s.Market},
	}
	out := make([]domain.Recommendation, 0, len(all))
	for _, r := range all {
		if r.Score < RecommendBelow {
			r.Message = advice[r.Category]
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

func financialScore(a domain.DiagnosticAnswers) int {
	score := 0
	switch {
	case a.MonthlyRevenue <= 0:
	case a.MonthlyExpenses <= a.MonthlyRevenue*0.7:
		score += 40
	case a.MonthlyExpenses <= a.MonthlyRevenue:
		score += 25
	case a.MonthlyExpenses <= a.MonthlyRevenue*1.2:
		score += 10
	}
	switch {
	case a.CashReserveMonths >= 6:
		score += 35
	case a.CashReserveMonths >= 3:
		score += 25
	case a.CashReserveMonths >= 1:
		score += 15
	}
	annual := a.MonthlyRevenue * 12
	switch {
	case a.OutstandingDebt <= 0:
		score += 25
	case annual > 0 && a.OutstandingDebt <= annual*0.25:
		score += 15
	case annual > 0 && a.OutstandingDebt <= annual*0.5:
		score += 5
	}
	return clamp(score)
}

func complianceScore(a domain.DiagnosticAnswers) int {
	score := 0
	if a.RegisteredWithPACRA {
		score += 40
	}
	if a.TaxCompliant {
		score += 40
	}
	if a.HasBookkeeping {
		score += 20
	}
	return clamp(score)
}

func operationsScore(a domain.DiagnosticAnswers) int {
	score := 0
	if a.HasBookkeeping {
		score += 30
	}
	if a.HasBusinessPlan {
		score += 25
	}
	if a.HasBankAccount {
		score += 25
	}
	switch {
	case a.EmployeeCount >= 5:
		score += 20
	case a.EmployeeCount >= 1:
		score += 10
	}
	return clamp(score)
}

func marketScore(a domain.DiagnosticAnswers) int {
	score := 0
	switch a.CustomerTrend {
	case "growing":
		score += 60
	case "stable":
		score += 35
	case "declining":
		score += 10
	}
	switch a.DigitalPresence {
	case "active":
		score += 40
	case "basic":
		score += 20
	}
	return clamp(score)
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

package billing

import (
	"github.com/shopspring/decimal"

	"wathaci/internal/domain"
)

// annualMonths is how many monthly prices an annual subscription costs.
const annualMonths = 10

var planCatalog = []struct {
	code     domain.PlanCode
	name     string
	monthly  int64
	features []string
}{
	{domain.PlanFree, "Free", 0, []string{"Business profile", "Compliance tracker", "Funding opportunity listings"}},
	{domain.PlanBasic, "Basic", 50, []string{"Everything in Free", "Email and SMS compliance reminders", "Business health diagnostics"}},
	{domain.PlanProfessional, "Professional", 150, []string{"Everything in Basic", "Document vault with archive export", "Diagnostic history and recommendations"}},
	{domain.PlanEnterprise, "Enterprise", 500, []string{"Everything in Professional", "Multiple business units", "Priority support"}},
}

// Plans returns the subscription catalog priced in currency.
func Plans(currency string) []domain.Plan {
	out := make([]domain.Plan, 0, len(planCatalog))
	for _, p := range planCatalog {
		monthly := decimal.NewFromInt(p.monthly)
		out = append(out, domain.Plan{
			Code:         p.code,
			Name:         p.name,
			MonthlyPrice: monthly,
			AnnualPrice:  monthly.Mul(decimal.NewFromInt(annualMonths)),
			Currency:     currency,
			Features:     append([]string(nil), p.features...),
		})
	}
	return out
}

// LookupPlan finds a plan by code.
func LookupPlan(code domain.PlanCode, currency string) (domain.Plan, bool) {
	for _, p := range Plans(currency) {
		if p.Code == code {
			return p, true
		}
	}
	return domain.Plan{}, false
}

// intervalMonths is the period length bought by one payment.
func intervalMonths(interval domain.BillingInterval) int {
	if interval == domain.IntervalAnnual {
		return 12
	}
	return 1
}

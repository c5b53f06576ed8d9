package compliance

import (
	"context"
	"fmt"
	"time"

	"wathaci/internal/domain"
)

// taskTemplate is a default obligation seeded when a profile is completed.
// Day is the day of month the task falls due; Month anchors annual tasks and
// is ignored otherwise. Quarterly tasks fall due in January, April, July and
// October.
type taskTemplate struct {
	Title       string
	Description string
	Category    domain.TaskCategory
	Recurrence  domain.Recurrence
	Day         int
	Month       time.Month
}

var (
	turnoverTax = taskTemplate{
		Title:       "ZRA turnover tax return",
		Description: "File and pay the monthly turnover tax return with the Zambia Revenue Authority.",
		Category:    domain.CategoryTax,
		Recurrence:  domain.RecurMonthly,
		Day:         14,
	}
	napsa = taskTemplate{
		Title:       "NAPSA contributions",
		Description: "Remit employer and employee pension contributions to NAPSA.",
		Category:    domain.CategoryLabour,
		Recurrence:  domain.RecurMonthly,
		Day:         10,
	}
	paye = taskTemplate{
		Title:       "ZRA PAYE return",
		Description: "Submit Pay As You Earn deductions for all employees.",
		Category:    domain.CategoryTax,
		Recurrence:  domain.RecurMonthly,
		Day:         10,
	}
	provisionalTax = taskTemplate{
		Title:       "ZRA provisional income tax",
		Description: "Pay the quarterly provisional income tax instalment.",
		Category:    domain.CategoryTax,
		Recurrence:  domain.RecurQuarterly,
		Day:         14,
	}
	incomeTax = taskTemplate{
		Title:       "ZRA income tax annual return",
		Description: "File the annual income tax return for the previous charge year.",
		Category:    domain.CategoryTax,
		Recurrence:  domain.RecurAnnually,
		Day:         21,
		Month:       time.June,
	}
	pacraReturn = taskTemplate{
		Title:       "PACRA annual return",
		Description: "Lodge the annual return with the Patents and Companies Registration Agency.",
		Category:    domain.CategoryRegistration,
		Recurrence:  domain.RecurAnnually,
		Day:         31,
		Month:       time.March,
	}
	tradingLicence = taskTemplate{
		Title:       "Council trading licence renewal",
		Description: "Renew the local council trading licence for each business premises.",
		Category:    domain.CategoryLicensing,
		Recurrence:  domain.RecurAnnually,
		Day:         31,
		Month:       time.March,
	}
	professionalBody = taskTemplate{
		Title:       "Professional body membership renewal",
		Description: "Renew practising membership with your professional association.",
		Category:    domain.CategoryLicensing,
		Recurrence:  domain.RecurAnnually,
		Day:         31,
		Month:       time.January,
	}
	professionalTax = taskTemplate{
		Title:       "ZRA provisional income tax",
		Description: "Pay the quarterly provisional tax on professional income.",
		Category:    domain.CategoryTax,
		Recurrence:  domain.RecurQuarterly,
		Day:         14,
	}
)

var defaultTemplates = map[domain.AccountType][]taskTemplate{
	domain.AccountSoleProprietor: {turnoverTax, pacraReturn, tradingLicence, incomeTax},
	domain.AccountSME:            {turnoverTax, napsa, paye, provisionalTax, pacraReturn, tradingLicence, incomeTax},
	domain.AccountProfessional:   {professionalBody, professionalTax, incomeTax},
}

// DefaultTasks returns the tasks seeded for accountType with due dates on or
// after the calendar day of now.
func DefaultTasks(userID string, accountType domain.AccountType, now time.Time) []domain.ComplianceTask {
	templates := defaultTemplates[accountType]
	out := make([]domain.ComplianceTask, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, domain.ComplianceTask{
			UserID:      userID,
			Title:       tpl.Title,
			Description: tpl.Description,
			Category:    tpl.Category,
			DueDate:     tpl.firstDue(now),
			Recurrence:  tpl.Recurrence,
			Status:      domain.TaskPending,
		})
	}
	return out
}

// SeedDefaults creates the default tasks of accountType for userID.
func (s *Service) SeedDefaults(ctx context.Context, userID string, accountType domain.AccountType) (int, error) {
	created := 0
	for _, task := range DefaultTasks(userID, accountType, s.now()) {
		task := task
		if _, err := s.repo.Create(ctx, &task); err != nil {
			return created, fmt.Errorf("seed %q: %w", task.Title, err)
		}
		created++
	}
	if created > 0 {
		s.logger.Info().Str("user_id", userID).Str("account_type", string(accountType)).Int("tasks", created).Msg("compliance: seeded default tasks")
	}
	return created, nil
}

func (t taskTemplate) firstDue(now time.Time) time.Time {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for i := 0; i <= 12; i++ {
		month := time.Date(y, m+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		if !t.matches(month.Month()) {
			continue
		}
		candidate := clampDay(month.Year(), month.Month(), t.Day)
		if !candidate.Before(today) {
			return candidate
		}
	}
	return clampDay(y+1, m, t.Day)
}

func (t taskTemplate) matches(m time.Month) bool {
	switch t.Recurrence {
	case domain.RecurQuarterly:
		return (m-1)%3 == 0
	case domain.RecurAnnually:
		return m == t.Month
	default:
		return true
	}
}

func clampDay(y int, m time.Month, day int) time.Time {
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

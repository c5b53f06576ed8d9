package profiles

import (
	"wathaci/internal/domain"
	"wathaci/internal/validation"
)

// Check splits profile problems into format errors, which reject a save, and
// required fields that are still empty, which keep the profile incomplete.
func Check(p *domain.Profile) (*domain.ValidationError, []string) {
	verr := &domain.ValidationError{}
	var missing []string
	need := func(field string, ok bool) {
		if !ok {
			missing = append(missing, field)
		}
	}

	need("first_name", p.FirstName != "")
	need("last_name", p.LastName != "")
	if p.Country != "" && validation.Validator().Var(p.Country, "iso2") != nil {
		verr.Add("country", "must be a two letter country code")
	}
	if len([]rune(p.Bio)) > 1000 {
		verr.Add("bio", "must be at most 1000 characters")
	}
	nonNegative(verr, "years_in_operation", p.YearsInOperation)
	nonNegative(verr, "years_experience", p.YearsExperience)
	if p.Employees != nil && *p.Employees < 1 {
		verr.Add("employees", "must be at least 1")
	}
	if p.BusinessSize != "" {
		switch p.BusinessSize {
		case domain.BusinessMicro, domain.BusinessSmall, domain.BusinessMedium:
		default:
			verr.Add("business_size", "must be one of: micro small medium")
		}
	}
	if p.TicketSizeMin != nil && *p.TicketSizeMin < 0 {
		verr.Add("ticket_size_min", "must be greater than or equal to 0")
	}
	if p.TicketSizeMin != nil && p.TicketSizeMax != nil && *p.TicketSizeMin > *p.TicketSizeMax {
		verr.Add("ticket_size_max", "must be greater than or equal to ticket_size_min")
	}

	switch p.AccountType {
	case domain.AccountSoleProprietor, domain.AccountSME:
		need("business_name", p.BusinessName != "")
		need("industry", p.Industry != "")
		need("business_size", p.BusinessSize != "")
		need("registration_number", p.RegistrationNumber != "")
		need("years_in_operation", p.YearsInOperation != nil)
		if p.AccountType == domain.AccountSME {
			need("employees", p.Employees != nil)
		}
	case domain.AccountProfessional:
		need("profession", p.Profession != "")
		need("expertise", len(p.Expertise) > 0)
		need("years_experience", p.YearsExperience != nil)
	case domain.AccountInvestor:
		need("organization_name", p.OrganizationName != "")
		need("investment_focus", len(p.InvestmentFocus) > 0)
		need("ticket_size_min", p.TicketSizeMin != nil)
		need("ticket_size_max", p.TicketSizeMax != nil)
	case domain.AccountGovernment:
		need("organization_name", p.OrganizationName != "")
		need("department", p.Department != "")
	}
	return verr, missing
}

func nonNegative(verr *domain.ValidationError, field string, v *int) {
	if v != nil && *v < 0 {
		verr.Add(field, "must be greater than or equal to 0")
	}
}

package domain

import "time"

// BusinessSize buckets SMEs by headcount.
type BusinessSize string

const (
	BusinessMicro  BusinessSize = "micro"
	BusinessSmall  BusinessSize = "small"
	BusinessMedium BusinessSize = "medium"
)

// Profile holds the onboarding data of a user. Which fields are required
// depends on AccountType.
type Profile struct {
	UserID      string      `json:"user_id"`
	AccountType AccountType `json:"account_type"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	City      string `json:"city"`
	Bio       string `json:"bio"`

	BusinessName       string       `json:"business_name,omitempty"`
	Industry           string       `json:"industry,omitempty"`
	BusinessSize       BusinessSize `json:"business_size,omitempty"`
	RegistrationNumber string       `json:"registration_number,omitempty"`
	YearsInOperation   *int         `json:"years_in_operation,omitempty"`
	Employees          *int         `json:"employees,omitempty"`

	Profession      string   `json:"profession,omitempty"`
	Expertise       []string `json:"expertise,omitempty"`
	YearsExperience *int     `json:"years_experience,omitempty"`

	OrganizationName string   `json:"organization_name,omitempty"`
	Department       string   `json:"department,omitempty"`
	InvestmentFocus  []string `json:"investment_focus,omitempty"`
	TicketSizeMin    *int64   `json:"ticket_size_min,omitempty"`
	TicketSizeMax    *int64   `json:"ticket_size_max,omitempty"`
	DonationFocus    []string `json:"donation_focus,omitempty"`

	Completed bool      `json:"profile_completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the name used in notifications.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.BusinessName != "":
		return p.BusinessName
	case p.OrganizationName != "":
		return p.OrganizationName
	default:
		return "there"
	}
}

package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// profileDetails is the jsonb column holding account-type specific fields.
type profileDetails struct {
	BusinessName       string   `json:"business_name,omitempty"`
	Industry           string   `json:"industry,omitempty"`
	BusinessSize       string   `json:"business_size,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
	YearsInOperation   *int     `json:"years_in_operation,omitempty"`
	Employees          *int     `json:"employees,omitempty"`
	Profession         string   `json:"profession,omitempty"`
	Expertise          []string `json:"expertise,omitempty"`
	YearsExperience    *int     `json:"years_experience,omitempty"`
	OrganizationName   string   `json:"organization_name,omitempty"`
	Department         string   `json:"department,omitempty"`
	InvestmentFocus    []string `json:"investment_focus,omitempty"`
	TicketSizeMin      *int64   `json:"ticket_size_min,omitempty"`
	TicketSizeMax      *int64   `json:"ticket_size_max,omitempty"`
	DonationFocus      []string `json:"donation_focus,omitempty"`
}

// ProfileRepositoryPG implements domain.ProfileRepository.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

func (r *ProfileRepositoryPG) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QSelectProfile, userID))
}

// Save updates the profile row. The account type column is never changed.
func (r *ProfileRepositoryPG) Save(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p == nil {
		return nil, errNilEntity
	}
	details, err := marshalJSON(profileDetails{
		BusinessName:       p.BusinessName,
		Industry:           p.Industry,
		BusinessSize:       string(p.BusinessSize),
		RegistrationNumber: p.RegistrationNumber,
		YearsInOperation:   p.YearsInOperation,
		Employees:          p.Employees,
		Profession:         p.Profession,
		Expertise:          p.Expertise,
		YearsExperience:    p.YearsExperience,
		OrganizationName:   p.OrganizationName,
		Department:         p.Department,
		InvestmentFocus:    p.InvestmentFocus,
		TicketSizeMin:      p.TicketSizeMin,
		TicketSizeMax:      p.TicketSizeMax,
		DonationFocus:      p.DonationFocus,
	})
	if err != nil {
		return nil, err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateProfile,
		p.UserID, p.FirstName, p.LastName, p.Phone, p.Country, p.City, p.Bio, details, p.Completed)
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var accountType string
	var raw []byte
	if err := row.Scan(&p.UserID, &accountType, &p.FirstName, &p.LastName, &p.Phone, &p.Country, &p.City, &p.Bio, &raw, &p.Completed, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	p.AccountType = domain.AccountType(accountType)
	var d profileDetails
	if err := unmarshalJSON(raw, &d); err != nil {
		return nil, err
	}
	p.BusinessName = d.BusinessName
	p.Industry = d.Industry
	p.BusinessSize = domain.BusinessSize(d.BusinessSize)
	p.RegistrationNumber = d.RegistrationNumber
	p.YearsInOperation = d.YearsInOperation
	p.Employees = d.Employees
	p.Profession = d.Profession
	p.Expertise = d.Expertise
	p.YearsExperience = d.YearsExperience
	p.OrganizationName = d.OrganizationName
	p.Department = d.Department
	p.InvestmentFocus = d.InvestmentFocus
	p.TicketSizeMin = d.TicketSizeMin
	p.TicketSizeMax = d.TicketSizeMax
	p.DonationFocus = d.DonationFocus
	return &p, nil
}

var _ domain.ProfileRepository = (*ProfileRepositoryPG)(nil)

// Package profiles manages onboarding profiles and decides when a profile is
// complete for its account type.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wathaci/internal/domain"
	"wathaci/pkg/msisdn"
)

// ErrAccountTypeChange is returned when an update names a different account type.
var ErrAccountTypeChange = fmt.Errorf("account type cannot be changed: %w", domain.ErrConflict)

// TaskSeeder creates the default compliance tasks of an account type.
type TaskSeeder interface {
	SeedDefaults(ctx context.Context, userID string, accountType domain.AccountType) (int, error)
}

// Input is the full replacement body of PUT /v1/profile.
type Input struct {
	AccountType domain.AccountType `json:"account_type"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	City      string `json:"city"`
	Bio       string `json:"bio"`

	BusinessName       string              `json:"business_name"`
	Industry           string              `json:"industry"`
	BusinessSize       domain.BusinessSize `json:"business_size"`
	RegistrationNumber string              `json:"registration_number"`
	YearsInOperation   *int                `json:"years_in_operation"`
	Employees          *int                `json:"employees"`

	Profession      string   `json:"profession"`
	Expertise       []string `json:"expertise"`
	YearsExperience *int     `json:"years_experience"`

	OrganizationName string   `json:"organization_name"`
	Department       string   `json:"department"`
	InvestmentFocus  []string `json:"investment_focus"`
	TicketSizeMin    *int64   `json:"ticket_size_min"`
	TicketSizeMax    *int64   `json:"ticket_size_max"`
	DonationFocus    []string `json:"donation_focus"`
}

// Result is a saved profile plus the required fields still missing.
type Result struct {
	Profile *domain.Profile `json:"profile"`
	Missing []string        `json:"missing_fields"`
	Seeded  int             `json:"seeded_tasks,omitempty"`
}

// Service reads and updates profiles.
type Service struct {
	repo           domain.ProfileRepository
	seeder         TaskSeeder
	defaultCountry string
	logger         zerolog.Logger
}

func NewService(repo domain.ProfileRepository, seeder TaskSeeder, defaultCountry string, logger zerolog.Logger) *Service {
	if defaultCountry == "" {
		defaultCountry = "ZM"
	}
	return &Service{repo: repo, seeder: seeder, defaultCountry: strings.ToUpper(defaultCountry), logger: logger}
}

// Get returns the profile of userID with its missing fields.
func (s *Service) Get(ctx context.Context, userID string) (*Result, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, missing := Check(p)
	return &Result{Profile: p, Missing: missing}, nil
}

// Update replaces the profile fields. Format errors are rejected; missing
// required fields are saved and leave the profile incomplete. The first
// transition to complete seeds the account type's compliance tasks.
func (s *Service) Update(ctx context.Context, userID string, in Input) (*Result, error) {
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.AccountType != "" && in.AccountType != current.AccountType {
		return nil, ErrAccountTypeChange
	}

	next := apply(current, in, s.defaultCountry)
	verr := &domain.ValidationError{}
	if in.Phone != "" {
		phone, err := msisdn.Normalize(in.Phone)
		if err != nil {
			verr.Add("phone", "invalid phone number")
		}
		next.Phone = phone
	}
	formatErrs, missing := Check(next)
	for field, msg := range formatErrs.Fields {
		verr.Add(field, msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	next.Completed = len(missing) == 0

	saved, err := s.repo.Save(ctx, next)
	if err != nil {
		return nil, err
	}
	res := &Result{Profile: saved, Missing: missing}
	if saved.Completed && !current.Completed && s.seeder != nil {
		n, err := s.seeder.SeedDefaults(ctx, userID, saved.AccountType)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("profiles: seed compliance tasks")
		}
		res.Seeded = n
	}
	return res, nil
}

func apply(current *domain.Profile, in Input, defaultCountry string) *domain.Profile {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = defaultCountry
	}
	return &domain.Profile{
		UserID:      current.UserID,
		AccountType: current.AccountType,
		CreatedAt:   current.CreatedAt,

		FirstName: NormalizeName(in.FirstName),
		LastName:  NormalizeName(in.LastName),
		Country:   country,
		City:      NormalizeName(in.City),
		Bio:       strings.TrimSpace(in.Bio),

		BusinessName:       strings.TrimSpace(in.BusinessName),
		Industry:           strings.TrimSpace(in.Industry),
		BusinessSize:       domain.BusinessSize(strings.ToLower(strings.TrimSpace(string(in.BusinessSize)))),
		RegistrationNumber: strings.ToUpper(strings.TrimSpace(in.RegistrationNumber)),
		YearsInOperation:   in.YearsInOperation,
		Employees:          in.Employees,

		Profession:      strings.TrimSpace(in.Profession),
		Expertise:       cleanList(in.Expertise),
		YearsExperience: in.YearsExperience,

		OrganizationName: strings.TrimSpace(in.OrganizationName),
		Department:       strings.TrimSpace(in.Department),
		InvestmentFocus:  cleanList(in.InvestmentFocus),
		TicketSizeMin:    in.TicketSizeMin,
		TicketSizeMax:    in.TicketSizeMax,
		DonationFocus:    cleanList(in.DonationFocus),
	}
}

// NormalizeName collapses whitespace and title-cases a person or place name.
func NormalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

func cleanList(items []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// IsAccountTypeChange reports whether err rejects an account type change.
func IsAccountTypeChange(err error) bool {
	return errors.Is(err, ErrAccountTypeChange)
}

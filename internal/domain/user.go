package domain

import "time"

// AccountType is chosen at signup and decides which profile fields apply.
type AccountType string

const (
	AccountSoleProprietor AccountType = "sole_proprietor"
	AccountProfessional   AccountType = "professional"
	AccountSME            AccountType = "sme"
	AccountInvestor       AccountType = "investor"
	AccountDonor          AccountType = "donor"
	AccountGovernment     AccountType = "government"
)

// AccountTypes lists every supported account type in display order.
var AccountTypes = []AccountType{
	AccountSoleProprietor,
	AccountProfessional,
	AccountSME,
	AccountInvestor,
	AccountDonor,
	AccountGovernment,
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsBusiness reports whether the account represents an operating business.
func (t AccountType) IsBusiness() bool {
	return t == AccountSoleProprietor || t == AccountSME
}

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents an authenticated account within the platform.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	AccountType  AccountType `json:"account_type"`
	Role         UserRole    `json:"role"`
	Plan         PlanCode    `json:"plan"`
	Locale       string      `json:"locale"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// IsAdmin reports whether the user may access operator endpoints.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

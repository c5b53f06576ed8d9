package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wathaci/internal/domain"
)

type signupForm struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,password"`
	Phone    string   `json:"phone" validate:"omitempty,zmphone"`
	Country  string   `json:"country" validate:"omitempty,iso2"`
	Tags     []string `json:"tags" validate:"min=1"`
	Account  string   `json:"account_type" validate:"oneof=sme donor"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signupForm{
		Email:    "not-an-email",
		Password: "short",
		Phone:    "12345",
		Country:  "zambia",
		Account:  "pirate",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	assert.Equal(t, "must be at least 8 characters and contain a letter and a digit", verr.Fields["password"])
	assert.Equal(t, "invalid phone number", verr.Fields["phone"])
	assert.Equal(t, "must be a two letter country code", verr.Fields["country"])
	assert.Equal(t, "must contain at least 1 items", verr.Fields["tags"])
	assert.Equal(t, "must be one of: sme donor", verr.Fields["account_type"])
}

func TestStructAcceptsValidInput(t *testing.T) {
	err := Struct(signupForm{
		Email:    "mutale@example.zm",
		Password: "lusaka2025",
		Phone:    "+260 97 123 4567",
		Country:  "ZM",
		Tags:     []string{"agri"},
		Account:  "sme",
	})
	assert.NoError(t, err)
}

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"abcdefgh":  false,
		"12345678":  false,
		"abc1234":   false,
		"abcd1234":  true,
		"Mwila2025": true,
	}
	for pw, want := range cases {
		assert.Equal(t, want, StrongPassword(pw), pw)
	}
}

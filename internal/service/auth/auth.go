// Package auth signs users up and in with email and password and issues
// session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"wathaci/internal/domain"
	"wathaci/internal/middleware"
	"wathaci/internal/notify"
	"wathaci/internal/service/profiles"
	"wathaci/internal/validation"
	"wathaci/pkg/msisdn"
)

var (
	// ErrEmailTaken is returned by Signup for a registered email.
	ErrEmailTaken = fmt.Errorf("an account with this email already exists: %w", domain.ErrConflict)
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
)

// Notifier queues notifications.
type Notifier interface {
	Enqueue(ctx context.Context, req notify.Request) ([]domain.Notification, error)
}

// SignupInput is the body of POST /v1/auth/signup.
type SignupInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,password,max=128"`
	AccountType string `json:"account_type" validate:"required,oneof=sole_proprietor professional sme investor donor government"`
	FirstName   string `json:"first_name" validate:"required,max=80"`
	LastName    string `json:"last_name" validate:"required,max=80"`
	Phone       string `json:"phone" validate:"omitempty,zmphone"`
	AcceptTerms bool   `json:"accept_terms"`
	Locale      string `json:"-"`
	Country     string `json:"-"`
}

// SigninInput is the body of POST /v1/auth/signin.
type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordInput is the body of POST /v1/auth/password.
type PasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password,max=128"`
}

// Session is returned by signup and signin.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// Options configures a Service.
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	DefaultCountry string
}

// Service implements account operations.
type Service struct {
	users    domain.UserRepository
	notifier Notifier
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time
	dummy    []byte
}

func NewService(users domain.UserRepository, notifier Notifier, opts Options, logger zerolog.Logger) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.DefaultCountry == "" {
		opts.DefaultCountry = "ZM"
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("wathaci-signin"), opts.BcryptCost)
	return &Service{users: users, notifier: notifier, opts: opts, logger: logger, now: time.Now, dummy: dummy}
}

// Signup creates the user with an empty profile of the chosen account type.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = profiles.NormalizeName(in.FirstName)
	in.LastName = profiles.NormalizeName(in.LastName)
	verr := &domain.ValidationError{}
	if err := validation.Struct(in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}
	if !in.AcceptTerms {
		verr.Add("accept_terms", "must be accepted")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	phone := ""
	if in.Phone != "" {
		phone, _ = msisdn.Normalize(in.Phone)
	}
	locale := in.Locale
	if locale == "" {
		locale = "en"
	}
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if validation.Validator().Var(country, "iso2") != nil {
		country = s.opts.DefaultCountry
	}
	acct := domain.AccountType(in.AccountType)
	user := &domain.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		AccountType:  acct,
		Role:         domain.UserRoleUser,
		Plan:         domain.PlanFree,
		Locale:       locale,
	}
	profile := &domain.Profile{
		AccountType: acct,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       phone,
		Country:     country,
	}
	created, err := s.users.CreateWithProfile(ctx, user, profile)
	if errors.Is(err, domain.ErrConflict) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_, err := s.notifier.Enqueue(ctx, notify.Request{
			UserID:   created.ID,
			Template: notify.TemplateWelcome,
			Channels: []domain.Channel{domain.ChannelEmail, domain.ChannelInApp},
			Data:     notify.Data{Name: in.FirstName, AccountType: strings.ReplaceAll(in.AccountType, "_", " ")},
		})
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", created.ID).Msg("auth: enqueue welcome")
		}
	}
	s.logger.Info().Str("user_id", created.ID).Str("account_type", in.AccountType).Msg("auth: signup")
	return s.session(created)
}

// Signin verifies credentials. Unknown emails and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) Signin(ctx context.Context, in SigninInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		// keep timing close to the wrong password path
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(in.Password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID string, in PasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.NewValidationError("current_password", "is incorrect")
	}
	if in.CurrentPassword == in.NewPassword {
		return domain.NewValidationError("new_password", "must differ from the current password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// User returns the account of userID.
func (s *Service) User(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Refresh issues a new token carrying the user's current plan and role.
func (s *Service) Refresh(ctx context.Context, userID string) (*Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *Service) session(user *domain.User) (*Session, error) {
	token, err := middleware.SignJWT(s.opts.JWTSecret, user.ID, middleware.TokenClaims{
		Role:        string(user.Role),
		Plan:        string(user.Plan),
		Locale:      user.Locale,
		AccountType: string(user.AccountType),
	}, s.opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: s.now().Add(s.opts.TokenTTL), User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// CreateWithProfile inserts the user and its empty profile in one statement.
func (r *UserRepositoryPG) CreateWithProfile(ctx context.Context, user *domain.User, profile *domain.Profile) (*domain.User, error) {
	if user == nil || profile == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QCreateUserWithProfile,
		user.Email,
		user.PasswordHash,
		string(user.AccountType),
		user.Locale,
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		profile.Country,
	)
	return scanUser(row)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
}

// GetByEmail fetches a user by email, case-insensitively.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email))
}

func (r *UserRepositoryPG) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserPassword, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepositoryPG) UpdatePlan(ctx context.Context, userID string, plan domain.PlanCode) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserPlan, userID, string(plan))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Contact is the addressing data used by notifications.
type Contact struct {
	Email        string
	Phone        string
	FirstName    string
	BusinessName string
	Locale       string
}

// Contact loads where to reach a user.
func (r *UserRepositoryPG) Contact(ctx context.Context, userID string) (*Contact, error) {
	var c Contact
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserContact, userID)
	if err := row.Scan(&c.Email, &c.Phone, &c.FirstName, &c.BusinessName, &c.Locale); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var accountType, role, plan string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &accountType, &role, &plan, &u.Locale, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.AccountType = domain.AccountType(accountType)
	u.Role = domain.UserRole(role)
	u.Plan = domain.PlanCode(plan)
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)

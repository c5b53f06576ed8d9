package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// SubscriptionRepositoryPG implements domain.SubscriptionRepository.
type SubscriptionRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSubscriptionRepository(sql infra.SQLExecutor) *SubscriptionRepositoryPG {
	return &SubscriptionRepositoryPG{sql: sql}
}

func (r *SubscriptionRepositoryPG) Create(ctx context.Context, s *domain.Subscription) (*domain.Subscription, error) {
	if s == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertSubscription, s.UserID, string(s.Plan), string(s.Interval), string(s.Status))
	return scanSubscription(row)
}

func (r *SubscriptionRepositoryPG) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	return scanSubscription(r.sql.QueryRow(ctx, sqlinline.QSelectSubscription, id))
}

// Current returns the active subscription of a user or ErrNotFound.
func (r *SubscriptionRepositoryPG) Current(ctx context.Context, userID string) (*domain.Subscription, error) {
	return scanSubscription(r.sql.QueryRow(ctx, sqlinline.QSelectCurrentSubscription, userID))
}

// Activate starts the period of a pending subscription and mirrors the plan
// onto the user row. ErrConflict means it was no longer pending.
func (r *SubscriptionRepositoryPG) Activate(ctx context.Context, id string, start, end time.Time) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QActivateSubscription, id, start, end)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *SubscriptionRepositoryPG) CancelOthers(ctx context.Context, userID, keepID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QCancelOtherSubscriptions, userID, keepID)
	return err
}

func (r *SubscriptionRepositoryPG) ListExpiring(ctx context.Context, before time.Time, limit int) ([]domain.Subscription, error) {
	return r.list(ctx, sqlinline.QListExpiringSubscriptions, before, limit)
}

func (r *SubscriptionRepositoryPG) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Subscription, error) {
	return r.list(ctx, sqlinline.QListExpiredSubscriptions, now, limit)
}

// MarkExpired expires the subscription and drops the user to the free plan
// unless another subscription is still active.
func (r *SubscriptionRepositoryPG) MarkExpired(ctx context.Context, id string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QExpireSubscription, id)
	return err
}

func (r *SubscriptionRepositoryPG) MarkExpiryNotified(ctx context.Context, id string, at time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkSubscriptionExpiryNotified, id, at)
	return err
}

func (r *SubscriptionRepositoryPG) list(ctx context.Context, query string, at time.Time, limit int) ([]domain.Subscription, error) {
	rows, err := r.sql.Query(ctx, query, at, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	var plan, interval, status string
	if err := row.Scan(&s.ID, &s.UserID, &plan, &interval, &status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.ExpiryNotifiedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	s.Plan = domain.PlanCode(plan)
	s.Interval = domain.BillingInterval(interval)
	s.Status = domain.SubscriptionStatus(status)
	return &s, nil
}

var _ domain.SubscriptionRepository = (*SubscriptionRepositoryPG)(nil)

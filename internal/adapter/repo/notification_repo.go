package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// MaxDeliveryAttempts bounds how often a notification is retried before it
// is marked failed for good.
const MaxDeliveryAttempts = 3

// NotificationRepositoryPG implements domain.NotificationRepository.
type NotificationRepositoryPG struct {
	sql         infra.SQLExecutor
	maxAttempts int
}

func NewNotificationRepository(sql infra.SQLExecutor) *NotificationRepositoryPG {
	return &NotificationRepositoryPG{sql: sql, maxAttempts: MaxDeliveryAttempts}
}

func (r *NotificationRepositoryPG) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n == nil {
		return nil, errNilEntity
	}
	status := n.Status
	if status == "" {
		status = domain.NotificationQueued
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertNotification,
		stringOrEmpty(n.UserID), string(n.Channel), n.Template, n.Recipient, n.Subject, n.Body, n.HTML, string(status))
	return scanNotification(row)
}

// ClaimQueued moves up to limit queued email and sms rows to sending.
func (r *NotificationRepositoryPG) ClaimQueued(ctx context.Context, limit int) ([]domain.Notification, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QClaimNotifications, limit)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func (r *NotificationRepositoryPG) MarkSent(ctx context.Context, id, providerRef string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkNotificationSent, id, providerRef)
	return err
}

// MarkFailed requeues the row when retry is set and attempts remain.
func (r *NotificationRepositoryPG) MarkFailed(ctx context.Context, id, reason string, retry bool) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkNotificationFailed, id, reason, retry, r.maxAttempts)
	return err
}

func (r *NotificationRepositoryPG) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListUserNotifications, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func (r *NotificationRepositoryPG) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkNotificationRead, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepositoryPG) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkAllNotificationsRead, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectNotifications(rows pgx.Rows) ([]domain.Notification, error) {
	defer rows.Close()
	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var channel, status string
	if err := row.Scan(&n.ID, &n.UserID, &channel, &n.Template, &n.Recipient, &n.Subject, &n.Body, &n.HTML,
		&status, &n.Attempts, &n.LastError, &n.ProviderRef, &n.ReadAt, &n.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	n.Channel = domain.Channel(channel)
	n.Status = domain.NotificationStatus(status)
	return &n, nil
}

var _ domain.NotificationRepository = (*NotificationRepositoryPG)(nil)

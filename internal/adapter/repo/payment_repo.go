package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// PaymentRepositoryPG implements domain.PaymentRepository.
type PaymentRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPaymentRepository(sql infra.SQLExecutor) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{sql: sql}
}

// Create inserts a pending payment. A reused reference yields ErrConflict.
func (r *PaymentRepositoryPG) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	if p == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertPayment,
		stringOrEmpty(p.UserID), p.Reference, string(p.Purpose), p.SubjectID,
		p.AmountMinor, p.FeeMinor, p.Currency, p.Phone, string(p.Operator))
	return scanPayment(row)
}

func (r *PaymentRepositoryPG) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	return scanPayment(r.sql.QueryRow(ctx, sqlinline.QSelectPaymentByReference, reference))
}

func (r *PaymentRepositoryPG) Transition(ctx context.Context, reference string, status domain.PaymentStatus, gatewayRef, reason string) (bool, error) {
	var id string
	err := r.sql.QueryRow(ctx, sqlinline.QTransitionPayment, reference, string(status), gatewayRef, reason).Scan(&id)
	if infra.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PaymentRepositoryPG) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListStalePendingPayments, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var purpose, operator, status string
	if err := row.Scan(&p.ID, &p.UserID, &p.Reference, &purpose, &p.SubjectID, &p.AmountMinor, &p.FeeMinor,
		&p.Currency, &p.Phone, &operator, &status, &p.GatewayReference, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	p.Purpose = domain.PaymentPurpose(purpose)
	p.Operator = domain.MobileOperator(operator)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

var _ domain.PaymentRepository = (*PaymentRepositoryPG)(nil)

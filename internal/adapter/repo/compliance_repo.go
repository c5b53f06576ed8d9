package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// ComplianceRepositoryPG implements domain.ComplianceRepository.
type ComplianceRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewComplianceRepository(sql infra.SQLExecutor) *ComplianceRepositoryPG {
	return &ComplianceRepositoryPG{sql: sql}
}

func (r *ComplianceRepositoryPG) Create(ctx context.Context, t *domain.ComplianceTask) (*domain.ComplianceTask, error) {
	if t == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertComplianceTask,
		t.UserID, t.Title, t.Description, string(t.Category), t.DueDate, string(t.Recurrence), string(t.Status))
	return scanTask(row)
}

func (r *ComplianceRepositoryPG) Get(ctx context.Context, userID, taskID string) (*domain.ComplianceTask, error) {
	return scanTask(r.sql.QueryRow(ctx, sqlinline.QSelectComplianceTask, taskID, userID))
}

func (r *ComplianceRepositoryPG) List(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.ComplianceTask, error) {
	today := filter.Today
	if today.IsZero() {
		today = time.Now()
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListComplianceTasks, userID, string(filter.Status), filter.Overdue, today)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *ComplianceRepositoryPG) Update(ctx context.Context, t *domain.ComplianceTask) (*domain.ComplianceTask, error) {
	if t == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateComplianceTask,
		t.ID, t.UserID, t.Title, t.Description, string(t.Category), t.DueDate, string(t.Recurrence), string(t.Status), t.CompletedAt)
	return scanTask(row)
}

func (r *ComplianceRepositoryPG) ScheduleNext(ctx context.Context, prev, next *domain.ComplianceTask) (*domain.ComplianceTask, error) {
	if prev == nil || next == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QScheduleNextComplianceTask,
		prev.ID, prev.UserID, next.Title, next.Description, string(next.Category), next.DueDate, string(next.Recurrence))
	t, err := scanTask(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrConflict
	}
	return t, err
}

func (r *ComplianceRepositoryPG) Summary(ctx context.Context, userID string, today, dueBy time.Time) (*domain.ComplianceSummary, error) {
	var total, completed, pending, overdue, dueSoon int64
	err := r.sql.QueryRow(ctx, sqlinline.QComplianceSummary, userID, today, dueBy).
		Scan(&total, &completed, &pending, &overdue, &dueSoon)
	if err != nil {
		return nil, mapErr(err)
	}
	return &domain.ComplianceSummary{
		Total:     int(total),
		Completed: int(completed),
		Pending:   int(pending),
		Overdue:   int(overdue),
		DueSoon:   int(dueSoon),
	}, nil
}

func (r *ComplianceRepositoryPG) Delete(ctx context.Context, userID, taskID string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteComplianceTask, taskID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ComplianceRepositoryPG) ListDueForReminder(ctx context.Context, dueBefore time.Time, limit int) ([]domain.ComplianceTask, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTasksDueForReminder, dueBefore, limit)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *ComplianceRepositoryPG) MarkReminded(ctx context.Context, taskID string, at time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkTaskReminded, taskID, at)
	return err
}

func (r *ComplianceRepositoryPG) AddDocument(ctx context.Context, doc *domain.ComplianceDocument) (*domain.ComplianceDocument, error) {
	if doc == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertComplianceDocument,
		doc.TaskID, doc.UserID, doc.Filename, doc.MIME, doc.StorageKey, doc.Bytes)
	return scanDocument(row)
}

func (r *ComplianceRepositoryPG) ListDocuments(ctx context.Context, userID, taskID string) ([]domain.ComplianceDocument, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListComplianceDocuments, taskID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.ComplianceDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func collectTasks(rows pgx.Rows) ([]domain.ComplianceTask, error) {
	defer rows.Close()
	var out []domain.ComplianceTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (*domain.ComplianceTask, error) {
	var t domain.ComplianceTask
	var category, recurrence, status string
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &category, &t.DueDate, &recurrence, &status,
		&t.CompletedAt, &t.ReminderSentAt, &t.NextTaskID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	t.Category = domain.TaskCategory(category)
	t.Recurrence = domain.Recurrence(recurrence)
	t.Status = domain.TaskStatus(status)
	return &t, nil
}

func scanDocument(row pgx.Row) (*domain.ComplianceDocument, error) {
	var d domain.ComplianceDocument
	if err := row.Scan(&d.ID, &d.TaskID, &d.UserID, &d.Filename, &d.MIME, &d.StorageKey, &d.Bytes, &d.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

var _ domain.ComplianceRepository = (*ComplianceRepositoryPG)(nil)

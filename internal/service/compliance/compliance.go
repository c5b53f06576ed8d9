// Package compliance tracks dated regulatory tasks, their recurrences,
// reminders and uploaded evidence.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wathaci/internal/domain"
	"wathaci/internal/notify"
	"wathaci/internal/validation"
)

const (
	// DateLayout is the wire format of due dates.
	DateLayout = "2006-01-02"
	// DueSoonWindow counts open tasks due within this window as due soon.
	DueSoonWindow = 7 * 24 * time.Hour
	// ReminderWindow selects tasks for reminders.
	ReminderWindow = 3 * 24 * time.Hour
)

// Notifier queues notifications.
type Notifier interface {
	Enqueue(ctx context.Context, req notify.Request) ([]domain.Notification, error)
}

// Files stores document bytes.
type Files interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// CreateInput is the body of POST /v1/compliance/tasks.
type CreateInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"omitempty,oneof=tax registration labour licensing other"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	Recurrence  string `json:"recurrence" validate:"omitempty,oneof=none monthly quarterly annually"`
}

// UpdateInput is the body of PATCH /v1/compliance/tasks/{id}. Nil fields are
// left unchanged.
type UpdateInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

// UpdateResult carries the updated task and, when a recurring task was
// completed, its next occurrence.
type UpdateResult struct {
	Task *domain.ComplianceTask `json:"task"`
	Next *domain.ComplianceTask `json:"next,omitempty"`
}

// Service implements compliance task operations for one tenant at a time.
type Service struct {
	repo     domain.ComplianceRepository
	files    Files
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo domain.ComplianceRepository, files Files, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, files: files, notifier: notifier, logger: logger, now: time.Now}
}

// List returns the user's tasks ordered by due date.
func (s *Service) List(ctx context.Context, userID string, status string, overdue *bool) ([]domain.ComplianceTask, error) {
	filter := domain.TaskFilter{Status: domain.TaskStatus(status), Overdue: overdue, Today: s.now()}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "must be one of: pending in_progress completed")
	}
	return s.repo.List(ctx, userID, filter)
}

// Get returns one task owned by userID.
func (s *Service) Get(ctx context.Context, userID, taskID string) (*domain.ComplianceTask, error) {
	return s.repo.Get(ctx, userID, taskID)
}

// Create validates and stores a new pending task.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.ComplianceTask, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	due, _ := time.Parse(DateLayout, in.DueDate)
	task := &domain.ComplianceTask{
		UserID:      userID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Category:    domain.TaskCategory(defaultString(in.Category, string(domain.CategoryOther))),
		DueDate:     due,
		Recurrence:  domain.Recurrence(defaultString(in.Recurrence, string(domain.RecurNone))),
		Status:      domain.TaskPending,
	}
	return s.repo.Create(ctx, task)
}

// Update applies a partial change. Completing a recurring task schedules the
// next occurrence once per task; reopening a completed task clears its
// completion time but keeps the occurrence already scheduled.
func (s *Service) Update(ctx context.Context, userID, taskID string, in UpdateInput) (*UpdateResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	task, err := s.repo.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	wasCompleted := task.Status == domain.TaskCompleted

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domain.NewValidationError("title", "is required")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.DueDate != nil {
		due, _ := time.Parse(DateLayout, *in.DueDate)
		task.DueDate = due
		task.ReminderSentAt = nil
	}
	if in.Status != nil {
		task.Status = domain.TaskStatus(*in.Status)
	}

	now := s.now()
	switch {
	case !wasCompleted && task.Status == domain.TaskCompleted:
		task.CompletedAt = &now
	case task.Status != domain.TaskCompleted:
		task.CompletedAt = nil
	}

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return nil, err
	}
	res := &UpdateResult{Task: updated}
	// A repeated completion retries a schedule that failed after the update.
	completing := in.Status != nil && updated.Status == domain.TaskCompleted
	if completing && updated.Recurrence.Months() > 0 && updated.NextTaskID == nil {
		next, err := s.repo.ScheduleNext(ctx, updated, nextOccurrence(updated))
		switch {
		case errors.Is(err, domain.ErrConflict):
		case err != nil:
			return nil, fmt.Errorf("schedule next occurrence: %w", err)
		default:
			res.Next = next
			updated.NextTaskID = &next.ID
		}
	}
	return res, nil
}

func nextOccurrence(t *domain.ComplianceTask) *domain.ComplianceTask {
	return &domain.ComplianceTask{
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		DueDate:     NextDue(t.DueDate, t.Recurrence),
		Recurrence:  t.Recurrence,
		Status:      domain.TaskPending,
	}
}

// Delete removes a task and its stored documents.
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	docs, err := s.repo.ListDocuments(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, taskID); err != nil {
		return err
	}
	if s.files == nil {
		return nil
	}
	for _, doc := range docs {
		if err := s.files.Delete(ctx, doc.StorageKey); err != nil {
			s.logger.Warn().Err(err).Str("key", doc.StorageKey).Msg("compliance: delete document file")
		}
	}
	return nil
}

// Summary counts the user's tasks by state.
func (s *Service) Summary(ctx context.Context, userID string) (*domain.ComplianceSummary, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.Summary(ctx, userID, today, today.Add(DueSoonWindow))
}

// NextDue advances due by the recurrence interval, clamping to the last day
// of the target month.
func NextDue(due time.Time, r domain.Recurrence) time.Time {
	return domain.AddMonthsClamped(due, r.Months())
}

func defaultString(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

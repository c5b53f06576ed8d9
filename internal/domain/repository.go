package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	// CreateWithProfile inserts the user together with an empty profile row.
	// A duplicate email yields ErrConflict.
	CreateWithProfile(ctx context.Context, user *User, profile *Profile) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdatePlan(ctx context.Context, userID string, plan PlanCode) error
}

// ProfileRepository persists onboarding profiles.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Save(ctx context.Context, profile *Profile) (*Profile, error)
}

// TaskFilter narrows ComplianceRepository.List.
type TaskFilter struct {
	Status  TaskStatus
	Overdue *bool
	Today   time.Time
}

// ComplianceRepository persists compliance tasks and their documents.
type ComplianceRepository interface {
	Create(ctx context.Context, task *ComplianceTask) (*ComplianceTask, error)
	Get(ctx context.Context, userID, taskID string) (*ComplianceTask, error)
	List(ctx context.Context, userID string, filter TaskFilter) ([]ComplianceTask, error)
	Update(ctx context.Context, task *ComplianceTask) (*ComplianceTask, error)
	// ScheduleNext stores next and links it to the completed task prev in one
	// statement. ErrConflict means prev is not completed or already has one.
	ScheduleNext(ctx context.Context, prev, next *ComplianceTask) (*ComplianceTask, error)
	// Summary counts tasks open past today or due on or before dueBy.
	Summary(ctx context.Context, userID string, today, dueBy time.Time) (*ComplianceSummary, error)
	Delete(ctx context.Context, userID, taskID string) error
	ListDueForReminder(ctx context.Context, dueBefore time.Time, limit int) ([]ComplianceTask, error)
	MarkReminded(ctx context.Context, taskID string, at time.Time) error
	AddDocument(ctx context.Context, doc *ComplianceDocument) (*ComplianceDocument, error)
	ListDocuments(ctx context.Context, userID, taskID string) ([]ComplianceDocument, error)
}

// DiagnosticRepository persists business health assessments.
type DiagnosticRepository interface {
	Create(ctx context.Context, d *Diagnostic) (*Diagnostic, error)
	List(ctx context.Context, userID string, limit int) ([]Diagnostic, error)
	Latest(ctx context.Context, userID string) (*Diagnostic, error)
}

// PaymentRepository persists gateway payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) (*Payment, error)
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	// Transition moves a pending payment to status. It reports false without
	// error when the payment is already terminal.
	Transition(ctx context.Context, reference string, status PaymentStatus, gatewayRef, reason string) (bool, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]Payment, error)
}

// SubscriptionRepository persists plan subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) (*Subscription, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	Current(ctx context.Context, userID string) (*Subscription, error)
	Activate(ctx context.Context, id string, start, end time.Time) error
	CancelOthers(ctx context.Context, userID, keepID string) error
	ListExpiring(ctx context.Context, before time.Time, limit int) ([]Subscription, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Subscription, error)
	MarkExpired(ctx context.Context, id string) error
	MarkExpiryNotified(ctx context.Context, id string, at time.Time) error
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) (*Donation, error)
	Get(ctx context.Context, id string) (*Donation, error)
	SetStatus(ctx context.Context, id string, status DonationStatus) error
	ListTestimonials(ctx context.Context, limit int) ([]Donation, error)
	Stats(ctx context.Context) (*DonationStats, error)
}

// NotificationRepository persists notifications and hands them to workers.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) (*Notification, error)
	// ClaimQueued locks up to limit queued notifications for delivery.
	ClaimQueued(ctx context.Context, limit int) ([]Notification, error)
	MarkSent(ctx context.Context, id, providerRef string) error
	MarkFailed(ctx context.Context, id, reason string, retry bool) error
	ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// FundingFilter narrows FundingRepository.List.
type FundingFilter struct {
	Sector   string
	Query    string
	OpenOnly bool
	Today    time.Time
	Limit    int
	Offset   int
}

// FundingRepository persists crawled funding opportunities.
type FundingRepository interface {
	// Upsert inserts or refreshes the row with the same hash and reports
	// whether a new row was created.
	Upsert(ctx context.Context, opp *FundingOpportunity) (bool, error)
	List(ctx context.Context, filter FundingFilter) ([]FundingOpportunity, error)
	Get(ctx context.Context, id string) (*FundingOpportunity, error)
}

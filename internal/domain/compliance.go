package domain

import "time"

// TaskStatus enumerates compliance task lifecycle states.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskPending || s == TaskInProgress || s == TaskCompleted
}

// TaskCategory groups compliance obligations.
type TaskCategory string

const (
	CategoryTax          TaskCategory = "tax"
	CategoryRegistration TaskCategory = "registration"
	CategoryLabour       TaskCategory = "labour"
	CategoryLicensing    TaskCategory = "licensing"
	CategoryOther        TaskCategory = "other"
)

// Recurrence describes how often a task repeats once completed.
type Recurrence string

const (
	RecurNone      Recurrence = "none"
	RecurMonthly   Recurrence = "monthly"
	RecurQuarterly Recurrence = "quarterly"
	RecurAnnually  Recurrence = "annually"
)

// Months returns the interval length in months, zero for one-off tasks.
func (r Recurrence) Months() int {
	switch r {
	case RecurMonthly:
		return 1
	case RecurQuarterly:
		return 3
	case RecurAnnually:
		return 12
	default:
		return 0
	}
}

// ComplianceTask is a dated regulatory obligation owned by one user.
type ComplianceTask struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Category       TaskCategory `json:"category"`
	DueDate        time.Time    `json:"due_date"`
	Recurrence     Recurrence   `json:"recurrence"`
	Status         TaskStatus   `json:"status"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	ReminderSentAt *time.Time   `json:"reminder_sent_at,omitempty"`
	NextTaskID     *string      `json:"next_task_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Overdue reports whether the task is open and its due date is before the
// calendar day of now.
func (t ComplianceTask) Overdue(now time.Time) bool {
	if t.Status == TaskCompleted {
		return false
	}
	return t.DueDate.Before(truncateDay(now))
}

// DueWithin reports whether an open task falls due within d of now and is not
// yet overdue.
func (t ComplianceTask) DueWithin(now time.Time, d time.Duration) bool {
	if t.Status == TaskCompleted || t.Overdue(now) {
		return false
	}
	return !t.DueDate.After(truncateDay(now).Add(d))
}

// ComplianceSummary aggregates a user's task counts.
type ComplianceSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	DueSoon   int `json:"due_soon"`
}

// ComplianceDocument is evidence uploaded against a task.
type ComplianceDocument struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	Filename   string    `json:"filename"`
	MIME       string    `json:"mime"`
	StorageKey string    `json:"-"`
	Bytes      int64     `json:"bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddMonthsClamped adds months to t keeping the day of month where possible,
// otherwise using the last day of the target month.
func AddMonthsClamped(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

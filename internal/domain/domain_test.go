package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestComplianceTaskOverdueAndDueWithin(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		name      string
		task      ComplianceTask
		overdue   bool
		dueWithin bool
	}{
		{name: "yesterday open", task: ComplianceTask{DueDate: day(14), Status: TaskPending}, overdue: true},
		{name: "today open", task: ComplianceTask{DueDate: day(15), Status: TaskPending}, dueWithin: true},
		{name: "in a week", task: ComplianceTask{DueDate: day(22), Status: TaskInProgress}, dueWithin: true},
		{name: "in eight days", task: ComplianceTask{DueDate: day(23), Status: TaskPending}},
		{name: "completed late", task: ComplianceTask{DueDate: day(1), Status: TaskCompleted}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.task.Overdue(now); got != tc.overdue {
				t.Fatalf("Overdue = %v, want %v", got, tc.overdue)
			}
			if got := tc.task.DueWithin(now, 7*24*time.Hour); got != tc.dueWithin {
				t.Fatalf("DueWithin = %v, want %v", got, tc.dueWithin)
			}
		})
	}
}

func TestToMinorRoundsHalfAwayFromZero(t *testing.T) {
	cases := map[string]int64{
		"0":       0,
		"1":       100,
		"19.99":   1999,
		"0.005":   1,
		"250.125": 25013,
	}
	for in, want := range cases {
		if got := ToMinor(decimal.RequireFromString(in)); got != want {
			t.Fatalf("ToMinor(%s) = %d, want %d", in, got, want)
		}
	}
	if got := FromMinor(1999).String(); got != "19.99" {
		t.Fatalf("FromMinor(1999) = %s", got)
	}
}

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	v := &ValidationError{}
	if v.OrNil() != nil {
		t.Fatalf("empty validation error should be nil")
	}
	v.Add("email", "is required")
	v.Add("email", "second message is ignored")
	v.Add("phone", "is invalid")

	err := v.OrNil()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected errors.Is(ErrInvalidInput)")
	}
	if err.Error() != "validation failed: email: is required; phone: is invalid" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestFundingOpportunityOpen(t *testing.T) {
	now := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	today := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	past := today.AddDate(0, 0, -1)

	if !(FundingOpportunity{}).Open(now) {
		t.Fatalf("opportunity without deadline must be open")
	}
	if !(FundingOpportunity{Deadline: &today}).Open(now) {
		t.Fatalf("deadline today must still be open")
	}
	if (FundingOpportunity{Deadline: &past}).Open(now) {
		t.Fatalf("past deadline must be closed")
	}
}

func TestRecurrenceMonths(t *testing.T) {
	if RecurNone.Months() != 0 || RecurMonthly.Months() != 1 || RecurQuarterly.Months() != 3 || RecurAnnually.Months() != 12 {
		t.Fatalf("unexpected recurrence months")
	}
}

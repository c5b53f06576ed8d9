package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"wathaci/internal/domain"
	"wathaci/internal/infra/sqltest"
	"wathaci/internal/sqlinline"
)

func userValues(id, email string) []any {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return []any{id, email, "hash", "sme", "user", "free", "en", now, now}
}

func TestUserRepositoryCreateMapsUniqueViolation(t *testing.T) {
	exec := sqltest.NewExecutor().OnQueryRow(sqlinline.QCreateUserWithProfile,
		sqltest.ErrRow(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}))
	repo := NewUserRepository(exec)

	_, err := repo.CreateWithProfile(context.Background(),
		&domain.User{Email: "a@b.zm", AccountType: domain.AccountSME},
		&domain.Profile{Country: "ZM"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserRepositoryGetByEmail(t *testing.T) {
	exec := sqltest.NewExecutor().OnQueryRow(sqlinline.QSelectUserByEmail, sqltest.NewRow(userValues("u-1", "chanda@example.zm")...))
	repo := NewUserRepository(exec)

	u, err := repo.GetByEmail(context.Background(), "Chanda@Example.zm")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != "u-1" || u.AccountType != domain.AccountSME || u.Plan != domain.PlanFree {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := repo.GetByEmail(context.Background(), "missing@example.zm"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryUpdatePlanNotFound(t *testing.T) {
	exec := sqltest.NewExecutor().OnExec(sqlinline.QUpdateUserPlan, sqltest.ExecResult{RowsAffected: 0})
	repo := NewUserRepository(exec)

	if err := repo.UpdatePlan(context.Background(), "u-404", domain.PlanBasic); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileRepositoryRoundTripsDetails(t *testing.T) {
	now := time.Now().UTC()
	details := []byte(`{"business_name":"Mwila Farms","industry":"agriculture","employees":12,"investment_focus":["agri"]}`)
	exec := sqltest.NewExecutor().OnQueryRow(sqlinline.QSelectProfile, sqltest.NewRow(
		"u-1", "sme", "Mwila", "Banda", "260971234567", "ZM", "Lusaka", "", details, true, now, now))
	repo := NewProfileRepository(exec)

	p, err := repo.Get(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.BusinessName != "Mwila Farms" || p.Employees == nil || *p.Employees != 12 || !p.Completed {
		t.Fatalf("details not decoded: %+v", p)
	}
	if len(p.InvestmentFocus) != 1 {
		t.Fatalf("expected investment focus, got %v", p.InvestmentFocus)
	}
}

func TestPaymentRepositoryTransitionTerminal(t *testing.T) {
	exec := sqltest.NewExecutor().
		OnQueryRow(sqlinline.QTransitionPayment, sqltest.NewRow("pay-1"), sqltest.NoRow())
	repo := NewPaymentRepository(exec)

	ok, err := repo.Transition(context.Background(), "WC-1", domain.PaymentSuccessful, "lenco-1", "")
	if err != nil || !ok {
		t.Fatalf("first transition = %v, %v", ok, err)
	}
	ok, err = repo.Transition(context.Background(), "WC-1", domain.PaymentFailed, "", "late")
	if err != nil || ok {
		t.Fatalf("second transition should be a no-op, got %v, %v", ok, err)
	}
}

func TestComplianceRepositoryListPassesFilter(t *testing.T) {
	due := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	exec := sqltest.NewExecutor().OnQuery(sqlinline.QListComplianceTasks, sqltest.NewRows(
		[]any{"t-1", "u-1", "ZRA turnover tax", "", "tax", due, "monthly", "pending", nil, nil, nil, now, now},
	))
	repo := NewComplianceRepository(exec)

	overdue := false
	tasks, err := repo.List(context.Background(), "u-1", domain.TaskFilter{Status: domain.TaskPending, Overdue: &overdue, Today: now})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Recurrence != domain.RecurMonthly || tasks[0].CompletedAt != nil {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
	calls := exec.CallsTo(sqlinline.QListComplianceTasks)
	if len(calls) != 1 || calls[0].Args[1] != "pending" {
		t.Fatalf("unexpected call args %+v", calls)
	}
}

func TestComplianceRepositoryScheduleNextOnce(t *testing.T) {
	due := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	exec := sqltest.NewExecutor().OnQueryRow(sqlinline.QScheduleNextComplianceTask,
		sqltest.NewRow("t-2", "u-1", "NAPSA", "", "labour", due, "monthly", "pending", nil, nil, nil, now, now),
		sqltest.NoRow())
	repo := NewComplianceRepository(exec)
	prev := &domain.ComplianceTask{ID: "t-1", UserID: "u-1"}
	next := &domain.ComplianceTask{Title: "NAPSA", Category: domain.CategoryLabour, DueDate: due, Recurrence: domain.RecurMonthly}

	created, err := repo.ScheduleNext(context.Background(), prev, next)
	if err != nil {
		t.Fatalf("ScheduleNext: %v", err)
	}
	if created.ID != "t-2" || created.Status != domain.TaskPending {
		t.Fatalf("unexpected next task %+v", created)
	}
	if _, err := repo.ScheduleNext(context.Background(), prev, next); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict once linked, got %v", err)
	}
	args := exec.CallsTo(sqlinline.QScheduleNextComplianceTask)[0].Args
	if args[0] != "t-1" || args[1] != "u-1" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestComplianceRepositorySummaryCounts(t *testing.T) {
	exec := sqltest.NewExecutor().OnQueryRow(sqlinline.QComplianceSummary,
		sqltest.NewRow(int64(812), int64(300), int64(512), int64(40), int64(7)))
	today := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	got, err := NewComplianceRepository(exec).Summary(context.Background(), "u-1", today, today.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := domain.ComplianceSummary{Total: 812, Completed: 300, Pending: 512, Overdue: 40, DueSoon: 7}
	if *got != want {
		t.Fatalf("got %+v, want %+v", *got, want)
	}
}

func TestComplianceRepositoryDeleteNotFound(t *testing.T) {
	exec := sqltest.NewExecutor().OnExec(sqlinline.QDeleteComplianceTask, sqltest.ExecResult{RowsAffected: 0})
	if err := NewComplianceRepository(exec).Delete(context.Background(), "u-1", "t-9"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDonationRepositoryTestimonialsHideAnonymousDonors(t *testing.T) {
	now := time.Now()
	exec := sqltest.NewExecutor().OnQuery(sqlinline.QListDonationTestimonials, sqltest.NewRows(
		[]any{"d-1", "u-1", "Thandiwe", "t@example.zm", "", int64(5000), "ZMW", "keep going", "", true, "paid", now},
		[]any{"d-2", nil, "Kondwani", "", "", int64(10000), "ZMW", "great work", "", false, "paid", now},
	))
	items, err := NewDonationRepository(exec).ListTestimonials(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListTestimonials: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].DonorName != "" || items[0].UserID != nil {
		t.Fatalf("anonymous donor leaked: %+v", items[0])
	}
	if items[1].DonorName != "Kondwani" {
		t.Fatalf("expected named donor, got %+v", items[1])
	}
}

func TestNotificationRepositoryMarkFailedPassesMaxAttempts(t *testing.T) {
	exec := sqltest.NewExecutor()
	repo := NewNotificationRepository(exec)

	if err := repo.MarkFailed(context.Background(), "n-1", "timeout", true); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	calls := exec.CallsTo(sqlinline.QMarkNotificationFailed)
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if calls[0].Args[2] != true || calls[0].Args[3] != MaxDeliveryAttempts {
		t.Fatalf("unexpected args %v", calls[0].Args)
	}
}

func TestFundingRepositoryUpsertReportsInsert(t *testing.T) {
	exec := sqltest.NewExecutor().OnQueryRow(sqlinline.QUpsertFunding, sqltest.NewRow("f-1", true))
	opp := &domain.FundingOpportunity{Hash: "abc", Title: "CEEC Grant", URL: "https://ceec.org.zm", Source: "ceec"}

	inserted, err := NewFundingRepository(exec).Upsert(context.Background(), opp)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !inserted || opp.ID != "f-1" {
		t.Fatalf("expected inserted row f-1, got %v %q", inserted, opp.ID)
	}
	args := exec.CallsTo(sqlinline.QUpsertFunding)[0].Args
	if sectors, ok := args[5].([]string); !ok || sectors == nil {
		t.Fatalf("sectors must be a non-nil slice, got %#v", args[5])
	}
}

func TestFundingRepositoryListClampsLimit(t *testing.T) {
	exec := sqltest.NewExecutor()
	if _, err := NewFundingRepository(exec).List(context.Background(), domain.FundingFilter{Limit: 5000, Offset: -3}); err != nil {
		t.Fatalf("List: %v", err)
	}
	args := exec.CallsTo(sqlinline.QListFunding)[0].Args
	if args[4] != defaultFundingPage || args[5] != 0 {
		t.Fatalf("unexpected paging args %v %v", args[4], args[5])
	}
}

func TestStatsRepositoryPlatformStats(t *testing.T) {
	exec := sqltest.NewExecutor().
		OnQueryRow(sqlinline.QPlatformStats, sqltest.NewRow(int64(10), int64(3), int64(150000), int64(20000), int64(4), int64(1))).
		OnQuery(sqlinline.QUsersByAccountType, sqltest.NewRows([]any{"sme", int64(7)}, []any{"donor", int64(3)}))

	stats, err := NewStatsRepository(exec).PlatformStats(context.Background())
	if err != nil {
		t.Fatalf("PlatformStats: %v", err)
	}
	if stats.TotalUsers != 10 || stats.UsersByAccountType["sme"] != 7 || stats.UsersByAccountType["donor"] != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSubscriptionRepositoryActivateRequiresPending(t *testing.T) {
	exec := sqltest.NewExecutor().OnExec(sqlinline.QActivateSubscription, sqltest.ExecResult{RowsAffected: 1}, sqltest.ExecResult{RowsAffected: 0})
	repo := NewSubscriptionRepository(exec)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Activate(context.Background(), "s-1", start, start.AddDate(0, 1, 0)); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := repo.Activate(context.Background(), "s-1", start, start.AddDate(0, 1, 0)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on second activation, got %v", err)
	}
}

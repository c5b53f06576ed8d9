package worker

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wathaci/internal/infra"
	"wathaci/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRunOnceRecordsOutcome(t *testing.T) {
	m := metrics.New()
	s := NewScheduler(m, infra.NopLogger())
	ctx := context.Background()

	s.RunOnce(ctx, Job{Name: "reminders", Run: func(context.Context) (int, error) { return 3, nil }})
	s.RunOnce(ctx, Job{Name: "reminders", Run: func(context.Context) (int, error) { return 0, nil }})
	s.RunOnce(ctx, Job{Name: "reconcile", Run: func(context.Context) (int, error) { return 0, errors.New("db down") }})
	s.RunOnce(ctx, Job{Name: "reconcile", Run: func(context.Context) (int, error) { return 0, context.Canceled }})

	out := scrape(t, m)
	assert.Contains(t, out, `wathaci_worker_runs_total{job="reminders",outcome="ok"} 1`)
	assert.Contains(t, out, `wathaci_worker_runs_total{job="reminders",outcome="idle"} 1`)
	assert.Contains(t, out, `wathaci_worker_runs_total{job="reconcile",outcome="error"} 1`)
}

func TestAddSkipsDisabledJobs(t *testing.T) {
	s := NewScheduler(nil, infra.NopLogger())
	s.Add(Job{Name: "crawl", Interval: 0, Run: func(context.Context) (int, error) { return 0, nil }})
	s.Add(Job{Name: "deliver", Interval: time.Second, Run: func(context.Context) (int, error) { return 0, nil }})

	assert.Equal(t, []string{"deliver"}, s.Jobs())
}

func TestRunStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(nil, infra.NopLogger())
	s.Add(Job{Name: "deliver", Interval: 5 * time.Millisecond, Run: func(context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

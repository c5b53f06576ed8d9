package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wathaci/internal/metrics"
)

// Job is one periodic unit of background work. Run reports how many items
// it handled.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler runs each job on its own ticker until the context ends.
type Scheduler struct {
	jobs    []Job
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewScheduler(m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{metrics: m, logger: logger}
}

// Add registers a job. Jobs with a non-positive interval are ignored.
func (s *Scheduler) Add(job Job) {
	if job.Interval <= 0 || job.Run == nil {
		s.logger.Info().Str("job", job.Name).Msg("worker: job disabled")
		return
	}
	s.jobs = append(s.jobs, job)
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.Name)
	}
	return names
}

// Run blocks until ctx is cancelled. Every job runs once immediately and
// then on each tick; a failing run is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		job := job
		g.Go(func() error {
			s.loop(ctx, job)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx, job)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single iteration of job and records its outcome.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) {
	n, err := job.Run(ctx)
	outcome := "ok"
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		return
	case err != nil:
		outcome = "error"
		s.logger.Error().Err(err).Str("job", job.Name).Msg("worker: job failed")
	case n == 0:
		outcome = "idle"
	default:
		s.logger.Info().Str("job", job.Name).Int("handled", n).Msg("worker: job done")
	}
	if s.metrics != nil {
		s.metrics.WorkerRuns.WithLabelValues(job.Name, outcome).Inc()
	}
}

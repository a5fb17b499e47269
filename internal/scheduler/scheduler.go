package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Scheduler runs one-shot delayed callbacks on a gocron scheduler.
type Scheduler struct {
	cron *gocron.Scheduler
	log  zerolog.Logger

	mu      sync.Mutex
	started bool
}

// New creates a Scheduler. Call Start before scheduling.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: gocron.NewScheduler(time.UTC),
		log:  log,
	}
}

// Start runs the underlying scheduler in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.StartAsync()
	s.started = true
}

// After runs fn once when d has elapsed. The returned cancel removes the job
// if it has not run yet.
func (s *Scheduler) After(d time.Duration, fn func()) (cancel func()) {
	if d <= 0 {
		go fn()
		return func() {}
	}

	var once sync.Once
	run := func() { once.Do(fn) }

	job, err := s.cron.Every(d).WaitForSchedule().LimitRunsTo(1).Do(run)
	if err != nil {
		s.log.Error().Err(err).Dur("delay", d).Msg("scheduler: job rejected, falling back to timer")
		t := time.AfterFunc(d, run)
		return func() { t.Stop() }
	}

	s.log.Debug().Dur("delay", d).Msg("scheduler: one-shot job scheduled")
	return func() {
		// Consuming once keeps a job that is already firing from running fn.
		once.Do(func() {})
		s.cron.RemoveByReference(job)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil && s.started {
		s.cron.Stop()
		s.started = false
	}
}

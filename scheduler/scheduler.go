package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// parser accepts standard five-field specs, six-field specs with a leading
// seconds field, and descriptors like @daily
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler runs recurring jobs. It must be started explicitly and stopped on shutdown.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	started bool
}

// New creates a stopped scheduler evaluating specs in loc
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
	}
}

// Validate reports whether spec can be scheduled
func (s *Scheduler) Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Add registers job and returns its id for Remove
func (s *Scheduler) Add(spec string, job func()) (int, error) {
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("failed to schedule %q: %w", spec, err)
	}
	return int(id), nil
}

// Remove unregisters a job. Unknown ids are ignored.
func (s *Scheduler) Remove(id int) {
	s.cron.Remove(cron.EntryID(id))
}

// Next returns when the job with id runs next, zero if unknown or not started
func (s *Scheduler) Next(id int) time.Time {
	return s.cron.Entry(cron.EntryID(id)).Next
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	log.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler jobs still running: %w", ctx.Err())
	}
}

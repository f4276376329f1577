package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kristiina602/collecting-stock/internal/log"
)

const jobTimeout = 2 * time.Minute

// Scheduler runs the summary export on a standard five-field cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	job    func(context.Context) error
	logger *log.Logger
}

// NewScheduler registers job under schedule, e.g. "0 20 * * 5".
func NewScheduler(schedule string, job func(context.Context) error, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Scheduler{
		cron:   cron.New(),
		job:    job,
		logger: logger.WithComponent(log.ComponentScheduler),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule summary export %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// Next reports when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled summary export failed", log.FieldError, err)
		return
	}
	s.logger.InfoContext(ctx, "Scheduled summary export completed",
		log.FieldDuration, time.Since(start).Milliseconds())
}

package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Pruner drops expired entries and reports how many were removed.
type Pruner interface {
	Prune() int
}

// Scheduler periodically prunes the lookup history.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, pruner Pruner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		pruner:    pruner,
		interval:  interval,
	}
}

// Start schedules the prune job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.pruner == nil {
		log.Println("scheduler: no history store configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(s.runPrune)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runPrune() {
	if removed := s.pruner.Prune(); removed > 0 {
		log.Printf("scheduler: pruned %d expired lookups", removed)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

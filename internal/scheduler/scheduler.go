// Package scheduler triggers periodic cache warm scans on a cron
// schedule.
package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/oliveplex/oliveplex/internal/jobs"
)

// Scheduler warms the whole media tree on the configured cron expression
// so the first browse after a quiet night still hits warm caches.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher jobs.Dispatcher
}

func New(dispatcher jobs.Dispatcher) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
	}
}

// Schedule registers a warm scan of the media root under the given cron
// expression (standard five-field format).
func (s *Scheduler) Schedule(expression string) error {
	_, err := s.cron.AddFunc(expression, func() {
		log.Println("[scheduler] scheduled warm scan starting")
		if _, err := s.dispatcher.Warm(""); err != nil {
			log.Printf("[scheduler] warm scan dispatch failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("bad schedule %q: %w", expression, err)
	}
	return nil
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[scheduler] cron scheduler started")
}

// Stop halts the cron loop, waiting for a running trigger to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] scheduler stopped")
}

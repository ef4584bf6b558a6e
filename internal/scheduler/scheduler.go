// scheduler.go - Periodic marine cache warm-up for the spot table

package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/tidewatch/poseidon/internal/forecast"
)

// Scheduler periodically pre-fetches marine data for every known spot
// so live requests usually hit a warm cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	marine    forecast.Extractor
	spots     map[string]forecast.Coordinates
	interval  time.Duration
}

// New creates a Scheduler over the marine backend and the spot table.
func New(marine forecast.Extractor, spots map[string]forecast.Coordinates, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		marine:    marine,
		spots:     spots,
		interval:  interval,
	}
}

// Start schedules the periodic warm-up job and starts the scheduler.
func (s *Scheduler) Start() error {
	if len(s.spots) == 0 {
		log.Println("scheduler: no spots configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: warming marine cache")

		var wg sync.WaitGroup
		for name, coords := range s.spots {
			name, coords := name, coords
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				c := s.marine.Extract(ctx, forecast.ExtractionInput{
					Coords: &coords,
					Date:   time.Now().UTC(),
				})
				if c.Failed() {
					log.Printf("scheduler: warm-up failed for %s: %s (%v)", name, c.Failure, c.Err)
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: marine cache warm-up complete")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

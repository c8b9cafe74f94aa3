// Package scheduler runs recurring jobs: the daily digest at a fixed
// wall-clock time and interval jobs such as the seed-table sync.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/coinwatch/pkg/logger"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Job is a unit of scheduled work. Jobs receive the scheduler's
// context and must return promptly once it is done.
type Job func(ctx context.Context)

type entry struct {
	name string
	run  func(ctx context.Context)
}

// Scheduler owns a set of recurring jobs. Start launches one goroutine
// per job; Stop cancels them and waits for completion.
type Scheduler struct {
	log     logger.Logger
	entries []entry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(log logger.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// AddDaily schedules job at the given local wall-clock time ("15:04"),
// every day.
func (s *Scheduler) AddDaily(name, at string, job Job) error {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return fmt.Errorf("invalid daily time %q: %w", at, err)
	}
	hour, minute := t.Hour(), t.Minute()

	s.entries = append(s.entries, entry{
		name: name,
		run: func(ctx context.Context) {
			for {
				timer := time.NewTimer(untilNext(time.Now(), hour, minute))
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
					s.log.WithField("job", name).Info("running daily job")
					job(ctx)
				}
			}
		},
	})
	return nil
}

// AddEvery schedules job at a fixed interval given in extended
// duration notation ("12h", "1d", "30m").
func (s *Scheduler) AddEvery(name, every string, job Job) error {
	interval, err := str2duration.ParseDuration(every)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", every, err)
	}
	if interval <= 0 {
		return fmt.Errorf("interval %q must be positive", every)
	}

	s.entries = append(s.entries, entry{
		name: name,
		run: func(ctx context.Context) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.log.WithField("job", name).Info("running interval job")
					job(ctx)
				}
			}
		},
	})
	return nil
}

// Start launches all registered jobs. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.wg.Add(1)
		go func(e entry) {
			defer s.wg.Done()
			e.run(ctx)
		}(e)
	}
	s.log.WithField("jobs", len(s.entries)).Info("scheduler started")
}

// Stop cancels all jobs and blocks until their goroutines exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// untilNext computes the wait until the next hh:mm after now.
func untilNext(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

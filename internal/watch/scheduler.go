package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/watch/events"
)

// Scheduler wraps a gocron scheduler to request periodic full rebuilds.
// Scheduled requests flow through the same debouncer as file changes, so a
// tick during an edit burst coalesces instead of stacking builds.
type Scheduler struct {
	scheduler gocron.Scheduler
	bus       *events.Bus
}

// NewScheduler creates a scheduler publishing on bus.
func NewScheduler(bus *events.Bus) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, bus: bus}, nil
}

// SchedulePeriodicRebuild registers a rebuild request at the given interval.
// Returns the job ID for later management.
func (s *Scheduler) SchedulePeriodicRebuild(ctx context.Context, interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.requestRebuild, ctx),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) requestRebuild(ctx context.Context) {
	slog.Info("scheduled rebuild requested")
	_ = s.bus.Publish(ctx, events.BuildRequested{Reason: "scheduled", RequestedAt: time.Now()})
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

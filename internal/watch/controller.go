package watch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/latex"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/watch/events"
)

// Builder runs one full build. Implemented by *latex.Service.
type Builder interface {
	Build(ctx context.Context) (*latex.BuildReport, error)
}

// Controller is the single consumer of BuildNow events. Serializing builds
// through one goroutine guarantees at most one pipeline run at a time; the
// debouncer queues at most one follow-up while a build is in flight.
type Controller struct {
	bus     *events.Bus
	builder Builder

	running   atomic.Bool
	readyOnce sync.Once
	ready     chan struct{}
}

func NewController(bus *events.Bus, builder Builder) (*Controller, error) {
	if bus == nil {
		return nil, ferrors.ValidationError("bus is required").Build()
	}
	if builder == nil {
		return nil, ferrors.ValidationError("builder is required").Build()
	}
	return &Controller{bus: bus, builder: builder, ready: make(chan struct{})}, nil
}

// Running reports whether a build is currently in flight. Wired into the
// debouncer's CheckBuildRunning.
func (c *Controller) Running() bool { return c.running.Load() }

// Ready is closed once Run has subscribed to events.
func (c *Controller) Ready() <-chan struct{} { return c.ready }

func (c *Controller) Run(ctx context.Context) error {
	buildCh, unsubscribe := events.Subscribe[events.BuildNow](c.bus, 1)
	defer unsubscribe()

	c.readyOnce.Do(func() { close(c.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-buildCh:
			if !ok {
				return nil
			}
			c.build(ctx, evt)
		}
	}
}

func (c *Controller) build(ctx context.Context, evt events.BuildNow) {
	c.running.Store(true)
	defer c.running.Store(false)

	slog.Info("rebuild triggered",
		slog.String("cause", evt.DebounceCause),
		slog.String("reason", evt.LastReason),
		slog.Int("coalesced_requests", evt.RequestCount))

	report, err := c.builder.Build(ctx)
	if err != nil && report == nil {
		// Detection failed before any pass ran; watch mode stays alive so
		// the user can fix the project and save again.
		slog.Error("build not started", logfields.Error(err))
		_ = c.bus.Publish(ctx, events.BuildCompleted{
			Outcome:    string(latex.OutcomeFailed),
			FinishedAt: time.Now(),
		})
		return
	}

	_ = c.bus.Publish(ctx, events.BuildCompleted{
		BuildID:      report.ID,
		Outcome:      string(report.Outcome),
		Entry:        report.Entry,
		Artifact:     report.Artifact,
		ErrorCount:   report.ErrorCount,
		WarningCount: report.WarningCount,
		Duration:     report.Duration(),
		FinishedAt:   time.Now(),
	})
}

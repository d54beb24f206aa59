// Package watch implements continuous rebuild mode: a filesystem watcher,
// a debouncer that coalesces edit bursts, a single-consumer build
// controller, an optional periodic rebuild scheduler, and the status
// surfaces (HTTP, SSE, NATS).
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/latex"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/metrics"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/watch/events"
)

// Options assembles a Daemon.
type Options struct {
	Dir     string
	Project *config.Project
	Global  *config.Global

	// Builder runs one build per BuildNow event. Required.
	Builder Builder
	// Recorder receives watch metrics. Nil means noop.
	Recorder metrics.Recorder
	// Registry, when non-nil, is served at /metrics on the status server.
	Registry *prom.Registry
}

// Daemon owns the watch-mode component graph and its lifecycle.
type Daemon struct {
	opts Options
	bus  *events.Bus
}

func NewDaemon(opts Options) *Daemon {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Daemon{opts: opts, bus: events.NewBus()}
}

// Bus exposes the event bus for tests and auxiliary consumers.
func (d *Daemon) Bus() *events.Bus { return d.bus }

// Run builds once immediately, then watches until ctx is canceled. The
// initial build failing does not stop the daemon: the user fixes the source
// and the next save rebuilds.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.bus.Close()

	controller, err := NewController(d.bus, d.opts.Builder)
	if err != nil {
		return err
	}

	watchCfg := d.opts.Project.Watch
	debouncer, err := NewDebouncer(d.bus, DebouncerConfig{
		QuietWindow:       watchCfg.QuietWindow,
		MaxDelay:          watchCfg.MaxDelay,
		CheckBuildRunning: controller.Running,
	})
	if err != nil {
		return err
	}

	watcher, err := NewWatcher(d.bus, d.opts.Dir, d.opts.Recorder)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				slog.Error("watch component failed", slog.String("component", name), logfields.Error(err))
			}
		}()
	}

	start("controller", controller.Run)
	start("debouncer", debouncer.Run)
	<-controller.Ready()
	<-debouncer.Ready()

	start("watcher", watcher.Run)

	if interval := watchCfg.FullRebuildInterval; interval > 0 {
		scheduler, err := NewScheduler(d.bus)
		if err != nil {
			return err
		}
		if _, err := scheduler.SchedulePeriodicRebuild(ctx, interval); err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				slog.Warn("scheduler shutdown", logfields.Error(err))
			}
		}()
	}

	if d.opts.Global != nil && d.opts.Global.Metrics.Enabled {
		server := NewStatusServer(d.opts.Global.Metrics.Listen, d.opts.Registry, controller.Running)
		start("status_server", server.Run)
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.Consume(ctx, d.bus)
		}()
	}

	if d.opts.Global != nil && d.opts.Global.NATS.URL != "" {
		publisher, err := NewNATSPublisher(d.opts.Global.NATS)
		if err != nil {
			// Degrade: watch mode works without the event sink.
			slog.Warn("NATS publisher disabled", logfields.Error(err))
		} else {
			defer publisher.Close()
			wg.Add(1)
			go func() {
				defer wg.Done()
				publisher.Consume(ctx, d.bus)
			}()
		}
	}

	// Initial build so the artifact reflects the tree as found.
	_ = d.bus.Publish(ctx, events.BuildRequested{Reason: "manual", RequestedAt: time.Now()})

	<-ctx.Done()
	wg.Wait()
	return nil
}

var _ Builder = (*latex.Service)(nil)

package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/history"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/latex"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/metrics"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/watch"
)

// WatchCmd implements 'smartlatex watch': build once, then rebuild on every
// settled burst of source changes until interrupted.
type WatchCmd struct {
	KeepAux bool `help:"Leave auxiliary files in place after successful builds"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	project, err := loadProject(root.Dir, g.Config)
	if err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if g.Config.Metrics.Enabled {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	service := latex.NewService(root.Dir, project, latex.NewRecorderObserver(recorder))
	service.ReportsDir = g.Paths.BuildsDir()
	service.SkipFinalize = w.KeepAux

	if historyEnabled(g) {
		store, err := history.Open(historyPath(g))
		if err != nil {
			g.Logger.Warn("build history disabled", logfields.Error(err))
		} else {
			defer store.Close()
			service.History = store
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	daemon := watch.NewDaemon(watch.Options{
		Dir:      root.Dir,
		Project:  project,
		Global:   g.Config,
		Builder:  service,
		Recorder: recorder,
		Registry: registry,
	})
	return daemon.Run(ctx)
}

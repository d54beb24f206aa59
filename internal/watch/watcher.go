package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/metrics"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/watch/events"
)

// sourceExtensions are the file types whose changes trigger a rebuild.
// Everything else, notably compiler outputs in the same directory, is
// ignored so a build never re-triggers itself.
var sourceExtensions = map[string]bool{
	".tex": true,
	".bib": true,
	".sty": true,
	".cls": true,
	".bst": true,
}

// Watcher turns filesystem events under a project directory into
// SourceChanged and BuildRequested bus events.
type Watcher struct {
	bus      *events.Bus
	dir      string
	recorder metrics.Recorder

	fsw     *fsnotify.Watcher
	watched int
}

func NewWatcher(bus *events.Bus, dir string, recorder metrics.Recorder) (*Watcher, error) {
	if bus == nil {
		return nil, ferrors.ValidationError("bus is required").Build()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "create filesystem watcher").Build()
	}
	return &Watcher{bus: bus, dir: dir, recorder: recorder, fsw: fsw}, nil
}

// Run watches until the context is canceled. Directories created while
// running are added to the watch set, so new chapter directories are picked
// up without a restart.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addTree(w.dir); err != nil {
		return err
	}
	slog.Info("watching for changes", logfields.Dir(w.dir), slog.Int("dirs", w.watched))

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, evt)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("filesystem watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, evt fsnotify.Event) {
	// Chmod-only events carry no content change.
	if evt.Op == fsnotify.Chmod {
		return
	}

	if evt.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(evt.Name); err == nil && fi.IsDir() {
			_ = w.addTree(evt.Name)
			return
		}
	}

	if !w.relevant(evt.Name) {
		return
	}

	now := time.Now()
	_ = w.bus.Publish(ctx, events.SourceChanged{Path: evt.Name, Op: evt.Op.String(), ChangedAt: now})
	_ = w.bus.Publish(ctx, events.BuildRequested{Reason: "source_changed", Path: evt.Name, RequestedAt: now})
}

// relevant reports whether a change to path should trigger a rebuild.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if base == config.ProjectFileName {
		return true
	}
	if strings.HasPrefix(base, ".") {
		return false
	}
	return sourceExtensions[strings.ToLower(filepath.Ext(base))]
}

// addTree registers dir and every subdirectory, skipping hidden trees.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		w.watched++
		return nil
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "register watch directories").
			WithContext("dir", root).Build()
	}
	w.recorder.SetWatchedPaths(w.watched)
	return nil
}

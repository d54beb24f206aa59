package latex

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
)

// HistoryRecorder persists finished build reports. Implemented by the history
// package; nil disables recording.
type HistoryRecorder interface {
	Record(ctx context.Context, report *BuildReport) error
}

// Service ties detection, the pipeline, and finalization into one build
// operation. A Service is bound to one project directory and configuration;
// watch mode reuses it across rebuilds so bibliography fingerprints carry
// over.
type Service struct {
	dir      string
	cfg      *config.Project
	pipeline *Pipeline

	// ReportsDir receives persisted build reports; empty disables persistence.
	ReportsDir string
	// History records finished builds; nil disables.
	History HistoryRecorder
	// SkipFinalize leaves auxiliary files in place after a successful build.
	SkipFinalize bool
	// RawOutput, when set, receives every pass's combined output verbatim.
	RawOutput io.Writer
}

// NewService builds a service around an ExecRunner with the configured
// per-pass timeout.
func NewService(dir string, cfg *config.Project, observer BuildObserver) *Service {
	var timeout time.Duration
	if cfg != nil {
		timeout = cfg.Timeout
	}
	return &Service{
		dir:      dir,
		cfg:      cfg,
		pipeline: NewPipeline(ExecRunner{Timeout: timeout}, observer, cfg),
	}
}

// NewServiceWithRunner is the injection point for tests.
func NewServiceWithRunner(dir string, cfg *config.Project, runner Runner, observer BuildObserver) *Service {
	return &Service{
		dir:      dir,
		cfg:      cfg,
		pipeline: NewPipeline(runner, observer, cfg),
	}
}

// Build runs one full build: detect, execute the chain, finalize on success,
// then persist and record the report. The report is non-nil whenever the
// pipeline ran, even on failure.
func (s *Service) Build(ctx context.Context) (*BuildReport, error) {
	plan, err := Detect(s.dir, s.cfg)
	if err != nil {
		return nil, err
	}

	s.pipeline.RawOutput = s.RawOutput

	report, runErr := s.pipeline.Run(ctx, s.dir, plan)

	if runErr == nil && !s.SkipFinalize {
		res, ferr := Finalize(s.dir, plan, s.cfg)
		if ferr != nil {
			runErr = ferr
			report.Outcome = OutcomeFailed
			report.Failure = ferr.Error()
		} else {
			report.Artifact = res.ArtifactPath
		}
	}

	s.persist(ctx, report)
	return report, runErr
}

// persist writes the report and the history row. Both are best effort: a
// telemetry failure never changes a build result.
func (s *Service) persist(ctx context.Context, report *BuildReport) {
	if s.ReportsDir != "" {
		if err := report.Persist(s.ReportsDir); err != nil {
			slog.Warn("persist build report", logfields.BuildID(report.ID), logfields.Error(err))
		}
	}
	if s.History != nil {
		if err := s.History.Record(ctx, report); err != nil {
			slog.Warn("record build history", logfields.BuildID(report.ID), logfields.Error(err))
		}
	}
}

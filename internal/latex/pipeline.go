package latex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/texlog"
)

// PassKind classifies one executed pass.
type PassKind string

const (
	PassOK       PassKind = "success"
	PassWarning  PassKind = "warning"  // non-fatal failure; record and continue
	PassFatal    PassKind = "fatal"    // build must abort
	PassCanceled PassKind = "canceled" // context cancellation
	PassSkipped  PassKind = "skipped"  // inputs unchanged, pass not needed
)

// Pipeline executes a build plan pass by pass, classifies each result, and
// produces a BuildReport. It keeps per-entry bibliography fingerprints so
// repeated builds in watch mode skip unchanged bibliography passes.
type Pipeline struct {
	runner     Runner
	observer   BuildObserver
	fatalTools map[ToolName]bool

	// RawOutput, when set, receives the combined output of every executed
	// pass as it finishes. Used by the CLI's raw log passthrough.
	RawOutput io.Writer

	mu        sync.Mutex
	bibPrints map[string]uint64
}

// NewPipeline builds a pipeline around a runner. A nil observer is replaced
// with a noop one.
func NewPipeline(runner Runner, observer BuildObserver, cfg *config.Project) *Pipeline {
	if observer == nil {
		observer = NoopObserver{}
	}
	fatal := make(map[ToolName]bool)
	if cfg != nil {
		for _, raw := range cfg.FatalTools {
			if tool, err := ParseToolName(raw); err == nil {
				fatal[tool] = true
			}
		}
	}
	return &Pipeline{
		runner:     runner,
		observer:   observer,
		fatalTools: fatal,
		bibPrints:  make(map[string]uint64),
	}
}

// Run executes the plan in dir. The returned report is never nil: on failure
// it describes how far the build got. The error mirrors report.Outcome and is
// non-nil exactly when the outcome is failed or canceled.
func (p *Pipeline) Run(ctx context.Context, dir string, plan Plan) (*BuildReport, error) {
	report := newBuildReport(plan)
	p.observer.BuildStarted(plan)

	slog.Info("build started",
		logfields.BuildID(report.ID),
		logfields.Entry(plan.Entry),
		logfields.Chain(ChainString(plan.Chain)))

	var lastCompilerOutput []byte
	var runErr error

passes:
	for i, tool := range plan.Chain {
		if err := ctx.Err(); err != nil {
			p.recordPass(report, PassResult{Tool: tool, Err: err}, PassCanceled, "")
			runErr = err
			break
		}

		if note, skip := p.shouldSkip(dir, plan.Entry, tool); skip {
			p.recordPass(report, PassResult{Tool: tool, Skipped: true, SkipNote: note}, PassSkipped, note)
			continue
		}

		res := p.runner.Run(ctx, dir, tool, plan.Entry)
		if p.RawOutput != nil {
			_, _ = p.RawOutput.Write(res.Output)
		}
		kind, reason := p.classify(tool, res)
		p.recordPass(report, res, kind, reason)

		if tool.IsCompiler() && kind != PassSkipped {
			lastCompilerOutput = res.Output
		}
		if tool.IsBibliography() && kind == PassOK {
			p.storeBibPrint(dir, plan.Entry, tool)
		}

		slog.Debug("pass finished",
			logfields.BuildID(report.ID),
			logfields.Tool(tool.String()),
			logfields.Pass(i+1),
			logfields.DurationMS(float64(res.Duration.Milliseconds())),
			slog.String("result", string(kind)))

		switch kind {
		case PassCanceled:
			runErr = res.Err
			break passes
		case PassFatal:
			runErr = p.fatalError(tool, res)
			break passes
		}
	}

	report.finish(texlog.Extract(lastCompilerOutput, plan.Entry))
	report.Outcome, runErr = p.outcome(report, runErr)
	if runErr != nil {
		report.Failure = runErr.Error()
	}

	p.observer.BuildFinished(report)
	slog.Info("build finished", logfields.BuildID(report.ID), slog.String("summary", report.Summary()))
	return report, runErr
}

// shouldSkip decides whether a pass can be elided because its inputs have not
// changed since the last run. Only bibliography and glossary passes are ever
// skipped; compilers always run.
func (p *Pipeline) shouldSkip(dir, entry string, tool ToolName) (string, bool) {
	switch {
	case tool.IsBibliography():
		print, ok := bibFingerprint(dir, entry, tool)
		if !ok {
			return "", false
		}
		if !fileExists(bblPath(dir, entry)) {
			return "", false
		}
		p.mu.Lock()
		prev, seen := p.bibPrints[bibKey(dir, entry)]
		p.mu.Unlock()
		if seen && prev == print {
			return "citations unchanged", true
		}
	case tool.IsGlossary():
		if !hasGlossaryInput(dir, entry) {
			return "no glossary entries", true
		}
	}
	return "", false
}

func (p *Pipeline) storeBibPrint(dir, entry string, tool ToolName) {
	if print, ok := bibFingerprint(dir, entry, tool); ok {
		p.mu.Lock()
		p.bibPrints[bibKey(dir, entry)] = print
		p.mu.Unlock()
	}
}

func bibKey(dir, entry string) string { return dir + "\x00" + entry }

func bblPath(dir, entry string) string {
	return filepath.Join(dir, EntryBase(entry)+".bbl")
}

// classify maps a raw pass result onto the abort policy: infrastructure
// failures and compiler non-zero exits are fatal, other tool failures are
// warnings unless the tool is configured fatal.
func (p *Pipeline) classify(tool ToolName, res PassResult) (PassKind, string) {
	switch {
	case res.Err != nil:
		if errors.Is(res.Err, context.Canceled) {
			return PassCanceled, res.Err.Error()
		}
		return PassFatal, res.Err.Error()
	case res.ExitCode == 0:
		return PassOK, ""
	case tool.IsCompiler():
		return PassFatal, fmt.Sprintf("%s exited with code %d", tool, res.ExitCode)
	case p.fatalTools[tool]:
		return PassFatal, fmt.Sprintf("%s exited with code %d (configured fatal)", tool, res.ExitCode)
	default:
		// Bibliography and glossary tools fail loudly on documents that do
		// not use them; the build proceeds and the report records the noise.
		return PassWarning, fmt.Sprintf("%s exited with code %d", tool, res.ExitCode)
	}
}

func (p *Pipeline) fatalError(tool ToolName, res PassResult) error {
	if res.Err != nil {
		return res.Err
	}
	if tool.IsCompiler() {
		return fmt.Errorf("%w: %s exited with code %d", ErrCompilerFailure, tool, res.ExitCode)
	}
	return fmt.Errorf("fatal tool %s exited with code %d", tool, res.ExitCode)
}

func (p *Pipeline) recordPass(report *BuildReport, res PassResult, kind PassKind, note string) {
	rec := PassRecord{
		Tool:     res.Tool.String(),
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		Result:   string(kind),
		SkipNote: note,
	}
	report.Passes = append(report.Passes, rec)
	p.observer.PassFinished(rec)
}

// outcome derives the final build status. Success requires both that no pass
// was fatal and that the last compiler pass emitted no error diagnostics:
// nonstopmode lets a compiler finish with errors baked into the PDF.
func (p *Pipeline) outcome(report *BuildReport, runErr error) (Outcome, error) {
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return OutcomeCanceled, runErr
		}
		return OutcomeFailed, runErr
	}
	if report.ErrorCount > 0 {
		return OutcomeFailed, fmt.Errorf("%w: %s", ErrCompilerFailure, firstErrorSummary(report.Diagnostics))
	}
	if report.WarningCount > 0 || p.anyPassWarned(report) {
		return OutcomeWarning, nil
	}
	return OutcomeSuccess, nil
}

func (p *Pipeline) anyPassWarned(report *BuildReport) bool {
	for _, rec := range report.Passes {
		if rec.Result == string(PassWarning) {
			return true
		}
	}
	return false
}

func firstErrorSummary(diags []texlog.Diagnostic) string {
	msgs := make([]string, 0, 3)
	for _, d := range diags {
		if d.Severity != texlog.SeverityError {
			continue
		}
		msgs = append(msgs, d.String())
		if len(msgs) == 3 {
			break
		}
	}
	return strings.Join(msgs, "; ")
}

package latex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/texlog"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// PassRecord captures one pass for the report.
type PassRecord struct {
	Tool     string        `json:"tool"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	Result   string        `json:"result"`
	SkipNote string        `json:"skip_note,omitempty"`
}

// BuildReport captures one pipeline run for history, metrics, and operators.
type BuildReport struct {
	SchemaVersion int                 `json:"schema_version"`
	ID            string              `json:"id"`
	Entry         string              `json:"entry"`
	Chain         []string            `json:"tool_chain"`
	Start         time.Time           `json:"start"`
	End           time.Time           `json:"end"`
	Passes        []PassRecord        `json:"passes"`
	Diagnostics   []texlog.Diagnostic `json:"diagnostics"`
	ErrorCount    int                 `json:"error_count"`
	WarningCount  int                 `json:"warning_count"`
	Outcome       Outcome             `json:"outcome"`
	Failure       string              `json:"failure,omitempty"`
	Artifact      string              `json:"artifact,omitempty"`
}

func newBuildReport(plan Plan) *BuildReport {
	chain := make([]string, len(plan.Chain))
	for i, t := range plan.Chain {
		chain[i] = string(t)
	}
	return &BuildReport{
		SchemaVersion: 1,
		ID:            uuid.NewString(),
		Entry:         plan.Entry,
		Chain:         chain,
		Start:         time.Now(),
	}
}

func (r *BuildReport) finish(diags []texlog.Diagnostic) {
	r.End = time.Now()
	r.Diagnostics = diags
	r.ErrorCount, r.WarningCount = 0, 0
	for _, d := range diags {
		switch d.Severity {
		case texlog.SeverityError:
			r.ErrorCount++
		case texlog.SeverityWarning:
			r.WarningCount++
		}
	}
}

// Duration returns the wall time of the run.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("entry=%s passes=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Entry, len(r.Passes), r.Duration().Truncate(time.Millisecond),
		r.ErrorCount, r.WarningCount, r.Outcome)
}

// Persist writes the report into dir as <id>.json plus a one-line text
// summary. Best effort: callers log failures without changing the build
// outcome.
func (r *BuildReport) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	jsonPath := filepath.Join(dir, r.ID+".json")
	if err := writeAtomic(jsonPath, data); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, r.ID+".txt"), []byte(r.Summary()+"\n"))
}

// writeAtomic writes via a temp file and rename so a crash never leaves a
// half-written report behind.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

package latex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
)

// PassResult captures one executed pass. A non-zero exit code is recorded,
// not returned as an error: the pipeline decides whether it is fatal.
type PassResult struct {
	Tool     ToolName
	ExitCode int
	Output   []byte
	Duration time.Duration
	Skipped  bool
	SkipNote string

	// Err is set only for infrastructure failures: binary not found,
	// timeout, or cancellation. Plain non-zero exits leave it nil.
	Err error
}

// Runner executes a single toolchain pass.
type Runner interface {
	Run(ctx context.Context, dir string, tool ToolName, entry string) PassResult
}

// ExecRunner runs passes as external processes with combined output capture.
type ExecRunner struct {
	// Timeout bounds one pass; zero means no limit. On expiry the process
	// is killed and the result carries a TimeoutError.
	Timeout time.Duration
}

// Run spawns the tool in dir, capturing stdout and stderr interleaved in
// chronological order. Diagnostics interleave with progress output, so a
// single buffer is required for correct file:line attribution downstream.
func (r ExecRunner) Run(ctx context.Context, dir string, tool ToolName, entry string) PassResult {
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	cmd := exec.CommandContext(runCtx, tool.String(), tool.Args(entry)...)
	cmd.Dir = dir
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	slog.Debug("running pass", logfields.Tool(tool.String()), logfields.Entry(entry), logfields.Dir(dir))

	start := time.Now()
	err := cmd.Run()
	result := PassResult{
		Tool:     tool,
		Output:   buf.Bytes(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
	case errors.Is(err, exec.ErrNotFound):
		result.Err = &ToolMissingError{Tool: tool, Err: err}
	case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		result.Err = &TimeoutError{Tool: tool}
	case ctx.Err() != nil:
		result.Err = ctx.Err()
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Err = err
		}
	}
	return result
}

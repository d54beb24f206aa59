package latex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
)

// fakeRunner returns scripted results keyed by call order and records the
// tools it was asked to run.
type fakeRunner struct {
	results []PassResult
	calls   []ToolName
}

func (f *fakeRunner) Run(_ context.Context, _ string, tool ToolName, _ string) PassResult {
	f.calls = append(f.calls, tool)
	if len(f.results) == 0 {
		return PassResult{Tool: tool}
	}
	res := f.results[0]
	f.results = f.results[1:]
	res.Tool = tool
	return res
}

func okResults(n int) []PassResult {
	out := make([]PassResult, n)
	return out
}

func TestPipelineSuccess(t *testing.T) {
	runner := &fakeRunner{results: okResults(1)}
	p := NewPipeline(runner, nil, nil)

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, []ToolName{PDFLaTeX}, runner.calls)
	require.Len(t, report.Passes, 1)
	assert.Equal(t, string(PassOK), report.Passes[0].Result)
}

func TestPipelineCompilerFailureAborts(t *testing.T) {
	runner := &fakeRunner{results: []PassResult{
		{ExitCode: 1, Output: []byte("./main.tex:3: Undefined control sequence.\n")},
	}}
	p := NewPipeline(runner, nil, nil)
	chain := []ToolName{PDFLaTeX, BibTeX, PDFLaTeX}

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: chain})
	assert.ErrorIs(t, err, ErrCompilerFailure)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	// The remaining passes never ran.
	assert.Equal(t, []ToolName{PDFLaTeX}, runner.calls)
	assert.Equal(t, 1, report.ErrorCount)
	assert.NotEmpty(t, report.Failure)
}

func TestPipelineBenignToolFailureContinues(t *testing.T) {
	runner := &fakeRunner{results: []PassResult{
		{},
		{ExitCode: 2, Output: []byte("I found no \\citation commands\n")},
		{},
		{},
	}}
	p := NewPipeline(runner, nil, nil)
	chain := []ToolName{PDFLaTeX, BibTeX, PDFLaTeX, PDFLaTeX}

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: chain})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Len(t, runner.calls, 4)
	assert.Equal(t, string(PassWarning), report.Passes[1].Result)
}

func TestPipelineConfiguredFatalTool(t *testing.T) {
	runner := &fakeRunner{results: []PassResult{
		{},
		{ExitCode: 2},
	}}
	cfg := &config.Project{FatalTools: []string{"biber"}}
	p := NewPipeline(runner, nil, cfg)
	chain := []ToolName{XeLaTeX, Biber, XeLaTeX}

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: chain})
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, []ToolName{XeLaTeX, Biber}, runner.calls)
}

func TestPipelineZeroExitWithErrorDiagnosticsFails(t *testing.T) {
	// nonstopmode can bake errors into the PDF and still exit zero.
	runner := &fakeRunner{results: []PassResult{
		{Output: []byte("(./main.tex\n! Undefined control sequence.\nl.9 \\oops\n)\n")},
	}}
	p := NewPipeline(runner, nil, nil)

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX}})
	assert.ErrorIs(t, err, ErrCompilerFailure)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, 1, report.ErrorCount)
}

func TestPipelineWarningDiagnosticsYieldWarningOutcome(t *testing.T) {
	runner := &fakeRunner{results: []PassResult{
		{Output: []byte("(./main.tex\nLaTeX Warning: Reference `x' undefined on input line 4.\n)\n")},
	}}
	p := NewPipeline(runner, nil, nil)

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Equal(t, 1, report.WarningCount)
}

func TestPipelineDiagnosticsComeFromLastCompilerPass(t *testing.T) {
	runner := &fakeRunner{results: []PassResult{
		{Output: []byte("(./main.tex\nLaTeX Warning: Citation `a' undefined on input line 2.\n)\n")},
		{},
		{Output: []byte("(./main.tex\nLaTeX Warning: Citation `a' undefined on input line 2.\n)\n")},
		{Output: []byte("(./main.tex\n)\n")},
	}}
	p := NewPipeline(runner, nil, nil)
	chain := []ToolName{PDFLaTeX, BibTeX, PDFLaTeX, PDFLaTeX}

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: chain})
	require.NoError(t, err)
	// The transient citation warning resolved by the final pass.
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Zero(t, report.WarningCount)
}

func TestPipelineCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	p := NewPipeline(runner, nil, nil)

	report, err := p.Run(ctx, t.TempDir(), Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Empty(t, runner.calls)
}

func TestPipelineToolMissingIsFatal(t *testing.T) {
	runner := &fakeRunner{results: []PassResult{
		{Err: &ToolMissingError{Tool: PDFLaTeX, Err: os.ErrNotExist}},
	}}
	p := NewPipeline(runner, nil, nil)

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX}})
	assert.ErrorIs(t, err, ErrToolMissing)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

func TestPipelineSkipsGlossaryWithoutEntries(t *testing.T) {
	runner := &fakeRunner{results: okResults(3)}
	p := NewPipeline(runner, nil, nil)
	chain := []ToolName{PDFLaTeX, MakeGlossaries, PDFLaTeX, PDFLaTeX}

	report, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: chain})
	require.NoError(t, err)
	assert.Equal(t, []ToolName{PDFLaTeX, PDFLaTeX, PDFLaTeX}, runner.calls)
	assert.Equal(t, string(PassSkipped), report.Passes[1].Result)
	assert.Equal(t, "no glossary entries", report.Passes[1].SkipNote)
}

func TestPipelineSkipsBibliographyWhenCitationsUnchanged(t *testing.T) {
	dir := t.TempDir()
	aux := "\\relax\n\\citation{knuth}\n\\bibdata{refs}\n\\bibstyle{plain}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.aux"), []byte(aux), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.bbl"), []byte("bbl"), 0o644))

	runner := &fakeRunner{results: okResults(8)}
	p := NewPipeline(runner, nil, nil)
	plan := Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX, BibTeX, PDFLaTeX, PDFLaTeX}}

	_, err := p.Run(context.Background(), dir, plan)
	require.NoError(t, err)
	assert.Equal(t, []ToolName{PDFLaTeX, BibTeX, PDFLaTeX, PDFLaTeX}, runner.calls)

	// Citations unchanged on the second run: the bibliography pass is elided.
	runner.calls = nil
	report, err := p.Run(context.Background(), dir, plan)
	require.NoError(t, err)
	assert.Equal(t, []ToolName{PDFLaTeX, PDFLaTeX, PDFLaTeX}, runner.calls)
	assert.Equal(t, string(PassSkipped), report.Passes[1].Result)
}

func TestPipelineRerunsBibliographyWhenCitationsChange(t *testing.T) {
	dir := t.TempDir()
	auxPath := filepath.Join(dir, "main.aux")
	require.NoError(t, os.WriteFile(auxPath, []byte("\\citation{knuth}\n\\bibdata{refs}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.bbl"), []byte("bbl"), 0o644))

	runner := &fakeRunner{results: okResults(8)}
	p := NewPipeline(runner, nil, nil)
	plan := Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX, BibTeX, PDFLaTeX, PDFLaTeX}}

	_, err := p.Run(context.Background(), dir, plan)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(auxPath, []byte("\\citation{knuth}\n\\citation{lamport}\n\\bibdata{refs}\n"), 0o644))
	runner.calls = nil
	_, err = p.Run(context.Background(), dir, plan)
	require.NoError(t, err)
	assert.Contains(t, runner.calls, BibTeX)
}

type countingObserver struct {
	started  int
	passes   int
	finished int
}

func (o *countingObserver) BuildStarted(Plan)          { o.started++ }
func (o *countingObserver) PassFinished(PassRecord)    { o.passes++ }
func (o *countingObserver) BuildFinished(*BuildReport) { o.finished++ }

func TestPipelineNotifiesObserver(t *testing.T) {
	obs := &countingObserver{}
	runner := &fakeRunner{results: okResults(2)}
	p := NewPipeline(runner, obs, nil)

	_, err := p.Run(context.Background(), t.TempDir(), Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX, PDFLaTeX}})
	require.NoError(t, err)
	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 2, obs.passes)
	assert.Equal(t, 1, obs.finished)
}

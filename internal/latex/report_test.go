package latex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/texlog"
)

func TestReportPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()

	r := newBuildReport(Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX, BibTeX}})
	r.Passes = append(r.Passes, PassRecord{Tool: "pdflatex", Result: string(PassOK), Duration: time.Second})
	r.finish([]texlog.Diagnostic{
		{Severity: texlog.SeverityError, File: "main.tex", Line: 3, Message: "boom"},
		{Severity: texlog.SeverityWarning, Message: "meh"},
	})
	r.Outcome = OutcomeFailed

	require.NoError(t, r.Persist(dir))

	data, err := os.ReadFile(filepath.Join(dir, r.ID+".json"))
	require.NoError(t, err)

	var loaded BuildReport
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, r.ID, loaded.ID)
	assert.Equal(t, []string{"pdflatex", "bibtex"}, loaded.Chain)
	assert.Equal(t, 1, loaded.ErrorCount)
	assert.Equal(t, 1, loaded.WarningCount)
	assert.Equal(t, OutcomeFailed, loaded.Outcome)

	summary, err := os.ReadFile(filepath.Join(dir, r.ID+".txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "outcome=failed")
}

func TestReportSummaryCounts(t *testing.T) {
	r := newBuildReport(Plan{Entry: "main.tex", Chain: []ToolName{PDFLaTeX}})
	r.finish(nil)
	r.Outcome = OutcomeSuccess
	assert.Contains(t, r.Summary(), "errors=0 warnings=0 outcome=success")
}

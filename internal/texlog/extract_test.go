package texlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractErrorWithIncludeStack(t *testing.T) {
	log := []byte(`This is pdfTeX, Version 3.141592653
(./main.tex (./chapters/intro.tex
! Undefined control sequence.
l.42 \badmacro
))
`)
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "chapters/intro.tex", diags[0].File)
	assert.Equal(t, 42, diags[0].Line)
	assert.Equal(t, "Undefined control sequence.", diags[0].Message)
}

func TestExtractAttributesToInnermostOpenFile(t *testing.T) {
	log := []byte(`(./main.tex (./chapters/intro.tex)
LaTeX Warning: Reference ` + "`fig:one'" + ` undefined on input line 17.
)
`)
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	// intro.tex was closed before the warning, so main.tex is innermost.
	assert.Equal(t, "main.tex", diags[0].File)
	assert.Equal(t, 17, diags[0].Line)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestExtractErrorBeforeAnyOpenFileAttributesToEntry(t *testing.T) {
	// Errors emitted before the engine prints any include-file marker still
	// belong to the entry document.
	log := []byte("! Undefined control sequence.\nl.42 \\badmacro\n")
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "main.tex", diags[0].File)
	assert.Equal(t, 42, diags[0].Line)
}

func TestExtractFileLineErrorForm(t *testing.T) {
	log := []byte("./main.tex:10: Missing $ inserted.\n")
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "main.tex", diags[0].File)
	assert.Equal(t, 10, diags[0].Line)
	assert.Equal(t, "Missing $ inserted.", diags[0].Message)
}

func TestExtractWrappedPackageWarning(t *testing.T) {
	log := []byte(`(./main.tex
Package hyperref Warning: Token not allowed in a PDF string
(hyperref)                removing ` + "`math shift'" + `
(hyperref)                on input line 23.
)
`)
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, 23, diags[0].Line)
	assert.Contains(t, diags[0].Message, "Token not allowed")
	assert.Contains(t, diags[0].Message, "on input line 23.")
}

func TestExtractErrorWithoutLineContext(t *testing.T) {
	log := []byte(`(./main.tex
! Emergency stop.

)
`)
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "Emergency stop.", diags[0].Message)
	assert.Zero(t, diags[0].Line)
}

func TestExtractMultipleErrors(t *testing.T) {
	log := []byte(`(./main.tex
! Undefined control sequence.
l.3 \foo
! Missing \begin{document}.
l.7 x
)
`)
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 2)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, 7, diags[1].Line)
}

func TestExtractOverfullBoxAsInfo(t *testing.T) {
	log := []byte("(./main.tex\nOverfull \\hbox (12.3pt too wide) in paragraph at lines 10--12\n)\n")
	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityInfo, diags[0].Severity)
	assert.Equal(t, 10, diags[0].Line)
}

func TestExtractLatin1Transcript(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as a standalone UTF-8 byte.
	log := append([]byte("(./main.tex\n! Pr"), 0xE9)
	log = append(log, []byte("ambule error.\nl.5 x\n)\n")...)

	diags := Extract(log, "main.tex")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Préambule")
	assert.Equal(t, 5, diags[0].Line)
}

func TestExtractNoiseOnlyYieldsNothing(t *testing.T) {
	log := []byte(`This is pdfTeX, Version 3.141592653
(./main.tex [1] [2] (./main.aux))
Output written on main.pdf (2 pages, 12345 bytes).
`)
	assert.Empty(t, Extract(log, "main.tex"))
}

func TestCount(t *testing.T) {
	diags := []Diagnostic{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityError},
	}
	assert.Equal(t, 2, Count(diags, SeverityError))
	assert.Equal(t, 1, Count(diags, SeverityWarning))
	assert.Equal(t, 0, Count(diags, SeverityInfo))
}

package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilerArgs(t *testing.T) {
	args := PDFLaTeX.Args("thesis.tex")
	assert.Equal(t, []string{"-file-line-error", "-interaction=nonstopmode", "thesis.tex"}, args)
}

func TestBibliographyArgsUseBaseName(t *testing.T) {
	assert.Equal(t, []string{"thesis"}, BibTeX.Args("thesis.tex"))
	assert.Equal(t, []string{"thesis"}, Biber.Args("thesis.tex"))
}

func TestDviPDFMxArgs(t *testing.T) {
	assert.Equal(t, []string{"thesis.dvi"}, DviPDFMx.Args("thesis.tex"))
}

func TestParseToolNameNormalizes(t *testing.T) {
	tool, err := ParseToolName("  XeLaTeX ")
	require.NoError(t, err)
	assert.Equal(t, XeLaTeX, tool)
}

func TestParseToolNameRejectsUnknown(t *testing.T) {
	_, err := ParseToolName("tectonic")
	assert.ErrorIs(t, err, ErrInvalidTool)
}

func TestToolClassification(t *testing.T) {
	assert.True(t, LuaLaTeX.IsCompiler())
	assert.False(t, Biber.IsCompiler())
	assert.True(t, Biber.IsBibliography())
	assert.True(t, MakeGlossaries.IsGlossary())
	assert.False(t, DviPDFMx.IsCompiler())
}

func TestEntryBase(t *testing.T) {
	assert.Equal(t, "thesis", EntryBase("thesis.tex"))
	assert.Equal(t, "main", EntryBase("sub/main.tex"))
}

func TestChainString(t *testing.T) {
	s := ChainString([]ToolName{PDFLaTeX, BibTeX, PDFLaTeX})
	assert.Equal(t, "pdflatex, bibtex, pdflatex", s)
}

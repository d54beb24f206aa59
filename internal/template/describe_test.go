package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReadme(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(content), 0o644))
	return dir
}

func TestDescriptionFromReadme(t *testing.T) {
	dir := writeReadme(t, "# Thesis Template\n\nA two-sided thesis layout\nwith biber and glossaries.\n\nMore detail below.\n")
	assert.Equal(t, "A two-sided thesis layout with biber and glossaries.", descriptionFromReadme(dir))
}

func TestDescriptionFallsBackToTitle(t *testing.T) {
	dir := writeReadme(t, "# Beamer Slides\n")
	assert.Equal(t, "Beamer Slides", descriptionFromReadme(dir))
}

func TestDescriptionNoReadme(t *testing.T) {
	assert.Empty(t, descriptionFromReadme(t.TempDir()))
}

func TestDescriptionTruncated(t *testing.T) {
	long := strings.Repeat("word ", 60)
	dir := writeReadme(t, "# T\n\n"+long+"\n")

	desc := descriptionFromReadme(dir)
	assert.LessOrEqual(t, len(desc), maxDescriptionLen+3)
	assert.True(t, strings.HasSuffix(desc, "..."))
}

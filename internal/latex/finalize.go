package latex

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
)

// FinalizeResult reports what the finalizer did.
type FinalizeResult struct {
	// ArtifactPath is the final artifact location after any rename.
	ArtifactPath string
	// Removed lists the auxiliary files deleted by the clean step.
	Removed []string
}

// alwaysClean lists auxiliary suffixes every compiler run can leave behind.
var alwaysClean = []string{
	"aux", "log", "out", "toc", "lof", "lot",
	"synctex.gz", "fls", "fdb_latexmk", "nav", "snm", "vrb", "xdv",
}

var (
	bibClean      = []string{"bbl", "blg", "bcf", "run.xml"}
	glossaryClean = []string{"glg", "gls", "glo", "glsdefs", "ist"}
	dviClean      = []string{"dvi"}
)

// Finalize renames the artifact per configuration and removes auxiliary
// files. It runs only after a successful build; a missing artifact at this
// point is an error. Idempotent: re-running on a finalized directory is a
// no-op.
func Finalize(dir string, plan Plan, cfg *config.Project) (FinalizeResult, error) {
	artifact, err := resolveArtifact(dir, plan, cfg)
	if err != nil {
		return FinalizeResult{}, err
	}

	removed, err := Clean(dir, plan, cfg)
	if err != nil {
		return FinalizeResult{ArtifactPath: artifact}, err
	}
	return FinalizeResult{ArtifactPath: artifact, Removed: removed}, nil
}

// resolveArtifact locates the produced PDF and applies the configured rename.
// The output name is normalized to carry a .pdf extension.
func resolveArtifact(dir string, plan Plan, cfg *config.Project) (string, error) {
	produced := filepath.Join(dir, EntryBase(plan.Entry)+".pdf")

	var target string
	if cfg != nil && cfg.OutputName != "" {
		name := cfg.OutputName
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			name += ".pdf"
		}
		target = filepath.Join(dir, name)
	}

	if target == "" || target == produced {
		if !fileExists(produced) {
			return "", &MissingArtifactError{Path: produced}
		}
		return produced, nil
	}

	if fileExists(produced) {
		if err := os.Rename(produced, target); err != nil {
			return "", fmt.Errorf("rename artifact: %w", err)
		}
		slog.Debug("artifact renamed", logfields.Path(target))
		return target, nil
	}
	// Already renamed by a previous finalize run.
	if fileExists(target) {
		return target, nil
	}
	return "", &MissingArtifactError{Path: produced}
}

// Clean removes the auxiliary files the executed chain can have produced,
// plus any configured extras and the build/ scratch directory. The artifact
// itself is never in the clean set. Missing files are fine; only real removal
// failures are errors.
func Clean(dir string, plan Plan, cfg *config.Project) ([]string, error) {
	base := EntryBase(plan.Entry)

	var removed []string
	for _, suffix := range cleanSuffixes(plan.Chain, cfg) {
		path := filepath.Join(dir, base+"."+suffix)
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, filepath.Base(path))
		case os.IsNotExist(err):
		default:
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	buildDir := filepath.Join(dir, "build")
	if info, err := os.Stat(buildDir); err == nil && info.IsDir() {
		if err := os.RemoveAll(buildDir); err != nil {
			return removed, fmt.Errorf("remove %s: %w", buildDir, err)
		}
		removed = append(removed, "build/")
	}

	if len(removed) > 0 {
		slog.Debug("auxiliary files removed", logfields.Dir(dir), slog.Int("count", len(removed)))
	}
	return removed, nil
}

// cleanSuffixes assembles the clean set for the chain that actually ran, so
// a plain pdflatex project never touches bibliography or glossary files.
func cleanSuffixes(chain []ToolName, cfg *config.Project) []string {
	suffixes := append([]string(nil), alwaysClean...)

	var hasBib, hasGlossary, hasDVI bool
	for _, tool := range chain {
		switch {
		case tool.IsBibliography():
			hasBib = true
		case tool.IsGlossary():
			hasGlossary = true
		case tool == DviPDFMx || tool == LaTeX:
			hasDVI = true
		}
	}
	if hasBib {
		suffixes = append(suffixes, bibClean...)
	}
	if hasGlossary {
		suffixes = append(suffixes, glossaryClean...)
	}
	if hasDVI {
		suffixes = append(suffixes, dviClean...)
	}

	if cfg != nil {
		for _, extra := range cfg.CleanExtra {
			if s := strings.TrimPrefix(strings.TrimSpace(extra), "."); s != "" && s != "pdf" {
				suffixes = append(suffixes, s)
			}
		}
	}
	return suffixes
}

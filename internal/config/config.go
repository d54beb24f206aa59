// Package config loads the per-project build configuration and the
// user-level global configuration.
//
// Project configuration lives in a flat key = value file named .pdfmake in
// the working directory. Unknown keys are ignored for forward compatibility.
// Global configuration lives in ~/.smartlatex/config.yaml and supplies
// defaults for watch mode, the template registry, history, and telemetry.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProjectFileName is the per-project configuration file looked up in the
// working directory.
const ProjectFileName = ".pdfmake"

// Project represents the per-project build configuration. Immutable once
// resolved; created once per invocation from defaults overridden by the
// on-disk file if present.
type Project struct {
	// MainFile is the configured entry document, relative to the working
	// directory. Empty means auto-detect.
	MainFile string

	// OutputName renames the produced artifact after a successful build.
	// Empty keeps the compiler's conventional name.
	OutputName string

	// Compiler forces the compiler without fixing the whole chain.
	Compiler string

	// ToolChain is the explicit pass sequence. Entries may use the literal
	// placeholder "compiler", substituted with the resolved compiler at
	// detection time. Empty means synthesize a chain.
	ToolChain []string

	// CleanExtra lists additional file extensions removed by the clean step.
	CleanExtra []string

	// FatalTools lists non-compiler tools whose failure aborts the build
	// (compilers are always fatal).
	FatalTools []string

	// Timeout bounds a single pass; zero means no limit.
	Timeout time.Duration

	// Watch holds watch-mode tuning, defaulted from the global config.
	Watch WatchSettings
}

// WatchSettings tunes the watch-mode debouncer and scheduler.
type WatchSettings struct {
	QuietWindow         time.Duration
	MaxDelay            time.Duration
	FullRebuildInterval time.Duration // zero disables scheduled rebuilds
}

// DefaultProject returns the built-in project defaults.
func DefaultProject() *Project {
	return &Project{
		Watch: WatchSettings{
			QuietWindow: 500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
		},
	}
}

// LoadProject reads dir/.pdfmake over the defaults. A missing file is not an
// error; a malformed file is.
func LoadProject(dir string) (*Project, error) {
	p := DefaultProject()

	path := filepath.Join(dir, ProjectFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("open %s: %w", ProjectFileName, err)
	}
	defer f.Close()

	if err := parseProject(f, p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

func parseProject(r io.Reader, p *Project) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("line %d: expected key = value", lineNo)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if err := applyProjectKey(p, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// applyProjectKey sets one recognized key. Unknown keys are ignored, not
// errors, so older binaries tolerate newer files.
func applyProjectKey(p *Project, key, value string) error {
	switch key {
	case "main":
		p.MainFile = value
	case "out":
		p.OutputName = value
	case "compiler":
		p.Compiler = value
	case "tool_chain":
		p.ToolChain = splitList(value)
	case "clean_extra":
		p.CleanExtra = splitList(value)
	case "fatal_tools":
		p.FatalTools = splitList(value)
	case "timeout":
		return setDuration(&p.Timeout, key, value)
	case "quiet_window":
		return setDuration(&p.Watch.QuietWindow, key, value)
	case "max_delay":
		return setDuration(&p.Watch.MaxDelay, key, value)
	case "full_rebuild_interval":
		return setDuration(&p.Watch.FullRebuildInterval, key, value)
	default:
		// Unknown key: ignored.
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setDuration(dst *time.Duration, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, value)
	}
	if d < 0 {
		return fmt.Errorf("%s: duration must not be negative", key)
	}
	*dst = d
	return nil
}

// ApplyGlobalDefaults fills watch/build fields the project file left at their
// built-in defaults with values from the global configuration.
func (p *Project) ApplyGlobalDefaults(g *Global) {
	if g == nil {
		return
	}
	def := DefaultProject()
	if p.Watch.QuietWindow == def.Watch.QuietWindow {
		if d, err := time.ParseDuration(g.Watch.QuietWindow); err == nil && d > 0 {
			p.Watch.QuietWindow = d
		}
	}
	if p.Watch.MaxDelay == def.Watch.MaxDelay {
		if d, err := time.ParseDuration(g.Watch.MaxDelay); err == nil && d > 0 {
			p.Watch.MaxDelay = d
		}
	}
	if p.Watch.FullRebuildInterval == 0 && g.Watch.FullRebuildInterval != "" {
		if d, err := time.ParseDuration(g.Watch.FullRebuildInterval); err == nil && d > 0 {
			p.Watch.FullRebuildInterval = d
		}
	}
	if p.Timeout == 0 && g.Build.Timeout != "" {
		if d, err := time.ParseDuration(g.Build.Timeout); err == nil && d > 0 {
			p.Timeout = d
		}
	}
}

const initTemplate = `# Smart-Latex project configuration.
# All keys are optional; unknown keys are ignored.

# Entry document. Leave unset to auto-detect the single .tex file.
# main = thesis.tex

# Rename the produced PDF after a successful build.
# out = thesis-final.pdf

# Force a compiler without fixing the whole chain.
# compiler = xelatex

# Explicit pass sequence. The word "compiler" is replaced with the resolved
# compiler. When unset, the chain is synthesized from the document.
# tool_chain = compiler, biber, compiler, compiler

# Extra file extensions for the clean step (comma separated, no dots).
# clean_extra = tdo, loa

# Non-compiler tools whose failure should abort the build.
# fatal_tools = biber

# Per-pass time limit (Go duration). Unset or 0 disables the limit.
# timeout = 2m

# Watch mode: how long the tree must stay quiet before a rebuild, and the
# upper bound a rebuild may be postponed by an ongoing edit burst.
# quiet_window = 500ms
# max_delay = 5s

# Watch mode: rebuild from scratch at this interval even without changes.
# full_rebuild_interval = 1h
`

// Init writes a commented example project file. It refuses to overwrite an
// existing file unless force is set.
func Init(dir string, force bool) (string, error) {
	path := filepath.Join(dir, ProjectFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(initTemplate), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

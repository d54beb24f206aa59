package latex

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
)

// Plan is the resolved input of one build: the document to compile and the
// ordered pass sequence. Immutable once produced.
type Plan struct {
	Entry string
	Chain []ToolName
}

// DefaultCompiler is used when neither configuration nor a magic comment
// names one.
const DefaultCompiler = PDFLaTeX

// magicHeaderLines bounds how far into the entry file the magic comment is
// looked for.
const magicHeaderLines = 20

var (
	// %!TEX program = xelatex (TS- prefix and loose spacing tolerated)
	magicProgramRe = regexp.MustCompile(`(?i)^%\s*!TEX\s+(?:TS-)?program\s*=\s*([a-zA-Z0-9]+)`)
	// %!TEX xelatex short form
	magicShortRe = regexp.MustCompile(`(?i)^%\s*!TEX\s+(pdflatex|xelatex|lualatex|latex)\b`)

	bibliographyRe = regexp.MustCompile(`\\(bibliography|addbibresource)\s*\{`)
	glossaryRe     = regexp.MustCompile(`\\makeglossaries\b`)
)

// Detect resolves the entry file and toolchain for dir. It is pure over the
// filesystem: no writes, no processes.
func Detect(dir string, cfg *config.Project) (Plan, error) {
	entry, err := resolveEntry(dir, cfg)
	if err != nil {
		return Plan{}, err
	}

	chain, err := resolveChain(dir, entry, cfg)
	if err != nil {
		return Plan{}, err
	}

	return Plan{Entry: entry, Chain: chain}, nil
}

// resolveEntry applies the configured main file or scans the directory for
// exactly one .tex document.
func resolveEntry(dir string, cfg *config.Project) (string, error) {
	if cfg != nil && cfg.MainFile != "" {
		entry := cfg.MainFile
		if !strings.EqualFold(filepath.Ext(entry), ".tex") {
			return "", fmt.Errorf("%w: main %q is not a .tex document", ErrConfig, entry)
		}
		if _, err := os.Stat(filepath.Join(dir, entry)); err != nil {
			return "", fmt.Errorf("%w: main %q: %v", ErrConfig, entry, err)
		}
		return entry, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tex"))
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNoEntryFile, dir)
	case 1:
		return filepath.Base(matches[0]), nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = filepath.Base(m)
		}
		return "", &AmbiguousEntryError{Candidates: names}
	}
}

// resolveChain uses the configured chain verbatim when present, otherwise
// synthesizes one from the detected compiler and source-scan heuristics.
func resolveChain(dir, entry string, cfg *config.Project) ([]ToolName, error) {
	compiler := detectCompiler(filepath.Join(dir, entry))
	if cfg != nil && cfg.Compiler != "" {
		parsed, err := ParseToolName(cfg.Compiler)
		if err != nil {
			return nil, err
		}
		if !parsed.IsCompiler() {
			return nil, fmt.Errorf("%w: configured compiler %q is not a compiler", ErrConfig, cfg.Compiler)
		}
		compiler = parsed
	}

	if cfg != nil && len(cfg.ToolChain) > 0 {
		return ParseToolChain(cfg.ToolChain, compiler)
	}

	return synthesizeChain(filepath.Join(dir, entry), compiler), nil
}

// detectCompiler scans the first lines of the entry file for a magic comment
// naming a compiler. Absence is not an error: the default compiler applies.
func detectCompiler(path string) ToolName {
	f, err := os.Open(path)
	if err != nil {
		return DefaultCompiler
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; scanner.Scan() && i < magicHeaderLines; i++ {
		line := scanner.Text()
		var name string
		if m := magicProgramRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := magicShortRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		}
		if name == "" {
			continue
		}
		tool, err := ParseToolName(name)
		if err != nil || !tool.IsCompiler() {
			slog.Debug("ignoring magic comment with unusable program", "program", name)
			continue
		}
		return tool
	}
	return DefaultCompiler
}

// synthesizeChain builds a default pass sequence around the compiler.
// Bibliography and glossary passes are inserted only when the source
// references them; these are best-effort heuristics and an explicit
// tool_chain always wins.
func synthesizeChain(path string, compiler ToolName) []ToolName {
	hasBib, hasGlossary := scanSourceFeatures(path)

	chain := []ToolName{compiler}
	if hasBib {
		chain = append(chain, bibliographyToolFor(compiler))
	}
	if hasGlossary {
		chain = append(chain, MakeGlossaries)
	}
	if hasBib || hasGlossary {
		// Two trailing compiler passes so citations and cross-references
		// settle.
		chain = append(chain, compiler, compiler)
	}
	if compiler == LaTeX {
		// The DVI route needs a final conversion to PDF.
		chain = append(chain, DviPDFMx)
	}
	return chain
}

// bibliographyToolFor pairs modern Unicode engines with biber and the
// classic engines with bibtex.
func bibliographyToolFor(compiler ToolName) ToolName {
	switch compiler {
	case XeLaTeX, LuaLaTeX:
		return Biber
	default:
		return BibTeX
	}
}

func scanSourceFeatures(path string) (hasBib, hasGlossary bool) {
	f, err := os.Open(path)
	if err != nil {
		return false, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '%'); idx >= 0 {
			// Strip comments so a commented-out \bibliography does not
			// trigger a pass. Escaped \% is rare in preamble commands.
			line = line[:idx]
		}
		if !hasBib && bibliographyRe.MatchString(line) {
			hasBib = true
		}
		if !hasGlossary && glossaryRe.MatchString(line) {
			hasGlossary = true
		}
		if hasBib && hasGlossary {
			break
		}
	}
	return hasBib, hasGlossary
}

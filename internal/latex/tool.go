// Package latex implements the build engine: entry and toolchain detection,
// per-pass process execution, the multi-pass pipeline, and artifact
// finalization.
package latex

import (
	"path/filepath"
	"strings"
)

// ToolName identifies one external tool in a toolchain. The set is closed:
// every valid value appears below and carries its own invocation convention,
// so an unrecognized name is caught at parse time rather than at spawn time.
type ToolName string

const (
	PDFLaTeX       ToolName = "pdflatex"
	XeLaTeX        ToolName = "xelatex"
	LuaLaTeX       ToolName = "lualatex"
	LaTeX          ToolName = "latex"
	BibTeX         ToolName = "bibtex"
	Biber          ToolName = "biber"
	DviPDFMx       ToolName = "dvipdfmx"
	MakeGlossaries ToolName = "makeglossaries"
)

// CompilerPlaceholder may appear in a configured tool_chain and is replaced
// with the resolved compiler at detection time.
const CompilerPlaceholder = "compiler"

type toolClass int

const (
	classCompiler toolClass = iota
	classBibliography
	classGlossary
	classPostProcess
)

type toolSpec struct {
	class toolClass
	args  func(entry string) []string
}

// compilerArgs builds the batch-mode argument list shared by all compilers.
// -interaction=nonstopmode keeps a failing run from blocking on terminal
// input; -file-line-error makes errors carry file:line: prefixes.
func compilerArgs(entry string) []string {
	return []string{"-file-line-error", "-interaction=nonstopmode", entry}
}

// baseArgs passes the entry base name without extension, the convention for
// bibliography and glossary processors.
func baseArgs(entry string) []string {
	return []string{EntryBase(entry)}
}

var toolSpecs = map[ToolName]toolSpec{
	PDFLaTeX: {class: classCompiler, args: compilerArgs},
	XeLaTeX:  {class: classCompiler, args: compilerArgs},
	LuaLaTeX: {class: classCompiler, args: compilerArgs},
	LaTeX:    {class: classCompiler, args: compilerArgs},
	BibTeX:   {class: classBibliography, args: baseArgs},
	Biber:    {class: classBibliography, args: baseArgs},
	MakeGlossaries: {class: classGlossary, args: baseArgs},
	DviPDFMx: {class: classPostProcess, args: func(entry string) []string {
		return []string{EntryBase(entry) + ".dvi"}
	}},
}

// EntryBase returns the entry file name without directory or extension,
// i.e. the base name the toolchain derives all auxiliary files from.
func EntryBase(entry string) string {
	name := filepath.Base(entry)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (t ToolName) String() string { return string(t) }

// IsCompiler reports whether t is a LaTeX compiler pass.
func (t ToolName) IsCompiler() bool { return toolSpecs[t].class == classCompiler }

// IsBibliography reports whether t processes bibliography data.
func (t ToolName) IsBibliography() bool { return toolSpecs[t].class == classBibliography }

// IsGlossary reports whether t processes glossary data.
func (t ToolName) IsGlossary() bool { return toolSpecs[t].class == classGlossary }

// Args returns the conventional argument list for invoking t against the
// given entry file.
func (t ToolName) Args(entry string) []string { return toolSpecs[t].args(entry) }

// ParseToolName validates a raw tool name against the closed set.
func ParseToolName(raw string) (ToolName, error) {
	name := ToolName(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := toolSpecs[name]; !ok {
		return "", &InvalidToolError{Name: raw}
	}
	return name, nil
}

// ParseToolChain validates a configured chain, substituting the "compiler"
// placeholder with the resolved compiler. It fails before any process is
// spawned when an entry is not a recognized tool.
func ParseToolChain(raw []string, compiler ToolName) ([]ToolName, error) {
	chain := make([]ToolName, 0, len(raw))
	for _, entry := range raw {
		if strings.EqualFold(strings.TrimSpace(entry), CompilerPlaceholder) {
			chain = append(chain, compiler)
			continue
		}
		tool, err := ParseToolName(entry)
		if err != nil {
			return nil, err
		}
		chain = append(chain, tool)
	}
	return chain, nil
}

// ChainString renders a chain the way it is written in configuration files.
func ChainString(chain []ToolName) string {
	parts := make([]string, len(chain))
	for i, t := range chain {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

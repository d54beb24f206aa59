package latex

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the detection and build phases. Typed wrappers below
// carry detail; errors.Is against these sentinels works through Unwrap.
var (
	ErrConfig          = errors.New("invalid project configuration")
	ErrNoEntryFile     = errors.New("no entry file found")
	ErrAmbiguousEntry  = errors.New("multiple entry file candidates")
	ErrInvalidTool     = errors.New("unrecognized tool name")
	ErrToolMissing     = errors.New("tool binary not found")
	ErrCompilerFailure = errors.New("compiler pass failed")
	ErrMissingArtifact = errors.New("artifact missing after successful build")
	ErrTimeout         = errors.New("pass timed out")
)

// AmbiguousEntryError reports that the working directory holds more than one
// candidate document and no configured main file disambiguates them.
type AmbiguousEntryError struct {
	Candidates []string
}

func (e *AmbiguousEntryError) Error() string {
	return fmt.Sprintf("multiple entry file candidates (%s): set main in %s",
		strings.Join(e.Candidates, ", "), ".pdfmake")
}

func (e *AmbiguousEntryError) Unwrap() error { return ErrAmbiguousEntry }

// InvalidToolError reports an unrecognized name in a configured tool chain.
type InvalidToolError struct {
	Name string
}

func (e *InvalidToolError) Error() string {
	return fmt.Sprintf("unrecognized tool name %q", e.Name)
}

func (e *InvalidToolError) Unwrap() error { return ErrInvalidTool }

// ToolMissingError reports that the external binary for a pass is not
// installed. This is always fatal: the pipeline aborts immediately.
type ToolMissingError struct {
	Tool ToolName
	Err  error
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("tool binary %q not found in PATH: %v", e.Tool, e.Err)
}

func (e *ToolMissingError) Unwrap() error { return ErrToolMissing }

// TimeoutError reports that a pass exceeded the configured per-pass limit
// and was forcibly terminated.
type TimeoutError struct {
	Tool ToolName
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %q exceeded the configured timeout", e.Tool)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// MissingArtifactError reports that the expected output file is absent even
// though the build reported success.
type MissingArtifactError struct {
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("expected artifact %s does not exist", e.Path)
}

func (e *MissingArtifactError) Unwrap() error { return ErrMissingArtifact }

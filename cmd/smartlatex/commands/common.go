// Package commands defines the smartlatex CLI surface. Each subcommand is a
// kong command struct with a Run method; shared state resolved once after
// flag parsing is passed down through the Global context.
package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/latex"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/observability"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/workspace"
)

// Global carries state shared by all subcommands: the resolved workspace
// paths and the loaded global configuration.
type Global struct {
	Paths  workspace.Paths
	Config *config.Global
	Logger *slog.Logger
}

// CLI is the root command definition.
type CLI struct {
	Dir     string           `short:"C" help:"Project directory to operate in" default:"." type:"existingdir"`
	Config  string           `help:"Global configuration file (defaults to the workspace config.yaml)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" default:"withargs" help:"Build the document once"`
	Clean    CleanCmd    `cmd:"" help:"Remove auxiliary files produced by a build"`
	Init     InitCmd     `cmd:"" help:"Write a commented project configuration file"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild continuously on source changes"`
	History  HistoryCmd  `cmd:"" help:"Inspect recorded builds"`
	Template TemplateCmd `cmd:"" help:"Manage the template registry"`
}

// AfterApply runs once after flag parsing: load .env, resolve the workspace,
// load the global configuration, and install the logger.
func (c *CLI) AfterApply(kctx *kong.Context) error {
	if err := godotenv.Load(); err == nil && c.Verbose {
		slog.Debug("loaded environment from .env")
	}

	paths, err := workspace.Resolve()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve workspace").Build()
	}
	if err := paths.Ensure(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create workspace").Build()
	}

	configPath := c.Config
	if configPath == "" {
		configPath = paths.GlobalConfig()
	}
	global, err := config.LoadGlobal(configPath)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "load global configuration").Build()
	}
	config.ApplyEnvOverrides(global)

	level := config.NormalizeLogLevel(global.Logging.Level)
	if c.Verbose {
		level = config.LogLevelDebug
	}
	logger := observability.SetupLogging(level, config.NormalizeLogFormat(global.Logging.Format), os.Stderr)

	kctx.Bind(&Global{Paths: paths, Config: global, Logger: logger})
	return nil
}

// loadProject reads dir/.pdfmake with global defaults applied.
func loadProject(dir string, global *config.Global) (*config.Project, error) {
	project, err := config.LoadProject(dir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "load project configuration").Build()
	}
	project.ApplyGlobalDefaults(global)
	return project, nil
}

// classifyBuildError maps build-phase sentinel errors onto error categories
// so the exit code reflects what went wrong. Already classified errors pass
// through.
func classifyBuildError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}

	switch {
	case errors.Is(err, latex.ErrConfig):
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid project configuration").Build()
	case errors.Is(err, latex.ErrNoEntryFile), errors.Is(err, latex.ErrAmbiguousEntry):
		return ferrors.WrapError(err, ferrors.CategoryDetection, "entry detection failed").UserAction().Build()
	case errors.Is(err, latex.ErrInvalidTool), errors.Is(err, latex.ErrToolMissing):
		return ferrors.WrapError(err, ferrors.CategoryTool, "toolchain not usable").UserAction().Build()
	case errors.Is(err, latex.ErrCompilerFailure), errors.Is(err, latex.ErrTimeout),
		errors.Is(err, latex.ErrMissingArtifact):
		return ferrors.WrapError(err, ferrors.CategoryCompile, "build failed").Build()
	default:
		return err
	}
}

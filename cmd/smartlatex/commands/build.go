package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/history"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/latex"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
)

// BuildCmd implements 'smartlatex build': one detection, pipeline run, and
// finalize cycle in the project directory.
type BuildCmd struct {
	Out        string   `short:"o" help:"Rename the produced artifact (overrides the configured out)"`
	Chain      []string `help:"Override the tool chain (comma separated; 'compiler' placeholder allowed)"`
	KeepAux    bool     `help:"Leave auxiliary files in place after a successful build"`
	VerboseLog bool     `name:"verbose-log" help:"Print raw tool output instead of extracted diagnostics"`
	NoRec      bool     `name:"no-record" help:"Skip the build history record"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	project, err := loadProject(root.Dir, g.Config)
	if err != nil {
		return err
	}
	if b.Out != "" {
		project.OutputName = b.Out
	}
	if len(b.Chain) > 0 {
		project.ToolChain = b.Chain
	}

	service := latex.NewService(root.Dir, project, latex.NoopObserver{})
	service.ReportsDir = g.Paths.BuildsDir()
	service.SkipFinalize = b.KeepAux
	if b.VerboseLog {
		service.RawOutput = os.Stderr
	}

	if !b.NoRec && historyEnabled(g) {
		store, err := history.Open(historyPath(g))
		if err != nil {
			g.Logger.Warn("build history disabled", logfields.Error(err))
		} else {
			defer store.Close()
			service.History = store
		}
	}

	report, err := service.Build(context.Background())
	if report != nil {
		printReport(report, b.VerboseLog)
	}
	return classifyBuildError(err)
}

func printReport(report *latex.BuildReport, rawShown bool) {
	if !rawShown {
		for _, diag := range report.Diagnostics {
			fmt.Fprintln(os.Stderr, diag.String())
		}
	}
	fmt.Fprintln(os.Stdout, report.Summary())
	if report.Artifact != "" {
		fmt.Fprintf(os.Stdout, "artifact: %s\n", report.Artifact)
	}
}

func historyEnabled(g *Global) bool {
	return g.Config != nil && g.Config.History.Enabled
}

func historyPath(g *Global) string {
	if g.Config != nil && g.Config.History.Path != "" {
		return g.Config.History.Path
	}
	return g.Paths.HistoryDB()
}

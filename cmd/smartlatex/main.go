package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/LinhMuks-DFox/Smart-Latex/cmd/smartlatex/commands"
	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/version"
)

func main() {
	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("smartlatex"),
		kong.Description("Build automation for LaTeX projects: toolchain detection, multi-pass builds, diagnostics, watch mode, and templates."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("smartlatex %s (%s, built %s)", version.Version, version.GitCommit, version.BuildTime)},
		kong.Bind(&cli),
	)

	err := kctx.Run()
	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, nil)
	adapter.HandleError(err)
}

package commands

import (
	"fmt"
	"os"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/latex"
)

// CleanCmd implements 'smartlatex clean': remove the auxiliary files the
// configured toolchain would produce, without building.
type CleanCmd struct {
	Quiet bool `short:"q" help:"Do not list removed files"`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	project, err := loadProject(root.Dir, g.Config)
	if err != nil {
		return err
	}

	plan, err := latex.Detect(root.Dir, project)
	if err != nil {
		return classifyBuildError(err)
	}

	removed, err := latex.Clean(root.Dir, plan, project)
	if err != nil {
		return classifyBuildError(err)
	}

	if !c.Quiet {
		for _, path := range removed {
			fmt.Fprintln(os.Stdout, path)
		}
	}
	fmt.Fprintf(os.Stdout, "removed %d auxiliary files\n", len(removed))
	return nil
}

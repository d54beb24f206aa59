package commands

import (
	"fmt"
	"os"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
)

// InitCmd implements 'smartlatex init': write a commented .pdfmake into the
// project directory.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path, err := config.Init(root.Dir, i.Force)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "initialize project").UserAction().Build()
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", path)
	return nil
}

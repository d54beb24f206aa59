package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/retry"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/template"
)

// TemplateCmd groups template registry subcommands.
type TemplateCmd struct {
	List     TemplateListCmd     `cmd:"" default:"withargs" help:"List registered templates"`
	Register TemplateRegisterCmd `cmd:"" help:"Register a template from a directory, zip, git, or http source"`
	New      TemplateNewCmd      `cmd:"" help:"Instantiate a registered template into a directory"`
	Update   TemplateUpdateCmd   `cmd:"" help:"Re-snapshot an existing template from a source"`
	Delete   TemplateDeleteCmd   `cmd:"" help:"Delete a registered template"`
	Import   TemplateImportCmd   `cmd:"" help:"Register all zip archives linked from an index page"`
}

func openRegistry(g *Global) (*template.Registry, error) {
	return template.NewRegistry(g.Paths.TemplatesDir(), retry.FromSettings(g.Config.Templates.Retry), nil)
}

// TemplateListCmd implements 'smartlatex template list'.
type TemplateListCmd struct{}

func (t *TemplateListCmd) Run(g *Global) error {
	registry, err := openRegistry(g)
	if err != nil {
		return err
	}

	records, err := registry.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no templates registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tFETCHED\tDESCRIPTION")
	for _, rec := range records {
		fetched := "yes"
		if !rec.Fetched() {
			fetched = "lazy"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Name, rec.Kind, fetched, rec.Description)
	}
	return w.Flush()
}

// TemplateRegisterCmd implements 'smartlatex template register'.
type TemplateRegisterCmd struct {
	Name   string `arg:"" help:"Template name"`
	Source string `arg:"" help:"Directory, zip file, git URL, or http URL"`
}

func (t *TemplateRegisterCmd) Run(g *Global) error {
	registry, err := openRegistry(g)
	if err != nil {
		return err
	}

	rec, err := registry.Register(context.Background(), t.Name, t.Source)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "registered %s (%s)\n", rec.Name, rec.Kind)
	return nil
}

// TemplateNewCmd implements 'smartlatex template new'.
type TemplateNewCmd struct {
	Name string `arg:"" help:"Template name"`
	Dir  string `arg:"" optional:"" help:"Target directory (defaults to the template name)"`
}

func (t *TemplateNewCmd) Run(g *Global) error {
	registry, err := openRegistry(g)
	if err != nil {
		return err
	}

	dest := t.Dir
	if dest == "" {
		dest = t.Name
	}
	if err := registry.Materialize(context.Background(), t.Name, dest); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "created %s from template %s\n", dest, t.Name)
	return nil
}

// TemplateUpdateCmd implements 'smartlatex template update'.
type TemplateUpdateCmd struct {
	Name   string `arg:"" help:"Template name"`
	Source string `arg:"" help:"Directory, zip file, git URL, or http URL"`
}

func (t *TemplateUpdateCmd) Run(g *Global) error {
	registry, err := openRegistry(g)
	if err != nil {
		return err
	}

	rec, err := registry.Update(context.Background(), t.Name, t.Source)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "updated %s (%s)\n", rec.Name, rec.Kind)
	return nil
}

// TemplateDeleteCmd implements 'smartlatex template delete'.
type TemplateDeleteCmd struct {
	Name string `arg:"" help:"Template name"`
}

func (t *TemplateDeleteCmd) Run(g *Global) error {
	registry, err := openRegistry(g)
	if err != nil {
		return err
	}

	if err := registry.Delete(t.Name); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted %s\n", t.Name)
	return nil
}

// TemplateImportCmd implements 'smartlatex template import'.
type TemplateImportCmd struct {
	BaseURL string `name:"base-url" help:"Index page to scan (defaults to the configured base URL)"`
}

func (t *TemplateImportCmd) Run(g *Global) error {
	baseURL, err := resolveTemplateBaseURL(t.BaseURL, g.Config)
	if err != nil {
		return err
	}

	registry, err := openRegistry(g)
	if err != nil {
		return err
	}

	added, err := registry.Import(context.Background(), baseURL)
	if err != nil {
		return err
	}
	for _, rec := range added {
		fmt.Fprintf(os.Stdout, "registered %s -> %s\n", rec.Name, rec.Origin)
	}
	fmt.Fprintf(os.Stdout, "imported %d templates\n", len(added))
	return nil
}

// resolveTemplateBaseURL picks the import index URL: flag beats env beats the
// global config file.
func resolveTemplateBaseURL(flagBaseURL string, global *config.Global) (string, error) {
	if flagBaseURL != "" {
		return flagBaseURL, nil
	}
	if env := os.Getenv(config.EnvTemplateBaseURL); env != "" {
		return env, nil
	}
	if global != nil && global.Templates.BaseURL != "" {
		return global.Templates.BaseURL, nil
	}
	return "", ferrors.ValidationError(
		fmt.Sprintf("template base URL required (set --base-url, %s, or templates.base_url)", config.EnvTemplateBaseURL)).Build()
}

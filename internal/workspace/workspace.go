package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvHome overrides the workspace root, mainly for tests and containers.
const EnvHome = "SMARTLATEX_HOME"

const defaultDirName = ".smartlatex"

// Paths resolves the locations of everything Smart-Latex persists outside
// the working directory: the global config, the template registry, build
// reports, and the history database.
type Paths struct {
	root string
}

// Resolve determines the workspace root: $SMARTLATEX_HOME if set, otherwise
// ~/.smartlatex. The directory is not created until Ensure is called.
func Resolve() (Paths, error) {
	if root := os.Getenv(EnvHome); root != "" {
		return Paths{root: root}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return Paths{root: filepath.Join(home, defaultDirName)}, nil
}

// Root returns the workspace root directory.
func (p Paths) Root() string {
	return p.root
}

// GlobalConfig returns the path of the global configuration file.
func (p Paths) GlobalConfig() string {
	return filepath.Join(p.root, "config.yaml")
}

// TemplatesDir returns the template registry directory.
func (p Paths) TemplatesDir() string {
	return filepath.Join(p.root, "templates")
}

// BuildsDir returns the directory where build reports are persisted.
func (p Paths) BuildsDir() string {
	return filepath.Join(p.root, "builds")
}

// HistoryDB returns the default history database path.
func (p Paths) HistoryDB() string {
	return filepath.Join(p.root, "history.db")
}

// Ensure creates the workspace root and its standard subdirectories.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.root, p.TemplatesDir(), p.BuildsDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create workspace directory %s: %w", dir, err)
		}
	}
	return nil
}

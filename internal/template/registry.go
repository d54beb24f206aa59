// Package template manages the user-level template registry: named project
// skeletons stored as zip snapshots under the workspace, registered from
// local directories, archives, git repositories, or URLs.
package template

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/metrics"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/retry"
)

// registryFileName is the metadata index inside the registry directory.
const registryFileName = "registry.json"

// SourceKind classifies where a template came from.
type SourceKind string

const (
	SourceDir SourceKind = "dir"
	SourceZip SourceKind = "zip"
	SourceGit SourceKind = "git"
	SourceURL SourceKind = "url"
)

// Record is one registered template. Archive is the snapshot file name
// inside the registry directory; empty means a lazy URL source that has not
// been fetched yet.
type Record struct {
	Name         string     `json:"name"`
	Kind         SourceKind `json:"kind"`
	Origin       string     `json:"origin"`
	Description  string     `json:"description,omitempty"`
	Archive      string     `json:"archive,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// Fetched reports whether the template's snapshot is present locally.
func (r Record) Fetched() bool { return r.Archive != "" }

// Registry manages the on-disk template store.
type Registry struct {
	dir      string
	policy   retry.Policy
	recorder metrics.Recorder
}

// NewRegistry opens (creating if needed) the registry at dir.
func NewRegistry(dir string, policy retry.Policy, recorder metrics.Recorder) (*Registry, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "create template registry directory").
			WithContext("dir", dir).Build()
	}
	return &Registry{dir: dir, policy: policy, recorder: recorder}, nil
}

// Dir returns the registry directory.
func (r *Registry) Dir() string { return r.dir }

// List returns all records sorted by name.
func (r *Registry) List() ([]Record, error) {
	index, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(index))
	for _, rec := range index {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns one record by name.
func (r *Registry) Get(name string) (Record, error) {
	index, err := r.load()
	if err != nil {
		return Record{}, err
	}
	rec, ok := index[name]
	if !ok {
		return Record{}, ferrors.TemplateError("template not registered").
			WithContext("name", name).Build()
	}
	return rec, nil
}

// Register adds a template under name from a directory, a zip file, a git
// URL, or an HTTP URL. HTTP URLs are recorded lazily and downloaded on first
// use. Registering an existing name is an error; use Update instead.
func (r *Registry) Register(ctx context.Context, name, source string) (Record, error) {
	if err := validateName(name); err != nil {
		return Record{}, err
	}

	index, err := r.load()
	if err != nil {
		return Record{}, err
	}
	if _, exists := index[name]; exists {
		return Record{}, ferrors.TemplateError("template already registered").
			WithContext("name", name).Build()
	}

	rec, err := r.snapshot(ctx, name, source)
	if err != nil {
		return Record{}, err
	}

	index[name] = rec
	if err := r.save(index); err != nil {
		return Record{}, err
	}
	slog.Info("template registered", logfields.Template(name), slog.String("kind", string(rec.Kind)))
	return rec, nil
}

// Update replaces the snapshot and origin of an existing template.
func (r *Registry) Update(ctx context.Context, name, source string) (Record, error) {
	index, err := r.load()
	if err != nil {
		return Record{}, err
	}
	old, exists := index[name]
	if !exists {
		return Record{}, ferrors.TemplateError("template not registered").
			WithContext("name", name).Build()
	}

	rec, err := r.snapshot(ctx, name, source)
	if err != nil {
		return Record{}, err
	}
	rec.RegisteredAt = old.RegisteredAt

	index[name] = rec
	if err := r.save(index); err != nil {
		return Record{}, err
	}
	slog.Info("template updated", logfields.Template(name))
	return rec, nil
}

// Delete removes a template's snapshot and metadata.
func (r *Registry) Delete(name string) error {
	index, err := r.load()
	if err != nil {
		return err
	}
	rec, exists := index[name]
	if !exists {
		return ferrors.TemplateError("template not registered").
			WithContext("name", name).Build()
	}

	if rec.Archive != "" {
		if err := os.Remove(filepath.Join(r.dir, rec.Archive)); err != nil && !os.IsNotExist(err) {
			return ferrors.WrapError(err, ferrors.CategoryStorage, "remove template archive").
				WithContext("name", name).Build()
		}
	}
	delete(index, name)
	if err := r.save(index); err != nil {
		return err
	}
	slog.Info("template deleted", logfields.Template(name))
	return nil
}

// Materialize extracts the named template into destDir (created if missing),
// fetching lazy URL sources on demand. A non-empty destination is refused.
func (r *Registry) Materialize(ctx context.Context, name, destDir string) error {
	rec, err := r.Get(name)
	if err != nil {
		return err
	}

	if !rec.Fetched() {
		rec, err = r.fetchLazy(ctx, rec)
		if err != nil {
			return err
		}
	}

	if err := ensureEmptyDir(destDir); err != nil {
		return err
	}

	if err := extractZip(filepath.Join(r.dir, rec.Archive), destDir); err != nil {
		return err
	}

	// Every instantiated project gets an assets directory for figures.
	if err := os.MkdirAll(filepath.Join(destDir, "assets"), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create assets directory").Build()
	}

	slog.Info("template materialized", logfields.Template(name), logfields.Dir(destDir))
	return nil
}

// snapshot turns a source into a Record, fetching and archiving as needed.
func (r *Registry) snapshot(ctx context.Context, name, source string) (Record, error) {
	now := time.Now()
	archive := name + ".zip"

	switch {
	case isGitSource(source):
		dir, cleanup, err := r.cloneSource(ctx, source)
		if err != nil {
			return Record{}, err
		}
		defer cleanup()
		if err := zipDirectory(dir, filepath.Join(r.dir, archive)); err != nil {
			return Record{}, err
		}
		return Record{
			Name: name, Kind: SourceGit, Origin: source,
			Description: descriptionFromReadme(dir),
			Archive:     archive, RegisteredAt: now,
		}, nil

	case isHTTPSource(source):
		// Lazy: recorded now, downloaded on first Materialize.
		return Record{Name: name, Kind: SourceURL, Origin: source, RegisteredAt: now}, nil

	case strings.EqualFold(filepath.Ext(source), ".zip"):
		if err := copyFile(source, filepath.Join(r.dir, archive)); err != nil {
			return Record{}, err
		}
		return Record{Name: name, Kind: SourceZip, Origin: source, Archive: archive, RegisteredAt: now}, nil

	default:
		info, err := os.Stat(source)
		if err != nil || !info.IsDir() {
			return Record{}, ferrors.TemplateError("source is not a directory, zip, git, or http URL").
				WithContext("source", source).Build()
		}
		if err := zipDirectory(source, filepath.Join(r.dir, archive)); err != nil {
			return Record{}, err
		}
		return Record{
			Name: name, Kind: SourceDir, Origin: source,
			Description: descriptionFromReadme(source),
			Archive:     archive, RegisteredAt: now,
		}, nil
	}
}

// fetchLazy downloads a URL source's archive and persists the updated record.
func (r *Registry) fetchLazy(ctx context.Context, rec Record) (Record, error) {
	archive := rec.Name + ".zip"
	if err := r.download(ctx, rec.Origin, filepath.Join(r.dir, archive)); err != nil {
		return Record{}, err
	}

	index, err := r.load()
	if err != nil {
		return Record{}, err
	}
	rec.Archive = archive
	index[rec.Name] = rec
	if err := r.save(index); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *Registry) load() (map[string]Record, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, registryFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "read template registry").Build()
	}

	var index map[string]Record
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "parse template registry").
			WithContext("path", filepath.Join(r.dir, registryFileName)).Build()
	}
	return index, nil
}

func (r *Registry) save(index map[string]Record) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "marshal template registry").Build()
	}

	path := filepath.Join(r.dir, registryFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "write template registry").Build()
	}
	if err := os.Rename(tmp, path); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "replace template registry").Build()
	}
	return nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		return ferrors.ValidationError("invalid template name").
			WithContext("name", name).Build()
	}
	return nil
}

func isGitSource(source string) bool {
	return strings.HasSuffix(source, ".git") ||
		strings.HasPrefix(source, "git@") ||
		strings.HasPrefix(source, "git://") ||
		strings.HasPrefix(source, "ssh://")
}

func isHTTPSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func ensureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "inspect target directory").
			WithContext("dir", dir).Build()
	}
	if len(entries) > 0 {
		return ferrors.TemplateError("target directory is not empty").
			WithContext("dir", dir).Build()
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read source archive").
			WithContext("path", src).Build()
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "write template archive").
			WithContext("path", dst).Build()
	}
	return nil
}

package template

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/config"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 1}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(t.TempDir(), testPolicy(), nil)
	require.NoError(t, err)
	return r
}

func writeTemplateSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestRegisterDirectorySource(t *testing.T) {
	r := newTestRegistry(t)
	src := writeTemplateSource(t, map[string]string{
		"main.tex":  "\\documentclass{article}\\begin{document}hi\\end{document}\n",
		"README.md": "# Article Template\n\nA minimal article skeleton.\n",
	})

	rec, err := r.Register(context.Background(), "article", src)
	require.NoError(t, err)
	assert.Equal(t, SourceDir, rec.Kind)
	assert.Equal(t, "A minimal article skeleton.", rec.Description)
	assert.True(t, rec.Fetched())
	assert.FileExists(t, filepath.Join(r.Dir(), rec.Archive))
}

func TestRegisterDuplicateName(t *testing.T) {
	r := newTestRegistry(t)
	src := writeTemplateSource(t, map[string]string{"main.tex": "x"})

	_, err := r.Register(context.Background(), "article", src)
	require.NoError(t, err)

	_, err = r.Register(context.Background(), "article", src)
	assert.Error(t, err)
}

func TestRegisterInvalidName(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range []string{"", "a/b", `a\b`, ".hidden"} {
		_, err := r.Register(context.Background(), name, t.TempDir())
		assert.Error(t, err, "name %q", name)
	}
}

func TestRegisterBadSource(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Register(context.Background(), "broken", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestListSortedByName(t *testing.T) {
	r := newTestRegistry(t)
	src := writeTemplateSource(t, map[string]string{"main.tex": "x"})

	for _, name := range []string{"zeta", "alpha", "beta"} {
		_, err := r.Register(context.Background(), name, src)
		require.NoError(t, err)
	}

	records, err := r.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "beta", records[1].Name)
	assert.Equal(t, "zeta", records[2].Name)
}

func TestGetMissing(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Get("nope")
	assert.Error(t, err)
}

func TestUpdateReplacesSnapshot(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	first := writeTemplateSource(t, map[string]string{"main.tex": "v1"})
	rec, err := r.Register(ctx, "article", first)
	require.NoError(t, err)

	second := writeTemplateSource(t, map[string]string{"main.tex": "v2", "extra.sty": "s"})
	updated, err := r.Update(ctx, "article", second)
	require.NoError(t, err)
	assert.Equal(t, rec.RegisteredAt, updated.RegisteredAt)
	assert.Equal(t, second, updated.Origin)

	dest := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, r.Materialize(ctx, "article", dest))
	data, err := os.ReadFile(filepath.Join(dest, "main.tex"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestUpdateMissing(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Update(context.Background(), "nope", t.TempDir())
	assert.Error(t, err)
}

func TestDeleteRemovesArchive(t *testing.T) {
	r := newTestRegistry(t)
	src := writeTemplateSource(t, map[string]string{"main.tex": "x"})

	rec, err := r.Register(context.Background(), "article", src)
	require.NoError(t, err)

	require.NoError(t, r.Delete("article"))
	assert.NoFileExists(t, filepath.Join(r.Dir(), rec.Archive))

	_, err = r.Get("article")
	assert.Error(t, err)
}

func TestDeleteMissing(t *testing.T) {
	r := newTestRegistry(t)
	assert.Error(t, r.Delete("nope"))
}

func TestMaterializeRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	src := writeTemplateSource(t, map[string]string{
		"main.tex":             "content",
		"chapters/intro.tex":   "intro",
		".git/config":          "hidden, must not be archived",
		"figures/.placeholder": "hidden file",
	})

	_, err := r.Register(ctx, "thesis", src)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "newproj")
	require.NoError(t, r.Materialize(ctx, "thesis", dest))

	assert.FileExists(t, filepath.Join(dest, "main.tex"))
	assert.FileExists(t, filepath.Join(dest, "chapters", "intro.tex"))
	assert.NoDirExists(t, filepath.Join(dest, ".git"))
	assert.NoFileExists(t, filepath.Join(dest, "figures", ".placeholder"))
	assert.DirExists(t, filepath.Join(dest, "assets"))
}

func TestMaterializeRefusesNonEmptyTarget(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	src := writeTemplateSource(t, map[string]string{"main.tex": "x"})

	_, err := r.Register(ctx, "article", src)
	require.NoError(t, err)

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "existing.txt"), []byte("x"), 0o644))

	assert.Error(t, r.Materialize(ctx, "article", dest))
}

func TestRegisterZipSource(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	src := writeTemplateSource(t, map[string]string{"main.tex": "zipped"})
	zipPath := filepath.Join(t.TempDir(), "bundle.zip")
	require.NoError(t, zipDirectory(src, zipPath))

	rec, err := r.Register(ctx, "bundle", zipPath)
	require.NoError(t, err)
	assert.Equal(t, SourceZip, rec.Kind)

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, r.Materialize(ctx, "bundle", dest))
	assert.FileExists(t, filepath.Join(dest, "main.tex"))
}

func TestLazyURLFetchedOnMaterialize(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	src := writeTemplateSource(t, map[string]string{"main.tex": "remote"})
	zipPath := filepath.Join(t.TempDir(), "remote.zip")
	require.NoError(t, zipDirectory(src, zipPath))
	archive, err := os.ReadFile(zipPath)
	require.NoError(t, err)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits++
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	rec, err := r.Register(ctx, "remote", srv.URL+"/remote.zip")
	require.NoError(t, err)
	assert.Equal(t, SourceURL, rec.Kind)
	assert.False(t, rec.Fetched())
	assert.Zero(t, hits)

	dest := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, r.Materialize(ctx, "remote", dest))
	assert.FileExists(t, filepath.Join(dest, "main.tex"))
	assert.Equal(t, 1, hits)

	// The fetched archive is cached; a second materialize does not refetch.
	dest2 := filepath.Join(t.TempDir(), "proj2")
	require.NoError(t, r.Materialize(ctx, "remote", dest2))
	assert.Equal(t, 1, hits)
}

func TestLazyURLServerError(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := r.Register(ctx, "flaky", srv.URL+"/flaky.zip")
	require.NoError(t, err)

	err = r.Materialize(ctx, "flaky", filepath.Join(t.TempDir(), "proj"))
	assert.Error(t, err)
	// Server errors retry once under the test policy.
	assert.Equal(t, 2, hits)
}

func TestLazyURLNotFoundDoesNotRetry(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits++
		http.NotFound(w, req)
	}))
	defer srv.Close()

	_, err := r.Register(ctx, "missing", srv.URL+"/missing.zip")
	require.NoError(t, err)

	err = r.Materialize(ctx, "missing", filepath.Join(t.TempDir(), "proj"))
	assert.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestSourceKindDetection(t *testing.T) {
	assert.True(t, isGitSource("https://github.com/user/repo.git"))
	assert.True(t, isGitSource("git@github.com:user/repo"))
	assert.True(t, isGitSource("ssh://git@host/repo"))
	assert.False(t, isGitSource("https://example.com/tpl.zip"))

	assert.True(t, isHTTPSource("https://example.com/tpl.zip"))
	assert.True(t, isHTTPSource("http://example.com/tpl.zip"))
	assert.False(t, isHTTPSource("/home/user/tpl"))
}

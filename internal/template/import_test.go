package template

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexPage = `<!DOCTYPE html>
<html><body>
<h1>Templates</h1>
<ul>
<li><a href="article.zip">Article</a></li>
<li><a href="/archives/thesis.zip">Thesis</a></li>
<li><a href="https://cdn.example.com/beamer.ZIP">Beamer</a></li>
<li><a href="article.zip">Article again</a></li>
<li><a href="notes.tar.gz">Not a zip</a></li>
<li><a href="docs/index.html">Docs</a></li>
</ul>
</body></html>`

func TestParseArchiveLinks(t *testing.T) {
	base, err := url.Parse("https://templates.example.com/latex/")
	require.NoError(t, err)

	found, err := parseArchiveLinks(base, strings.NewReader(indexPage))
	require.NoError(t, err)
	require.Len(t, found, 3)

	assert.Equal(t, "article", found[0].Name)
	assert.Equal(t, "https://templates.example.com/latex/article.zip", found[0].URL)
	assert.Equal(t, "thesis", found[1].Name)
	assert.Equal(t, "https://templates.example.com/archives/thesis.zip", found[1].URL)
	assert.Equal(t, "beamer", found[2].Name)
	assert.Equal(t, "https://cdn.example.com/beamer.ZIP", found[2].URL)
}

func TestImportRegistersLazily(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(indexPage))
	}))
	defer srv.Close()

	added, err := r.Import(ctx, srv.URL+"/")
	require.NoError(t, err)
	assert.Len(t, added, 3)

	rec, err := r.Get("thesis")
	require.NoError(t, err)
	assert.Equal(t, SourceURL, rec.Kind)
	assert.False(t, rec.Fetched())

	// Re-importing the same index adds nothing new.
	added, err = r.Import(ctx, srv.URL+"/")
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestImportNoArchives(t *testing.T) {
	r := newTestRegistry(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
	}))
	defer srv.Close()

	_, err := r.Import(context.Background(), srv.URL+"/")
	assert.Error(t, err)
}

func TestImportBadStatus(t *testing.T) {
	r := newTestRegistry(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := r.Import(context.Background(), srv.URL+"/")
	assert.Error(t, err)
}

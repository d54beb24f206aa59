package template

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
)

// DiscoveredTemplate is one archive link found on an index page.
type DiscoveredTemplate struct {
	Name string
	URL  string
}

// Import fetches an HTML index page and registers every zip archive linked
// from it as a lazy URL template. Names already present in the registry are
// skipped. Returns the records actually added.
func (r *Registry) Import(ctx context.Context, baseURL string) ([]Record, error) {
	found, err := r.discover(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	index, err := r.load()
	if err != nil {
		return nil, err
	}

	var added []Record
	for _, tpl := range found {
		if _, exists := index[tpl.Name]; exists {
			slog.Debug("template already registered, skipping", logfields.Template(tpl.Name))
			continue
		}
		rec, err := r.Register(ctx, tpl.Name, tpl.URL)
		if err != nil {
			return added, err
		}
		added = append(added, rec)
	}

	slog.Info("template import finished",
		slog.String("base_url", baseURL),
		slog.Int("discovered", len(found)), slog.Int("added", len(added)))
	return added, nil
}

// discover downloads baseURL and extracts zip archive links from its anchors.
func (r *Registry) discover(ctx context.Context, baseURL string) ([]DiscoveredTemplate, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, ferrors.ValidationError("invalid template index URL").
			WithContext("url", baseURL).Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "build index request").Build()
	}
	resp, err := newFetchClient().Do(req)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "fetch template index").
			WithContext("url", baseURL).Retryable().Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ferrors.NewError(ferrors.CategoryNetwork, "template index unavailable").
			WithContext("url", baseURL).WithContext("status", resp.StatusCode).Build()
	}

	found, err := parseArchiveLinks(base, resp.Body)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ferrors.TemplateError("no template archives found on index page").
			WithContext("url", baseURL).Build()
	}
	return found, nil
}

// parseArchiveLinks walks the HTML document collecting anchors whose href
// ends in .zip. Duplicate names keep the first occurrence.
func parseArchiveLinks(base *url.URL, body io.Reader) ([]DiscoveredTemplate, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "parse template index").Build()
	}

	seen := make(map[string]bool)
	var results []DiscoveredTemplate
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := anchorHref(n); strings.HasSuffix(strings.ToLower(href), ".zip") {
				name := templateNameFromHref(href)
				if name != "" && !seen[name] {
					seen[name] = true
					results = append(results, DiscoveredTemplate{
						Name: name,
						URL:  resolveHref(base, href),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func anchorHref(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			return attr.Val
		}
	}
	return ""
}

func templateNameFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if ext := path.Ext(name); strings.EqualFold(ext, ".zip") {
		name = name[:len(name)-len(ext)]
	}
	if name == "" || validateName(name) != nil {
		return ""
	}
	return name
}

func resolveHref(base *url.URL, href string) string {
	rel, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(rel).String()
}

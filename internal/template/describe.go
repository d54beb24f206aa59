package template

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const maxDescriptionLen = 120

var readmeNames = []string{"README.md", "Readme.md", "readme.md"}

// descriptionFromReadme derives a short template description from the
// source's README: the first paragraph after the title, or the title itself
// when that is all there is. Returns "" when no README exists.
func descriptionFromReadme(dir string) string {
	var body []byte
	for _, name := range readmeNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			body = data
			break
		}
	}
	if body == nil {
		return ""
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var title, paragraph string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch n.(type) {
		case *gmast.Heading:
			if title == "" {
				title = nodeText(n, body)
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.Paragraph:
			if paragraph == "" {
				paragraph = nodeText(n, body)
			}
			if paragraph != "" {
				return gmast.WalkStop, nil
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	desc := paragraph
	if desc == "" {
		desc = title
	}
	return truncate(strings.Join(strings.Fields(desc), " "), maxDescriptionLen)
}

// nodeText collects the plain text of a block node's inline children.
func nodeText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := child.(*gmast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}

package application

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const maxSnippetLength = 200

// RenderedBody is the derived form of a post's markdown body.
type RenderedBody struct {
	Snippet string
	HTML    string
}

// MarkdownRenderer converts a post body to sanitized HTML plus a plain snippet.
type MarkdownRenderer interface {
	Render(markdown []byte) (*RenderedBody, error)
}

// relativeLinkTransformer resolves relative link and image destinations against the blog's public URL.
type relativeLinkTransformer struct {
	base *url.URL
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Link:
			v.Destination = t.resolve(v.Destination)
		case *ast.Image:
			v.Destination = t.resolve(v.Destination)
		}

		return ast.WalkContinue, nil
	})
}

func (t *relativeLinkTransformer) resolve(dest []byte) []byte {
	if len(dest) == 0 || !isRelativeLink(string(dest)) {
		return dest
	}

	ref, err := url.Parse(string(dest))
	if err != nil {
		return dest
	}
	return []byte(t.base.ResolveReference(ref).String())
}

func isRelativeLink(dest string) bool {
	if strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}
	if strings.HasPrefix(dest, "#") {
		return false
	}

	return !strings.Contains(dest, ":")
}

type GoldmarkRenderer struct {
	renderer  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewMarkdownRenderer builds a GFM renderer. When baseURL is an absolute URL, relative links
// and images are resolved against it the way a browser would resolve them on the blog's root page.
func NewMarkdownRenderer(baseURL string) *GoldmarkRenderer {
	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if baseURL != "" {
		base, err := parseBaseURL(baseURL)
		if err != nil {
			log.Warn().Err(err).Str("baseURL", baseURL).Msg("Ignoring invalid base URL for post links")
		} else {
			parserOpts = append(parserOpts, parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{base: base}, 100),
			))
		}
	}

	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// Raw HTML passes through goldmark and is cleaned by the sanitizer below.
			html.WithUnsafe(),
		),
	)

	return &GoldmarkRenderer{
		renderer:  renderer,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// parseBaseURL requires scheme and host and gives the path a trailing slash so
// "notes/a" resolves below it rather than beside it.
func parseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base, nil
}

func (r *GoldmarkRenderer) Render(markdown []byte) (*RenderedBody, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &RenderedBody{
		Snippet: extractSnippet(markdown),
		HTML:    string(r.sanitizer.SanitizeBytes(buf.Bytes())),
	}, nil
}

// extractSnippet returns the first prose paragraph, truncated on a word boundary.
func extractSnippet(markdown []byte) string {
	lines := strings.Split(string(markdown), "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	if len(snippet) > maxSnippetLength {
		cut := maxSnippetLength
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}

package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/docmirror/internal/fetch"
	"github.com/nao1215/docmirror/internal/site"
)

const (
	// articleSelector locates the documentation body of a page.
	articleSelector = "main article"

	// furnitureSelector matches page furniture removed before conversion.
	furnitureSelector = `details, nav[aria-label="Breadcrumb"], script, style, button`

	// jumpLinkText marks the heading anchor links the site injects.
	jumpLinkText = "Jump to heading"
)

var (
	// jumpLinkPattern matches heading anchors that survived conversion.
	jumpLinkPattern = regexp.MustCompile(`\s*\[Jump to heading#\]\(#[^)]+\)`)

	// blankRunPattern matches three or more consecutive newlines.
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// Article is the markdown rendition of one documentation page.
type Article struct {
	// URL is the page the article was extracted from.
	URL string

	// Title is the text of the first h1, empty when the article has none.
	Title string

	// Markdown is the cleaned article body. It ends with exactly one newline.
	Markdown string

	// Assets are the absolute same-origin asset URLs the article references.
	Assets []string
}

// Extractor converts documentation pages to markdown.
type Extractor struct {
	fetcher   fetch.Fetcher
	site      *site.Site
	converter *md.Converter
	logger    *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets a custom logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor that emits ATX headings, "-" bullets
// and fenced code blocks.
func NewExtractor(fetcher fetch.Fetcher, s *site.Site, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		fetcher: fetcher,
		site:    s,
		converter: md.NewConverter("", true, &md.Options{
			HeadingStyle:     "atx",
			BulletListMarker: "-",
			CodeBlockStyle:   "fenced",
		}),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract fetches pageURL and converts its article to markdown.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Article, error) {
	resp, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	return e.ExtractHTML(pageURL, resp.Body)
}

// ExtractHTML converts an already fetched page to markdown.
func (e *Extractor) ExtractHTML(pageURL string, body []byte) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", pageURL, err)
	}

	article := doc.Find(articleSelector).First()
	if article.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, pageURL)
	}

	article.Find(furnitureSelector).Remove()
	article.Find(`a[href^="#"]`).Each(func(_ int, a *goquery.Selection) {
		if strings.Contains(strings.Join(strings.Fields(a.Text()), " "), jumpLinkText) {
			a.Remove()
		}
	})

	collector, err := NewAssetCollector(pageURL, e.site)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}
	assets := collector.Collect(article.Get(0))

	title := strings.Join(strings.Fields(article.Find("h1").First().Text()), " ")

	fragment, err := goquery.OuterHtml(article)
	if err != nil {
		return nil, fmt.Errorf("failed to render article %s: %w", pageURL, err)
	}

	markdown, err := e.converter.ConvertString(fragment)
	if err != nil {
		return nil, fmt.Errorf("failed to convert article %s: %w", pageURL, err)
	}

	e.logger.Debug("extracted article", "url", pageURL, "title", title, "assets", len(assets))

	return &Article{
		URL:      pageURL,
		Title:    title,
		Markdown: cleanMarkdown(markdown),
		Assets:   assets,
	}, nil
}

// cleanMarkdown drops leftover heading anchors, collapses blank-line runs
// and normalizes the trailing newline.
func cleanMarkdown(s string) string {
	s = jumpLinkPattern.ReplaceAllString(s, "")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s) + "\n"
}

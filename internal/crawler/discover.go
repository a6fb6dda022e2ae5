package crawler

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/nao1215/docmirror/internal/fetch"
	"github.com/nao1215/docmirror/internal/site"
	"github.com/temoto/robotstxt"
)

// locQuery selects every <loc> element regardless of the sitemap namespace.
const locQuery = "//*[local-name()='loc']"

// Discoverer lists the pages of the mirrored section from the site index.
type Discoverer struct {
	// fetcher retrieves the sitemap and robots.txt.
	fetcher fetch.Fetcher

	// site describes the mirrored section.
	site *site.Site

	// respectRobots drops URLs disallowed for userAgent by robots.txt.
	respectRobots bool

	// userAgent is matched against robots.txt groups.
	userAgent string

	// logger for structured logging.
	logger *slog.Logger
}

// DiscovererOption configures a Discoverer.
type DiscovererOption func(*Discoverer)

// WithRobots enables robots.txt filtering for the given User-Agent.
func WithRobots(userAgent string) DiscovererOption {
	return func(d *Discoverer) {
		d.respectRobots = true
		d.userAgent = userAgent
	}
}

// WithDiscovererLogger sets a custom logger.
func WithDiscovererLogger(logger *slog.Logger) DiscovererOption {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// NewDiscoverer creates a Discoverer for the given site.
func NewDiscoverer(fetcher fetch.Fetcher, s *site.Site, opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		fetcher: fetcher,
		site:    s,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Discover returns the deduplicated section URLs listed in the sitemap.
// The section root sorts first and the rest sort lexicographically, so the
// result is stable for the same sitemap content. A sitemap without pages
// of the section yields an empty list.
func (d *Discoverer) Discover(ctx context.Context) ([]string, error) {
	sitemapURL := d.site.SitemapURL()

	resp, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSitemapUnavailable, err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSitemapUnavailable, err)
	}

	locs, err := parseSitemap(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSitemapInvalid, err)
	}

	root := d.site.RootURL()
	seen := make(map[string]bool, len(locs))
	urls := make([]string, 0, len(locs))
	for _, loc := range locs {
		if !strings.HasPrefix(loc, root) || seen[loc] {
			continue
		}
		seen[loc] = true
		urls = append(urls, loc)
	}

	if d.respectRobots {
		urls = d.filterRobots(ctx, urls)
	}

	if len(urls) == 0 {
		d.logger.Warn("sitemap lists no page of the section", "sitemap", sitemapURL, "root", root)
		return urls, nil
	}

	sortURLs(urls, root)

	d.logger.Debug("discovered pages", "sitemap", sitemapURL, "listed", len(locs), "pages", len(urls))

	return urls, nil
}

// parseSitemap returns the trimmed text of every <loc> element.
func parseSitemap(body []byte) ([]string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	nodes, err := xmlquery.QueryAll(doc, locQuery)
	if err != nil {
		return nil, err
	}

	locs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if loc := strings.TrimSpace(n.InnerText()); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

// sortURLs orders URLs with root first, then lexicographically.
func sortURLs(urls []string, root string) {
	slices.SortFunc(urls, func(a, b string) int {
		if a == root {
			if b == root {
				return 0
			}
			return -1
		}
		if b == root {
			return 1
		}
		return cmp.Compare(a, b)
	})
}

// filterRobots drops URLs disallowed by robots.txt.
// An unreachable or unparsable robots.txt allows everything.
func (d *Discoverer) filterRobots(ctx context.Context, urls []string) []string {
	robotsURL := d.site.BaseURL() + "/robots.txt"

	resp, err := d.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		d.logger.Warn("robots.txt unavailable, allowing all pages", "url", robotsURL, "error", err)
		return urls
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		d.logger.Warn("robots.txt invalid, allowing all pages", "url", robotsURL, "error", err)
		return urls
	}

	group := data.FindGroup(d.userAgent)
	allowed := make([]string, 0, len(urls))
	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err != nil {
			continue
		}
		if group.Test(parsed.EscapedPath()) {
			allowed = append(allowed, u)
		} else {
			d.logger.Info("skipping page disallowed by robots.txt", "url", u)
		}
	}
	return allowed
}

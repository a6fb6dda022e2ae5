package crawler

import (
	"net/url"
	"slices"
	"strings"

	"github.com/nao1215/docmirror/internal/site"
	"golang.org/x/net/html"
)

// assetAttributes lists, per element, the attributes that can reference
// a downloadable asset.
var assetAttributes = map[string][]string{
	"img":    {"src"},
	"source": {"src"},
	"video":  {"src", "poster"},
	"a":      {"href"},
}

// AssetCollector finds the assets referenced by an article.
// References are resolved against the page URL and kept only when the
// site classifies them as assets.
type AssetCollector struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL

	// site decides which resolved URLs are assets.
	site *site.Site
}

// NewAssetCollector creates a collector for the page at pageURL.
func NewAssetCollector(pageURL string, s *site.Site) (*AssetCollector, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &AssetCollector{baseURL: u, site: s}, nil
}

// Collect walks the tree under root and returns the sorted, deduplicated
// absolute asset URLs it references.
func (c *AssetCollector) Collect(root *html.Node) []string {
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, key := range assetAttributes[n.Data] {
				ref := c.resolveURL(getAttr(n, key))
				if ref != "" && c.site.IsAsset(ref) {
					seen[ref] = true
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	assets := make([]string, 0, len(seen))
	for ref := range seen {
		assets = append(assets, ref)
	}
	slices.Sort(assets)
	return assets
}

// resolveURL resolves a relative URL to absolute and drops its fragment.
func (c *AssetCollector) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := c.baseURL.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String()
}

// getAttr returns the value of an attribute, or empty string if not found.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

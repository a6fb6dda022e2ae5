package site

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// IndexSlug is the slug of the section root page.
const IndexSlug = "index"

// AssetsDirName is the name of the shared assets directory next to the
// language directories.
const AssetsDirName = "assets"

// assetExtensions are the path suffixes that mark a URL as a binary asset.
var assetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".avif",
	".mp4", ".webm", ".pdf",
}

// ErrInvalidAssetURL is returned when an asset URL has no usable path.
var ErrInvalidAssetURL = errors.New("invalid asset URL")

// Site describes the origin and section that are mirrored.
type Site struct {
	// base is the site origin, e.g. https://docs.deno.com.
	base *url.URL

	// section is the mirrored path segment without slashes, e.g. "sandbox".
	section string
}

// New creates a Site for the given origin and section.
func New(baseURL, section string) (*Site, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be absolute http(s)", baseURL)
	}

	section = strings.Trim(section, "/")
	if section == "" {
		return nil, errors.New("section must not be empty")
	}

	return &Site{
		base:    &url.URL{Scheme: u.Scheme, Host: u.Host},
		section: section,
	}, nil
}

// BaseURL returns the site origin without a trailing slash.
func (s *Site) BaseURL() string {
	return s.base.String()
}

// Section returns the mirrored section name.
func (s *Site) Section() string {
	return s.section
}

// RootURL returns the canonical URL of the section root, with a trailing slash.
func (s *Site) RootURL() string {
	return s.base.String() + "/" + s.section + "/"
}

// SitemapURL returns the URL of the site index.
func (s *Site) SitemapURL() string {
	return s.base.String() + "/sitemap.xml"
}

// Resolve resolves a possibly relative reference against the site origin.
func (s *Site) Resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return s.base.ResolveReference(u).String()
}

// Slug derives the page slug from a URL.
//
// The section root maps to IndexSlug, "/<section>/sub/page" maps to
// "sub/page" and any other path maps to the path with "/" replaced by "_".
// A value that already is a slug (no scheme, host or leading slash) is
// returned unchanged, so Slug(Slug(u)) == Slug(u).
func (s *Site) Slug(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.Trim(raw, "/")
	}

	if u.Scheme == "" && u.Host == "" && !strings.HasPrefix(u.Path, "/") {
		return strings.Trim(u.Path, "/")
	}

	p := strings.Trim(u.Path, "/")
	if p == s.section {
		return IndexSlug
	}
	if rest, ok := strings.CutPrefix(p, s.section+"/"); ok {
		return strings.Trim(rest, "/")
	}
	return strings.ReplaceAll(p, "/", "_")
}

// IsAsset reports whether an absolute URL is a downloadable asset: same
// origin as the site and either a recognized binary extension or an
// "/images/" path segment.
func (s *Site) IsAsset(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !strings.EqualFold(u.Host, s.base.Host) {
		return false
	}

	p := strings.ToLower(u.Path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return strings.Contains(p, "/images/")
}

// AssetPath returns the slash-separated path of an asset relative to the
// assets directory. The URL path is cleaned so it can never point above
// the assets root.
func (s *Site) AssetPath(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidAssetURL, raw, err)
	}
	return cleanAssetPath(u.Path, raw)
}

// cleanAssetPath turns a URL path into a relative path without ".." elements.
func cleanAssetPath(urlPath, raw string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if rel == "" {
		return "", fmt.Errorf("%w: %s has no path", ErrInvalidAssetURL, raw)
	}
	return rel, nil
}

// depth returns how many directories a slug adds below its language directory.
func depth(slug string) int {
	return strings.Count(strings.Trim(slug, "/"), "/")
}

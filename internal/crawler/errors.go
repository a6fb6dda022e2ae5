package crawler

import "errors"

// Crawl errors.
var (
	// ErrSitemapUnavailable is returned when the site index cannot be fetched.
	ErrSitemapUnavailable = errors.New("sitemap unavailable")

	// ErrSitemapInvalid is returned when the site index cannot be parsed.
	ErrSitemapInvalid = errors.New("sitemap invalid")

	// ErrArticleNotFound is returned when a page has no "main article" element.
	ErrArticleNotFound = errors.New("cannot find main article")
)

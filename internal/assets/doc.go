// Package assets mirrors binary assets (images, videos, PDFs) referenced
// by the documentation into a local directory tree that mirrors the URL
// paths of the site.
//
// Downloads are idempotent: an asset whose local file already exists with
// non-zero size is never fetched again, so repeated runs only fetch what
// is missing.
package assets

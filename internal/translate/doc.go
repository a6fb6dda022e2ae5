// Package translate machine-translates markdown documents while keeping
// their structure intact.
//
// The Markdown type walks a document line by line. Fenced code blocks and
// bare filenames pass through untouched; every other line is split into a
// structural prefix (indentation, bullet, ordinal, heading or quote marker)
// and a body. Inline code, link targets and bare URLs in the body are
// replaced with opaque placeholder tokens before the body is sent to a
// Translator, and restored afterwards.
//
// Translation is best effort. Each chunk is attempted a bounded number of
// times with linear backoff and falls back to the source text, so a
// document is never lost because the translation service misbehaves. Only
// context cancellation aborts a document.
//
// Translator implementations:
//
//   - GoogleWeb: the public web endpoint, no credentials
//   - GoogleCloud: the Cloud Translation v2 API with an API key
//   - Identity: returns the input unchanged
package translate

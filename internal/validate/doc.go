// Package validate checks a mirror written by the mirror command.
//
// It reads manifest.json, verifies that every entry is complete and that
// the markdown files exist and start with a title, and resolves relative
// links between the documents. Missing asset files are reported as
// warnings because an asset that failed to download is not fatal.
package validate

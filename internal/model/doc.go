// Package model defines the data structures shared by the docmirror
// components.
//
// This package contains the following main types:
//   - Page: a documentation page identified by its URL and slug
//   - PageJob: the mutable state of one page while it moves through the
//     pipeline steps
//   - ManifestEntry and Manifest: the machine-readable record of a run,
//     written as manifest.json
//
// The models live in their own package so the pipeline, report, database
// and validate packages can share them without import cycles.
package model

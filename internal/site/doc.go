// Package site models the mirrored documentation section.
//
// A Site knows the origin and the section path being mirrored. From those it
// derives page slugs, decides which URLs are downloadable assets, maps assets
// to local paths and rewrites markdown links so that a mirrored page points at
// its local siblings and the shared assets directory instead of the live site.
//
// All functions are pure: the same URL always yields the same slug and the
// same local path, and rewriting an already rewritten document is a no-op.
package site

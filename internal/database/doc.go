// Package database records mirror runs in a SQLite database.
//
// Each run stores its parameters, outcome and one row per processed page
// with the content hash of the extracted markdown. Later runs compare their
// hashes against the previous run to tell which pages changed upstream.
//
// The database uses modernc.org/sqlite, a CGO-free driver, so the binary
// cross-compiles without a C toolchain.
package database

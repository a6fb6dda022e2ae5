package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Page is one documentation page.
type Page struct {
	// URL is the canonical source URL.
	URL string `json:"url"`

	// Slug is the page's path relative to the section root, without
	// extension. The section root itself is "index".
	Slug string `json:"slug"`
}

// ContentHash returns the hex SHA-256 of content, or "" for empty content.
// The run history uses it to detect pages that changed between runs.
func ContentHash(content string) string {
	if content == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"
)

// Manifest JSON keys that are not language paths.
const (
	keyURL    = "url"
	keySlug   = "slug"
	keyAssets = "assets_downloaded"
	keyStatus = "status"
	keyError  = "error"
)

// Document is the markdown file of a page in one language.
type Document struct {
	// Language is the language directory name, e.g. "zh-tw".
	Language string

	// Path is the file path relative to the mirror root with forward
	// slashes, e.g. "zh-tw/getting-started.md".
	Path string
}

// DocumentPath returns the slash-separated path of a page's markdown file.
func DocumentPath(langDir, slug string) string {
	return path.Join(langDir, slug+".md")
}

// LanguageKey returns the manifest key of a language directory:
// "zh-tw" becomes "zh_tw".
func LanguageKey(langDir string) string {
	return strings.ReplaceAll(langDir, "-", "_")
}

// ManifestEntry records one processed page.
//
// In JSON an entry is an object with the keys url, slug, one key per
// language (see LanguageKey) holding the document path, and
// assets_downloaded. Failed pages also carry status and error.
type ManifestEntry struct {
	URL              string
	Slug             string
	Documents        []Document
	AssetsDownloaded []string
	Status           PageStatus
	Error            string
}

// Path returns the document path for a language directory, or "".
func (e ManifestEntry) Path(langDir string) string {
	for _, d := range e.Documents {
		if d.Language == langDir {
			return d.Path
		}
	}
	return ""
}

// MarshalJSON writes the keys in a fixed order: url, slug, the languages
// in document order, assets_downloaded, then status and error when the
// page failed.
func (e ManifestEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	field := func(key string, v any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := marshalNoEscape(key)
		if err != nil {
			return err
		}
		val, err := marshalNoEscape(v)
		if err != nil {
			return fmt.Errorf("manifest key %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := field(keyURL, e.URL); err != nil {
		return nil, err
	}
	if err := field(keySlug, e.Slug); err != nil {
		return nil, err
	}
	for _, d := range e.Documents {
		if err := field(LanguageKey(d.Language), d.Path); err != nil {
			return nil, err
		}
	}

	assets := e.AssetsDownloaded
	if assets == nil {
		assets = []string{}
	}
	if err := field(keyAssets, assets); err != nil {
		return nil, err
	}

	if e.Status.Failed() {
		if err := field(keyStatus, e.Status); err != nil {
			return nil, err
		}
		if err := field(keyError, e.Error); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an entry. Every key that is not a known field is a
// language path; documents are sorted by language.
func (e *ManifestEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = ManifestEntry{}
	for key, val := range raw {
		var err error
		switch key {
		case keyURL:
			err = json.Unmarshal(val, &e.URL)
		case keySlug:
			err = json.Unmarshal(val, &e.Slug)
		case keyAssets:
			err = json.Unmarshal(val, &e.AssetsDownloaded)
		case keyStatus:
			err = json.Unmarshal(val, &e.Status)
		case keyError:
			err = json.Unmarshal(val, &e.Error)
		default:
			var p string
			err = json.Unmarshal(val, &p)
			e.Documents = append(e.Documents, Document{
				Language: strings.ReplaceAll(key, "_", "-"),
				Path:     p,
			})
		}
		if err != nil {
			return fmt.Errorf("manifest key %q: %w", key, err)
		}
	}

	slices.SortFunc(e.Documents, func(a, b Document) int {
		return strings.Compare(a.Language, b.Language)
	})
	return nil
}

// marshalNoEscape encodes v without escaping <, > and &.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Manifest is the ordered list of entries of a run, one per processed URL
// in discovery order. It is written as a JSON array.
type Manifest struct {
	Entries []ManifestEntry
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Entries: make([]ManifestEntry, 0)}
}

// Add appends an entry.
func (m *Manifest) Add(e ManifestEntry) {
	m.Entries = append(m.Entries, e)
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// Failed returns the entries of failed pages.
func (m *Manifest) Failed() []ManifestEntry {
	var failed []ManifestEntry
	for _, e := range m.Entries {
		if e.Status.Failed() {
			failed = append(failed, e)
		}
	}
	return failed
}

// Assets returns the distinct downloaded asset paths, sorted.
func (m *Manifest) Assets() []string {
	var assets []string
	for _, e := range m.Entries {
		assets = append(assets, e.AssetsDownloaded...)
	}
	slices.Sort(assets)
	return slices.Compact(assets)
}

// MarshalJSON writes the entries as an array; an empty manifest is [].
func (m *Manifest) MarshalJSON() ([]byte, error) {
	entries := m.Entries
	if entries == nil {
		entries = []ManifestEntry{}
	}
	return marshalNoEscape(entries)
}

// UnmarshalJSON reads an array of entries.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.Entries = entries
	return nil
}

package report

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/docmirror/internal/model"
)

// Change classifies a page against the previous recorded run.
type Change string

const (
	// ChangeNew marks a page that no earlier run recorded.
	ChangeNew Change = "new"

	// ChangeModified marks a page whose content hash differs from the
	// previous run.
	ChangeModified Change = "changed"

	// ChangeUnchanged marks a page with the same content hash.
	ChangeUnchanged Change = "unchanged"
)

// ClassifyChange compares a page's current content hash with the hash
// recorded by the previous run. An empty previous hash means the page is
// new.
func ClassifyChange(previous, current string) Change {
	switch {
	case previous == "":
		return ChangeNew
	case previous != current:
		return ChangeModified
	default:
		return ChangeUnchanged
	}
}

// Summary describes one finished or aborted run.
type Summary struct {
	// RunID identifies the run in the history database.
	RunID string

	// BaseURL and Section name the mirrored documentation section.
	BaseURL string
	Section string

	// SourceLanguage and TargetLanguage are the language directories.
	SourceLanguage string
	TargetLanguage string

	// OutDir is the mirror root.
	OutDir string

	StartedAt  time.Time
	FinishedAt time.Time

	// Discovered is the number of URLs found in the sitemap.
	Discovered int

	// Manifest holds the processed pages.
	Manifest *model.Manifest

	// Changes maps page URLs to their change class. Pages without an
	// entry are reported as unknown.
	Changes map[string]Change

	// AssetBytes is the total size of the mirrored assets.
	AssetBytes int64

	// Skipped lists discovered URLs that were not processed because an
	// earlier URL produced the same slug.
	Skipped []SkippedPage

	// Err is the error that aborted the run, if any.
	Err error
}

// SkippedPage is a discovered URL left out of the manifest.
type SkippedPage struct {
	URL  string `json:"url"`
	Slug string `json:"slug"`

	// DuplicateOf is the URL that produced the slug first.
	DuplicateOf string `json:"duplicate_of"`
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.Before(s.StartedAt) {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// manifest returns the summary's manifest, never nil.
func (s *Summary) manifest() *model.Manifest {
	if s.Manifest == nil {
		return model.NewManifest()
	}
	return s.Manifest
}

// Writer defines the interface for run output.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *Summary) (int, error)
}

// NewFileWriter returns the Writer matching a report file name: JSON for
// ".json", Markdown otherwise.
func NewFileWriter(name string, output io.Writer) Writer {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return NewJSONWriter(output, WithPrettyPrint())
	}
	return NewMarkdownWriter(output)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/docmirror/internal/model"
)

// ManifestFileName is the name of the manifest below the mirror root.
const ManifestFileName = "manifest.json"

// JSONWriter outputs a run summary or a manifest as JSON.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonSummary is the JSON shape of a run summary.
type jsonSummary struct {
	RunID          string          `json:"run_id,omitempty"`
	BaseURL        string          `json:"base_url"`
	Section        string          `json:"section"`
	SourceLanguage string          `json:"source_language"`
	TargetLanguage string          `json:"target_language"`
	OutDir         string          `json:"out_dir"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	DurationMillis int64           `json:"duration_ms"`
	Discovered     int             `json:"discovered"`
	Processed      int             `json:"processed"`
	Failed         int             `json:"failed"`
	AssetBytes     int64           `json:"asset_bytes"`
	Changes        map[Change]int  `json:"changes"`
	Skipped        []SkippedPage   `json:"skipped"`
	Error          string          `json:"error,omitempty"`
	Pages          *model.Manifest `json:"pages"`
}

// Write outputs the summary as a JSON object with the manifest under
// "pages".
func (w *JSONWriter) Write(summary *Summary) (int, error) {
	m := summary.manifest()
	out := jsonSummary{
		RunID:          summary.RunID,
		BaseURL:        summary.BaseURL,
		Section:        summary.Section,
		SourceLanguage: summary.SourceLanguage,
		TargetLanguage: summary.TargetLanguage,
		OutDir:         summary.OutDir,
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
		DurationMillis: summary.Duration().Milliseconds(),
		Discovered:     summary.Discovered,
		Processed:      m.Len(),
		Failed:         len(m.Failed()),
		AssetBytes:     summary.AssetBytes,
		Changes:        countChanges(summary),
		Skipped:        summary.Skipped,
		Pages:          m,
	}
	if out.Skipped == nil {
		out.Skipped = []SkippedPage{}
	}
	if summary.Err != nil {
		out.Error = summary.Err.Error()
	}
	return w.writeJSON(out)
}

// WriteManifest outputs a manifest as a JSON array. Characters such as
// '<' and '&' in URLs are written as is.
func (w *JSONWriter) WriteManifest(m *model.Manifest) (int, error) {
	return w.writeJSON(m)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}

	// Encode terminates the value with a newline.
	if err := enc.Encode(v); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}

// WriteManifestFile writes manifest.json below outDir with two-space
// indentation. The file is replaced atomically so an interrupted run never
// leaves a truncated manifest behind.
func WriteManifestFile(outDir string, m *model.Manifest) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(outDir, ".manifest-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create manifest: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := NewJSONWriter(tmp, WithPrettyPrint()).WriteManifest(m); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	name := filepath.Join(outDir, ManifestFileName)
	if err := os.Rename(tmp.Name(), name); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return name, nil
}

// ReadManifestFile loads a manifest written by WriteManifestFile.
func ReadManifestFile(name string) (*model.Manifest, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	m := model.NewManifest()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return m, nil
}

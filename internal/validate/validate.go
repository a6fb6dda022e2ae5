package validate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/report"
	"github.com/nao1215/docmirror/internal/site"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Severity tells whether an issue makes the mirror invalid.
type Severity string

const (
	// SeverityError marks an issue that makes the mirror invalid.
	SeverityError Severity = "error"

	// SeverityWarning marks an accepted gap, such as a missing asset.
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in the mirror.
type Issue struct {
	Severity Severity

	// Path is the mirror-relative file the issue was found in, or the
	// manifest for entry-level issues.
	Path string

	Message string
}

// String implements fmt.Stringer.
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// Result is the outcome of a validation.
type Result struct {
	// Entries is the number of manifest entries checked.
	Entries int

	// Documents is the number of markdown files checked.
	Documents int

	Issues []Issue
}

// Errors returns the error issues.
func (r *Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning issues.
func (r *Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// OK reports whether the mirror has no error issues.
func (r *Result) OK() bool {
	return len(r.Errors()) == 0
}

func (r *Result) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

func (r *Result) add(s Severity, p, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: s, Path: p, Message: fmt.Sprintf(format, args...)})
}

// Validator checks the mirror below a root directory.
type Validator struct {
	root      string
	languages []string
	markdown  goldmark.Markdown
	logger    *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator for the mirror in root whose entries must
// carry a document for every language directory in languages.
func New(root string, languages []string, opts ...Option) *Validator {
	v := &Validator{
		root:      root,
		languages: languages,
		markdown:  goldmark.New(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate checks the mirror. Structural manifest problems return an
// error wrapping ErrInvalidManifest; everything else is reported as an
// issue in the result.
func (v *Validator) Validate(ctx context.Context) (*Result, error) {
	manifest, err := report.ReadManifestFile(filepath.Join(v.root, report.ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := v.checkEntries(manifest); err != nil {
		return nil, err
	}

	result := &Result{Entries: manifest.Len()}
	for _, entry := range manifest.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry.Status.Failed() {
			result.add(SeverityWarning, report.ManifestFileName, "page %s failed during mirroring: %s", entry.Slug, entry.Error)
			continue
		}

		for _, lang := range v.languages {
			v.checkDocument(result, entry.Path(lang))
		}
		for _, asset := range entry.AssetsDownloaded {
			if !v.exists(asset) {
				result.add(SeverityWarning, report.ManifestFileName, "missing asset file %s", asset)
			}
		}
	}

	v.logger.Debug("mirror validated",
		"entries", result.Entries,
		"documents", result.Documents,
		"errors", len(result.Errors()),
		"warnings", len(result.Warnings()),
	)
	return result, nil
}

// checkEntries rejects entries without required keys and duplicate slugs.
func (v *Validator) checkEntries(m *model.Manifest) error {
	slugs := make(map[string]int, m.Len())
	for i, e := range m.Entries {
		var missing []string
		if e.URL == "" {
			missing = append(missing, "url")
		}
		if e.Slug == "" {
			missing = append(missing, "slug")
		}
		for _, lang := range v.languages {
			if e.Path(lang) == "" {
				missing = append(missing, model.LanguageKey(lang))
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: entry %d missing required keys: %s", ErrInvalidManifest, i, strings.Join(missing, ", "))
		}

		if first, ok := slugs[e.Slug]; ok {
			return fmt.Errorf("%w: duplicate slug %q in entries %d and %d", ErrInvalidManifest, e.Slug, first, i)
		}
		slugs[e.Slug] = i
	}
	return nil
}

// checkDocument checks one markdown file: it must exist, have an H1 and
// its relative links must resolve.
func (v *Validator) checkDocument(result *Result, docPath string) {
	data, err := os.ReadFile(v.abs(docPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.add(SeverityError, docPath, "missing markdown file")
		} else {
			result.add(SeverityError, docPath, "unreadable markdown file: %v", err)
		}
		return
	}
	result.Documents++

	root := v.markdown.Parser().Parse(text.NewReader(data))

	if !hasTitle(root) {
		result.add(SeverityError, docPath, "missing H1 title")
	}

	for _, l := range extractLinks(root) {
		target, ok := resolveLocal(docPath, l.destination)
		if !ok || v.exists(target) {
			continue
		}

		switch {
		case strings.HasSuffix(target, ".md"):
			result.add(SeverityError, docPath, "broken link %s", l.destination)
		case l.image || isAssetPath(target):
			result.add(SeverityWarning, docPath, "missing asset %s", l.destination)
		}
	}
}

// abs converts a mirror-relative slash path to a file path.
func (v *Validator) abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

func (v *Validator) exists(rel string) bool {
	_, err := os.Stat(v.abs(rel))
	return err == nil
}

// link is a link or image destination found in a document.
type link struct {
	destination string
	image       bool
}

// hasTitle reports whether the document contains a level 1 heading.
func hasTitle(root gmast.Node) bool {
	found := false
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if h, ok := n.(*gmast.Heading); ok && entering && h.Level == 1 {
			found = true
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return found
}

// extractLinks returns the destinations of inline links and images.
func extractLinks(root gmast.Node) []link {
	var links []link
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Image:
			links = append(links, link{destination: string(node.Destination), image: true})
		case *gmast.Link:
			links = append(links, link{destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

// resolveLocal resolves a relative destination against the directory of
// docPath and returns the mirror-relative target. Absolute URLs,
// root-relative paths, fragment-only links and targets above the mirror
// root are not local.
func resolveLocal(docPath, destination string) (string, bool) {
	u, err := url.Parse(destination)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", false
	}

	target := path.Join(path.Dir(docPath), u.Path)
	if target == ".." || strings.HasPrefix(target, "../") {
		return "", false
	}
	return target, true
}

func isAssetPath(p string) bool {
	return p == site.AssetsDirName || strings.HasPrefix(p, site.AssetsDirName+"/")
}

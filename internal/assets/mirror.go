package assets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/nao1215/docmirror/internal/fetch"
	"github.com/nao1215/docmirror/internal/site"
)

// File modes of the mirrored tree. Mirror output is meant to be served
// or committed, so it is world-readable.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Mirror downloads assets below <outDir>/assets.
type Mirror struct {
	// fetcher downloads asset bytes.
	fetcher fetch.Fetcher

	// site maps asset URLs to relative paths.
	site *site.Site

	// outDir is the mirror root; assets live in its "assets" subdirectory.
	outDir string

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mirror) {
		m.logger = logger
	}
}

// NewMirror creates a Mirror writing below outDir.
func NewMirror(fetcher fetch.Fetcher, s *site.Site, outDir string, opts ...Option) *Mirror {
	m := &Mirror{
		fetcher: fetcher,
		site:    s,
		outDir:  outDir,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Download mirrors one asset.
//
// It returns the asset path relative to the mirror root with forward
// slashes (e.g. "assets/sandbox/images/a.png") and whether the file is
// present locally. A non-200 response yields ok=false and no error.
// Transport and write errors are returned.
func (m *Mirror) Download(ctx context.Context, rawURL string) (string, bool, error) {
	rel, err := m.site.AssetPath(rawURL)
	if err != nil {
		return "", false, err
	}

	relPath := path.Join(site.AssetsDirName, rel)
	localPath := filepath.Join(m.outDir, filepath.FromSlash(relPath))

	if info, err := os.Stat(localPath); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		m.logger.Debug("asset already mirrored", "url", rawURL, "path", relPath)
		return relPath, true, nil
	}

	resp, err := m.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", false, fmt.Errorf("failed to download asset %s: %w", rawURL, err)
	}
	if !resp.OK() {
		m.logger.Warn("asset not downloaded", "url", rawURL, "status", resp.StatusCode)
		return "", false, nil
	}

	if err := writeFile(localPath, resp.Body); err != nil {
		return "", false, fmt.Errorf("%w: %s: %w", ErrAssetWrite, relPath, err)
	}

	m.logger.Debug("asset downloaded", "url", rawURL, "path", relPath, "bytes", len(resp.Body))

	return relPath, true, nil
}

// writeFile writes data through a temporary file in the same directory so
// an interrupted run never leaves a truncated asset behind.
func writeFile(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, name)
}

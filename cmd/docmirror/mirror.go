package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/docmirror/internal/assets"
	"github.com/nao1215/docmirror/internal/config"
	"github.com/nao1215/docmirror/internal/crawler"
	"github.com/nao1215/docmirror/internal/database"
	"github.com/nao1215/docmirror/internal/fetch"
	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/pipeline"
	"github.com/nao1215/docmirror/internal/report"
	"github.com/nao1215/docmirror/internal/site"
	"github.com/nao1215/docmirror/internal/translate"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Crawl, translate and mirror the documentation section",
		Long: `Mirror reads the site's sitemap.xml, processes every page under the
section one at a time and writes:

  <out>/<source>/<slug>.md   the page as markdown
  <out>/<target>/<slug>.md   its translation
  <out>/assets/...           images and videos referenced by the pages
  <out>/manifest.json        one entry per page

Pages are processed in sitemap order with the section root first. By
default the first page that cannot be extracted aborts the run; the
manifest of the pages completed so far is still written. Failed asset
downloads and failed translation requests never abort the run.

Examples:
  # Mirror the default site into ./mirror
  docmirror mirror -o mirror

  # Mirror another section into Japanese
  docmirror mirror --section runtime --target-lang ja -o mirror

  # Keep going past broken pages and write a summary
  docmirror mirror -k -r summary.md

  # Write the summary for people and for tools
  docmirror mirror -r summary.md -r summary.json

  # Only convert, do not translate
  docmirror mirror --no-translate`,
		Args: cobra.NoArgs,
		RunE: runMirrorCmd,
	}

	cmd.Flags().String("base-url", config.DefaultBaseURL, "Documentation site origin")
	cmd.Flags().StringP("section", "s", config.DefaultSection, "Site section to mirror")
	cmd.Flags().String("source-lang", config.DefaultSourceLanguage, "Language of the site (BCP 47)")
	cmd.Flags().String("target-lang", config.DefaultTargetLanguage, "Language to translate into (BCP 47)")
	cmd.Flags().StringP("out", "o", config.DefaultOutDir, "Output directory of the mirror")

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for sitemap and page requests")
	cmd.Flags().Duration("asset-timeout", config.DefaultAssetTimeout, "Timeout for asset downloads")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header")
	cmd.Flags().Bool("respect-robots", false, "Skip URLs disallowed by robots.txt")

	cmd.Flags().Bool("no-translate", false, "Copy the source text into the target tree")
	cmd.Flags().String("translate-endpoint", "", "Translation service URL")
	cmd.Flags().Int("chunk-size", config.DefaultChunkSize, "Maximum characters per translation request")
	cmd.Flags().Int("attempts", config.DefaultTranslateAttempts, "Translation attempts per chunk")
	cmd.Flags().Duration("retry-backoff", config.DefaultRetryBackoff, "Base delay between translation attempts")

	cmd.Flags().BoolP("keep-going", "k", false, "Record failed pages and continue")
	cmd.Flags().StringSliceP("report", "r", nil, "Write a run summary to this file (.json for JSON, otherwise markdown); repeatable")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildMirrorConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runMirror(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildMirrorConfig applies the mirror flags the user set on top of the
// configuration file.
func buildMirrorConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	stringFlags := map[string]*string{
		"base-url":           &cfg.BaseURL,
		"section":            &cfg.Section,
		"source-lang":        &cfg.SourceLanguage,
		"target-lang":        &cfg.TargetLanguage,
		"out":                &cfg.OutDir,
		"user-agent":         &cfg.UserAgent,
		"translate-endpoint": &cfg.TranslateEndpoint,
	}
	for name, dst := range stringFlags {
		if err := stringFlag(cmd, name, dst); err != nil {
			return nil, err
		}
	}

	boolFlags := map[string]*bool{
		"respect-robots": &cfg.RespectRobots,
		"no-translate":   &cfg.NoTranslate,
		"keep-going":     &cfg.KeepGoing,
	}
	for name, dst := range boolFlags {
		if err := boolFlag(cmd, name, dst); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("report") {
		if cfg.ReportFiles, err = cmd.Flags().GetStringSlice("report"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("asset-timeout") {
		if cfg.AssetTimeout, err = cmd.Flags().GetDuration("asset-timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("retry-backoff") {
		if cfg.RetryBackoff, err = cmd.Flags().GetDuration("retry-backoff"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("chunk-size") {
		if cfg.ChunkSize, err = cmd.Flags().GetInt("chunk-size"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("attempts") {
		if cfg.TranslateAttempts, err = cmd.Flags().GetInt("attempts"); err != nil {
			return nil, err
		}
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.DBDir = ""
	}

	return cfg, nil
}

// runMirror performs one mirror run and writes the manifest, even when
// the run stops early.
func runMirror(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	s, err := site.New(cfg.BaseURL, cfg.Section)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	srcTag, tgtTag := cfg.Languages()
	srcDir, tgtDir := config.LanguageDir(srcTag), config.LanguageDir(tgtTag)

	clientOpts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	}
	client := fetch.NewClient(cfg.Timeout, clientOpts...)
	assetClient := fetch.NewClient(cfg.AssetTimeout, clientOpts...)

	summary := &report.Summary{
		BaseURL:        s.BaseURL(),
		Section:        s.Section(),
		SourceLanguage: srcDir,
		TargetLanguage: tgtDir,
		OutDir:         cfg.OutDir,
		StartedAt:      time.Now(),
		Manifest:       model.NewManifest(),
		Changes:        make(map[string]report.Change),
	}

	rec := newRecorder(ctx, cfg, summary, logger)
	defer rec.close()

	discoverOpts := []crawler.DiscovererOption{crawler.WithDiscovererLogger(logger)}
	if cfg.RespectRobots {
		discoverOpts = append(discoverOpts, crawler.WithRobots(cfg.UserAgent))
	}
	urls, err := crawler.NewDiscoverer(client, s, discoverOpts...).Discover(ctx)
	if err != nil {
		return finish(ctx, cfg, summary, rec, out, logger, fmt.Errorf("failed to discover pages: %w", err), false)
	}
	summary.Discovered = len(urls)
	fmt.Fprintf(out, "Found %d pages under %s\n", len(urls), s.RootURL())

	translator, err := newDocumentTranslator(ctx, cfg, client, srcTag, tgtTag, logger)
	if err != nil {
		return finish(ctx, cfg, summary, rec, out, logger, err, false)
	}

	p := pipeline.NewMirrorPipeline(
		crawler.NewExtractor(client, s, crawler.WithExtractorLogger(logger)),
		s,
		assets.NewMirror(assetClient, s, cfg.OutDir, assets.WithLogger(logger)),
		translator,
		cfg.OutDir,
		pipeline.WithLogger(logger),
	)

	runner := pipeline.NewRunner(s, p, srcDir, tgtDir,
		pipeline.WithKeepGoing(cfg.KeepGoing),
		pipeline.WithProgress(out),
		pipeline.WithPageHook(rec.page),
		pipeline.WithSkipHook(func(page model.Page, duplicateOf string) {
			summary.Skipped = append(summary.Skipped, report.SkippedPage{URL: page.URL, Slug: page.Slug, DuplicateOf: duplicateOf})
		}),
		pipeline.WithRunnerLogger(logger),
	)

	manifest, runErr := runner.Run(ctx, urls)
	summary.Manifest = manifest
	return finish(ctx, cfg, summary, rec, out, logger, runErr, true)
}

// finish writes the manifest and the optional report, closes the history
// record and prints the outcome. It returns runErr, or the first output
// error when the run itself succeeded.
func finish(
	ctx context.Context,
	cfg *config.Config,
	summary *report.Summary,
	rec *recorder,
	out io.Writer,
	logger *slog.Logger,
	runErr error,
	writeManifest bool,
) error {
	summary.FinishedAt = time.Now()
	summary.Err = runErr
	summary.AssetBytes = assetBytes(cfg.OutDir, summary.Manifest.Assets())

	var outErr error
	if writeManifest {
		name, err := report.WriteManifestFile(cfg.OutDir, summary.Manifest)
		if err != nil {
			outErr = err
		} else {
			fmt.Fprintf(out, "Wrote %s (%d pages)\n", name, summary.Manifest.Len())
		}
	}

	rec.finish(context.WithoutCancel(ctx), runErr)

	if len(cfg.ReportFiles) > 0 {
		if err := writeReports(cfg.ReportFiles, summary); err != nil {
			logger.Error("failed to write report", "files", cfg.ReportFiles, "error", err)
			outErr = errors.Join(outErr, err)
		} else {
			for _, name := range cfg.ReportFiles {
				fmt.Fprintf(out, "Wrote report %s\n", name)
			}
		}
	}

	if n := len(summary.Skipped); n > 0 {
		fmt.Fprintf(out, "%d discovered URL(s) skipped as duplicate slugs:\n", n)
		for _, p := range summary.Skipped {
			fmt.Fprintf(out, "  %s (same slug %q as %s)\n", p.URL, p.Slug, p.DuplicateOf)
		}
	}
	if failed := len(summary.Manifest.Failed()); failed > 0 {
		fmt.Fprintf(out, "%d of %d pages failed; see manifest for details\n", failed, summary.Manifest.Len())
	}
	if runErr == nil && outErr == nil {
		fmt.Fprintf(out, "Mirror completed in %s\n", summary.Duration().Round(time.Millisecond))
	}

	if runErr != nil {
		return runErr
	}
	return outErr
}

// newDocumentTranslator selects the translation backend: none with
// NoTranslate, the keyed Cloud API when an API key is set, and the public
// web endpoint otherwise.
func newDocumentTranslator(
	ctx context.Context,
	cfg *config.Config,
	client translate.Doer,
	src, tgt language.Tag,
	logger *slog.Logger,
) (*translate.Markdown, error) {
	var t translate.Translator
	switch {
	case cfg.NoTranslate:
		t = translate.Identity{}
	case cfg.TranslateAPIKey != "":
		cloud, err := translate.NewGoogleCloud(ctx, client, cfg.TranslateEndpoint, cfg.TranslateAPIKey)
		if err != nil {
			return nil, err
		}
		t = cloud
	default:
		t = translate.NewGoogleWeb(client, cfg.TranslateEndpoint)
	}

	return translate.NewMarkdown(t, src, tgt,
		translate.WithChunkSize(cfg.ChunkSize),
		translate.WithRetry(cfg.TranslateAttempts, cfg.RetryBackoff),
		translate.WithLineGlossary(glossary(cfg.LineGlossary)),
		translate.WithDocumentGlossary(glossary(cfg.DocumentGlossary)),
		translate.WithLogger(logger),
	), nil
}

func glossary(entries []config.GlossaryEntry) translate.Glossary {
	g := make(translate.Glossary, 0, len(entries))
	for _, e := range entries {
		g = append(g, translate.Replacement{From: e.From, To: e.To})
	}
	return g
}

// assetBytes sums the sizes of the mirrored asset files.
func assetBytes(outDir string, paths []string) int64 {
	var total int64
	for _, p := range paths {
		if info, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(p))); err == nil {
			total += info.Size()
		}
	}
	return total
}

// writeReports writes the run summary to every named file, choosing the
// format by extension.
func writeReports(names []string, summary *report.Summary) (err error) {
	writers := make([]report.Writer, 0, len(names))
	for _, name := range names {
		if dir := filepath.Dir(name); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, createErr := os.Create(name) //nolint:gosec // User-provided report path is intentional
		if createErr != nil {
			return fmt.Errorf("failed to create report: %w", createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close report %s: %w", name, cerr)
			}
		}()

		writers = append(writers, report.NewFileWriter(name, f))
	}

	if _, err := report.NewMultiWriter(writers...).Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// recorder stores the run in the history database. A recorder without a
// database does nothing; history failures are logged and never fail the
// run.
type recorder struct {
	db       *database.HistoryDB
	run      *database.Run
	previous map[string]string
	summary  *report.Summary
	ctx      context.Context
	logger   *slog.Logger
}

// newRecorder opens the history database and starts a run record.
func newRecorder(ctx context.Context, cfg *config.Config, summary *report.Summary, logger *slog.Logger) *recorder {
	rec := &recorder{summary: summary, ctx: ctx, logger: logger}
	if cfg.DBDir == "" {
		return rec
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("run history disabled", "dir", cfg.DBDir, "error", err)
		return rec
	}

	run, err := db.StartRun(ctx, database.Run{
		BaseURL:        summary.BaseURL,
		Section:        summary.Section,
		SourceLanguage: summary.SourceLanguage,
		TargetLanguage: summary.TargetLanguage,
		OutDir:         summary.OutDir,
	})
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		_ = db.Close()
		return rec
	}

	previous, err := db.PreviousHashes(ctx, summary.BaseURL, summary.Section, run.ID)
	if err != nil {
		logger.Warn("previous page hashes unavailable", "error", err)
	}

	rec.db = db
	rec.run = run
	rec.previous = previous
	summary.RunID = run.ID
	logger.Debug("recording run", "id", run.ID, "db", db.Path())
	return rec
}

// page records one finished page and classifies its change.
func (r *recorder) page(job *model.PageJob, err error) {
	status := model.PageStatusOK
	var msg string
	if err != nil {
		status = model.PageStatusFailed
		msg = err.Error()
	} else if r.db != nil {
		r.summary.Changes[job.URL] = report.ClassifyChange(r.previous[job.URL], job.Hash)
	}

	if r.db == nil {
		return
	}

	rec := database.PageRecord{
		URL:         job.URL,
		Slug:        job.Slug,
		Status:      status.String(),
		ContentHash: job.Hash,
		Assets:      len(job.AssetsDownloaded),
		Error:       msg,
	}
	if err := r.db.RecordPage(context.WithoutCancel(r.ctx), r.run.ID, rec); err != nil {
		r.logger.Warn("failed to record page", "url", job.URL, "error", err)
	}
}

// finish marks the run as completed, failed or canceled.
func (r *recorder) finish(ctx context.Context, runErr error) {
	if r.db == nil {
		return
	}

	status := database.RunStatusCompleted
	switch {
	case errors.Is(runErr, context.Canceled):
		status = database.RunStatusCanceled
	case runErr != nil:
		status = database.RunStatusFailed
	}

	if err := r.db.FinishRun(ctx, r.run.ID, status, runErr); err != nil {
		r.logger.Warn("failed to finish run record", "error", err)
	}
}

func (r *recorder) close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/site"
)

// PageHook is called after each page with the finished job and the
// pipeline error, if any.
type PageHook func(job *model.PageJob, err error)

// SkipHook is called for a URL that is not processed because an earlier
// URL already produced its slug.
type SkipHook func(page model.Page, duplicateOf string)

// Runner feeds URLs through a Pipeline one page at a time.
type Runner struct {
	site       *site.Site
	pipeline   *Pipeline
	sourceLang string
	targetLang string

	// keepGoing records failed pages and continues instead of aborting.
	keepGoing bool

	// progress receives one "[i/n] Processing <url>" line per page.
	progress io.Writer

	hooks     []PageHook
	skipHooks []SkipHook
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithKeepGoing makes page failures non-fatal.
func WithKeepGoing(keepGoing bool) RunnerOption {
	return func(r *Runner) {
		r.keepGoing = keepGoing
	}
}

// WithProgress sets the writer for progress lines.
func WithProgress(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.progress = w
	}
}

// WithPageHook registers a hook called after every page.
func WithPageHook(hook PageHook) RunnerOption {
	return func(r *Runner) {
		r.hooks = append(r.hooks, hook)
	}
}

// WithSkipHook registers a hook called for every skipped duplicate URL.
func WithSkipHook(hook SkipHook) RunnerOption {
	return func(r *Runner) {
		r.skipHooks = append(r.skipHooks, hook)
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner writing documents to the given language
// directories.
func NewRunner(s *site.Site, p *Pipeline, sourceLang, targetLang string, opts ...RunnerOption) *Runner {
	r := &Runner{
		site:       s,
		pipeline:   p,
		sourceLang: sourceLang,
		targetLang: targetLang,
		progress:   io.Discard,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run processes urls in order and returns the manifest.
//
// The manifest holds exactly one entry per processed URL in input order.
// A URL whose slug was already produced by an earlier URL is skipped and
// reported to the skip hooks. On a fatal error the manifest of the pages
// completed so far is returned together with the error.
func (r *Runner) Run(ctx context.Context, urls []string) (*model.Manifest, error) {
	manifest := model.NewManifest()
	seen := make(map[string]string, len(urls))

	r.logger.Debug("starting run", "pages", len(urls), "steps", r.pipeline.StepNames())

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return manifest, err
		}

		fmt.Fprintf(r.progress, "[%d/%d] Processing %s\n", i+1, len(urls), u)

		page := model.Page{URL: u, Slug: r.site.Slug(u)}
		if first, ok := seen[page.Slug]; ok {
			r.logger.Warn("skipping page with duplicate slug", "url", u, "slug", page.Slug, "first", first)
			for _, hook := range r.skipHooks {
				hook(page, first)
			}
			continue
		}
		seen[page.Slug] = u

		job := model.NewPageJob(page, i+1, r.sourceLang, r.targetLang)
		err := r.pipeline.Execute(ctx, job)

		for _, hook := range r.hooks {
			hook(job, err)
		}

		if err == nil {
			manifest.Add(job.Entry())
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return manifest, ctxErr
		}
		if !r.keepGoing {
			return manifest, fmt.Errorf("failed to process %s: %w", u, err)
		}

		r.logger.Error("page failed, continuing", "url", u, "error", err)
		manifest.Add(job.FailedEntry(err))
	}

	return manifest, nil
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/docmirror/internal/crawler"
	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/site"
)

// File modes of written documents.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Step names in execution order.
const (
	StepExtract      = "extract"
	StepRewriteLinks = "rewrite_links"
	StepWriteSource  = "write_source"
	StepMirrorAssets = "mirror_assets"
	StepTranslate    = "translate"
	StepWriteTarget  = "write_target"
)

// ArticleExtractor converts a page URL into an article.
// *crawler.Extractor satisfies it.
type ArticleExtractor interface {
	Extract(ctx context.Context, pageURL string) (*crawler.Article, error)
}

// AssetMirror stores one asset locally.
// *assets.Mirror satisfies it.
type AssetMirror interface {
	Download(ctx context.Context, rawURL string) (string, bool, error)
}

// DocumentTranslator translates a whole markdown document.
// *translate.Markdown satisfies it.
type DocumentTranslator interface {
	Translate(ctx context.Context, doc string) (string, error)
}

// ExtractStep fetches the page and converts its article to markdown.
type ExtractStep struct {
	extractor ArticleExtractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor ArticleExtractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return StepExtract
}

// Do fills the job's title, markdown, hash and asset list.
func (s *ExtractStep) Do(ctx context.Context, job *model.PageJob) error {
	article, err := s.extractor.Extract(ctx, job.URL)
	if err != nil {
		return err
	}

	job.Title = article.Title
	job.Markdown = article.Markdown
	job.Hash = model.ContentHash(article.Markdown)
	job.Assets = article.Assets
	return nil
}

// RewriteLinksStep points internal links at the mirrored files.
type RewriteLinksStep struct {
	site *site.Site
}

// NewRewriteLinksStep creates a RewriteLinksStep.
func NewRewriteLinksStep(s *site.Site) *RewriteLinksStep {
	return &RewriteLinksStep{site: s}
}

// Name returns the step name.
func (s *RewriteLinksStep) Name() string {
	return StepRewriteLinks
}

// Do rewrites the links of the job's markdown relative to its slug.
func (s *RewriteLinksStep) Do(_ context.Context, job *model.PageJob) error {
	job.Markdown = s.site.RewriteLinks(job.Markdown, job.Slug)
	return nil
}

// WriteStep writes one of the job's documents below the mirror root.
type WriteStep struct {
	outDir string
	target bool
}

// NewWriteSourceStep creates the step writing the source-language document.
func NewWriteSourceStep(outDir string) *WriteStep {
	return &WriteStep{outDir: outDir}
}

// NewWriteTargetStep creates the step writing the translated document.
func NewWriteTargetStep(outDir string) *WriteStep {
	return &WriteStep{outDir: outDir, target: true}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	if s.target {
		return StepWriteTarget
	}
	return StepWriteSource
}

// Do writes the document, replacing any previous version.
func (s *WriteStep) Do(_ context.Context, job *model.PageJob) error {
	doc, content := job.Source, job.Markdown
	if s.target {
		doc, content = job.Target, job.Translated
	}

	name := filepath.Join(s.outDir, filepath.FromSlash(doc.Path))
	if err := os.MkdirAll(filepath.Dir(name), dirPerm); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteDocument, doc.Path, err)
	}
	if err := os.WriteFile(name, []byte(content), filePerm); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteDocument, doc.Path, err)
	}
	return nil
}

// MirrorAssetsStep downloads the assets the article references.
type MirrorAssetsStep struct {
	mirror AssetMirror
	logger *slog.Logger
}

// MirrorAssetsStepOption configures a MirrorAssetsStep.
type MirrorAssetsStepOption func(*MirrorAssetsStep)

// WithMirrorLogger sets a custom logger for the asset step.
func WithMirrorLogger(logger *slog.Logger) MirrorAssetsStepOption {
	return func(s *MirrorAssetsStep) {
		s.logger = logger
	}
}

// NewMirrorAssetsStep creates a MirrorAssetsStep.
func NewMirrorAssetsStep(mirror AssetMirror, opts ...MirrorAssetsStepOption) *MirrorAssetsStep {
	s := &MirrorAssetsStep{
		mirror: mirror,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *MirrorAssetsStep) Name() string {
	return StepMirrorAssets
}

// Do mirrors every asset. Failed downloads are logged and counted; only
// context cancellation fails the step.
func (s *MirrorAssetsStep) Do(ctx context.Context, job *model.PageJob) error {
	for _, asset := range job.Assets {
		rel, ok, err := s.mirror.Download(ctx, asset)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Warn("asset download failed", "url", asset, "page", job.URL, "error", err)
			job.AssetFailures++
			continue
		}
		if !ok {
			job.AssetFailures++
			continue
		}
		job.AssetsDownloaded = append(job.AssetsDownloaded, rel)
	}
	return nil
}

// TranslateStep translates the rewritten markdown.
type TranslateStep struct {
	translator DocumentTranslator
}

// NewTranslateStep creates a TranslateStep.
func NewTranslateStep(translator DocumentTranslator) *TranslateStep {
	return &TranslateStep{translator: translator}
}

// Name returns the step name.
func (s *TranslateStep) Name() string {
	return StepTranslate
}

// Do fills the job's translated markdown.
func (s *TranslateStep) Do(ctx context.Context, job *model.PageJob) error {
	translated, err := s.translator.Translate(ctx, job.Markdown)
	if err != nil {
		return err
	}
	job.Translated = translated
	return nil
}

// NewMirrorPipeline assembles the standard page pipeline.
func NewMirrorPipeline(
	extractor ArticleExtractor,
	s *site.Site,
	mirror AssetMirror,
	translator DocumentTranslator,
	outDir string,
	opts ...Option,
) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewExtractStep(extractor),
		NewRewriteLinksStep(s),
		NewWriteSourceStep(outDir),
		NewMirrorAssetsStep(mirror, WithMirrorLogger(p.logger)),
		NewTranslateStep(translator),
		NewWriteTargetStep(outDir),
	)
	return p
}

package model

// PageJob carries one page through the pipeline. Each step reads what the
// previous steps filled in and adds its own results.
type PageJob struct {
	Page

	// Index is the 1-based position of the page in the run.
	Index int

	// Title is the text of the article's first heading.
	Title string

	// Markdown is the source-language markdown. The link rewriting step
	// replaces it with the rewritten version.
	Markdown string

	// Hash is the content hash of the extracted markdown.
	Hash string

	// Assets are the absolute asset URLs referenced by the article.
	Assets []string

	// AssetsDownloaded are the mirrored asset paths relative to the mirror
	// root, in the order of Assets.
	AssetsDownloaded []string

	// AssetFailures counts assets that could not be mirrored.
	AssetFailures int

	// Translated is the target-language markdown.
	Translated string

	// Source and Target are the documents written for the page.
	Source Document
	Target Document
}

// NewPageJob creates a job for page with document paths in the given
// language directories.
func NewPageJob(page Page, index int, sourceLang, targetLang string) *PageJob {
	return &PageJob{
		Page:   page,
		Index:  index,
		Source: Document{Language: sourceLang, Path: DocumentPath(sourceLang, page.Slug)},
		Target: Document{Language: targetLang, Path: DocumentPath(targetLang, page.Slug)},
	}
}

// Entry returns the manifest entry of a completed job.
func (j *PageJob) Entry() ManifestEntry {
	assets := make([]string, len(j.AssetsDownloaded))
	copy(assets, j.AssetsDownloaded)

	return ManifestEntry{
		URL:              j.URL,
		Slug:             j.Slug,
		Documents:        []Document{j.Source, j.Target},
		AssetsDownloaded: assets,
		Status:           PageStatusOK,
	}
}

// FailedEntry returns the manifest entry of a job that failed with err.
func (j *PageJob) FailedEntry(err error) ManifestEntry {
	e := j.Entry()
	e.Status = PageStatusFailed
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

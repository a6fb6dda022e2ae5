// Package crawler discovers the pages of the mirrored section and extracts
// their article content.
//
// # Components
//
//   - Discoverer: reads the site index (sitemap.xml) and returns the in-scope
//     page URLs in a deterministic order, section root first
//   - Extractor: fetches one page, isolates "main article", strips page
//     furniture and converts the rest to markdown
//   - AssetCollector: walks the article's HTML tree and collects the
//     downloadable assets it references
//
// # Usage
//
//	d := crawler.NewDiscoverer(client, s)
//	urls, err := d.Discover(ctx)
//
//	e := crawler.NewExtractor(client, s)
//	article, err := e.Extract(ctx, urls[0])
//
// Both components fail loudly: a missing site index or a page without an
// article element means the site structure changed and the run should stop.
package crawler

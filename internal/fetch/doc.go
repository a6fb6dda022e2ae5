// Package fetch provides the HTTP handle shared by every docmirror component.
//
// A single Client is created per run and passed explicitly to the URL
// discoverer, the article extractor and the asset mirror. Components depend on
// the Fetcher interface so tests can substitute an httptest server or a stub.
//
// # Usage
//
//	client := fetch.NewClient(30*time.Second, fetch.WithUserAgent("docmirror/1.0"))
//	resp, err := client.Fetch(ctx, "https://docs.deno.com/sitemap.xml")
package fetch

// Package pipeline runs documentation pages through the mirror steps.
//
// Every page is a model.PageJob that passes through the same ordered
// steps:
//
//	extract -> rewrite_links -> write_source -> mirror_assets -> translate -> write_target
//
// A Pipeline executes the steps for one page and stops at the first step
// that fails. A Runner feeds the discovered URLs through the pipeline one
// at a time, prints progress and collects the manifest.
//
// Asset and translation problems never fail a step; they are logged and
// counted on the job. Extraction and write failures abort the run unless
// the runner is configured to keep going, in which case the page is
// recorded as failed and the next page is processed.
package pipeline

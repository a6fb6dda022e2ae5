// Package report writes the outputs that describe a mirror run.
//
// WriteManifestFile produces manifest.json, the machine-readable list of
// mirrored pages. The run summary is written by MarkdownWriter for people
// and by JSONWriter for tools; NewFileWriter picks one by file extension
// and MultiWriter writes several at once.
package report

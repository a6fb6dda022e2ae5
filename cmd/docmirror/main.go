// Package main provides the entry point for the docmirror CLI.
//
// docmirror crawls one section of a documentation site, converts every
// page to markdown, mirrors the referenced assets and writes a translated
// copy of each page next to the original.
//
// Usage:
//
//	docmirror mirror -o ./mirror
//	docmirror validate -o ./mirror
//
// See --help for all available options.
package main

// main is the entry point for docmirror.
func main() {
	Execute()
}

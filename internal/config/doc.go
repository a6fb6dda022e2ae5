// Package config provides configuration structures and utilities for docmirror.
// It defines the target site, language pair, output layout, network limits
// and translation settings used by a mirror run.
package config

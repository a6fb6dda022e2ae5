package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"
)

// Default configuration values.
// These values match the documentation site the tool was written for.
const (
	// DefaultBaseURL is the origin of the documentation site.
	DefaultBaseURL = "https://docs.deno.com"

	// DefaultSection is the top-level path segment that is mirrored.
	DefaultSection = "sandbox"

	// DefaultSourceLanguage is the language the site is written in.
	DefaultSourceLanguage = "en"

	// DefaultTargetLanguage is the language the mirror is translated into.
	DefaultTargetLanguage = "zh-TW"

	// DefaultOutDir is the directory the mirror is written to.
	DefaultOutDir = "."

	// DefaultTimeout applies to sitemap and page requests.
	DefaultTimeout = 30 * time.Second

	// DefaultAssetTimeout applies to asset downloads, which can be large videos.
	DefaultAssetTimeout = 60 * time.Second

	// DefaultUserAgent identifies docmirror in HTTP requests.
	DefaultUserAgent = "docmirror/1.0 (+https://github.com/nao1215/docmirror)"

	// DefaultMaxBodySize limits the response body size read for any request.
	DefaultMaxBodySize = 64 * 1024 * 1024 // 64MB

	// DefaultChunkSize is the maximum number of characters sent to the
	// translation service in a single call.
	DefaultChunkSize = 4200

	// DefaultTranslateAttempts is the number of attempts per chunk before
	// the untranslated text is kept.
	DefaultTranslateAttempts = 4

	// DefaultRetryBackoff is the base delay between translation attempts.
	// The n-th retry waits n times this value.
	DefaultRetryBackoff = 1200 * time.Millisecond

	// AppName is the application name used for XDG directory paths.
	AppName = "docmirror"
)

// Config holds all configuration options for a mirror run.
// It is populated from defaults, an optional YAML file and CLI flags,
// and passed explicitly to every component.
type Config struct {
	// BaseURL is the site origin, e.g. "https://docs.deno.com".
	BaseURL string

	// Section is the path segment under BaseURL that is mirrored.
	Section string

	// SourceLanguage is the BCP 47 tag of the site's language.
	SourceLanguage string

	// TargetLanguage is the BCP 47 tag the mirror is translated into.
	TargetLanguage string

	// OutDir is the root of the two language trees, the assets directory
	// and the manifest.
	OutDir string

	// Timeout is the request timeout for sitemap and page fetches.
	Timeout time.Duration

	// AssetTimeout is the request timeout for asset downloads.
	AssetTimeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Set to 0 to use the default.
	MaxBodySize int64

	// ChunkSize bounds the characters per translation call.
	ChunkSize int

	// TranslateAttempts is the number of attempts per chunk.
	TranslateAttempts int

	// RetryBackoff is the base linear backoff between attempts.
	RetryBackoff time.Duration

	// TranslateEndpoint overrides the translation service URL. Empty means
	// the service default. With an API key it is the Cloud Translation base
	// URL, which the v2 path is appended to.
	TranslateEndpoint string

	// TranslateAPIKey selects the keyed Cloud Translation API when set.
	TranslateAPIKey string

	// NoTranslate copies the source text into the target tree unchanged.
	NoTranslate bool

	// RespectRobots drops sitemap URLs disallowed by robots.txt.
	RespectRobots bool

	// KeepGoing records a failed page in the manifest and continues
	// instead of aborting the run on the first extraction failure.
	KeepGoing bool

	// LineGlossary and DocumentGlossary are appended to the built-in
	// terminology tables of the translator.
	LineGlossary     []GlossaryEntry
	DocumentGlossary []GlossaryEntry

	// ConfigFilePath is the configuration file given with -c.
	ConfigFilePath string

	// DBDir is the directory holding the run history database.
	// Empty disables history recording.
	DBDir string

	// ReportFiles are the run summary files to write. A ".json" file gets
	// the JSON summary, any other name the Markdown summary.
	ReportFiles []string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		Section:           DefaultSection,
		SourceLanguage:    DefaultSourceLanguage,
		TargetLanguage:    DefaultTargetLanguage,
		OutDir:            DefaultOutDir,
		Timeout:           DefaultTimeout,
		AssetTimeout:      DefaultAssetTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		ChunkSize:         DefaultChunkSize,
		TranslateAttempts: DefaultTranslateAttempts,
		RetryBackoff:      DefaultRetryBackoff,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for docmirror.
// On Linux: ~/.local/share/docmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docmirror.
// On Linux: ~/.config/docmirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if strings.Trim(c.Section, "/") == "" {
		return ErrEmptySection
	}

	src, err := language.Parse(c.SourceLanguage)
	if err != nil {
		return ErrInvalidLanguage
	}
	tgt, err := language.Parse(c.TargetLanguage)
	if err != nil {
		return ErrInvalidLanguage
	}
	if LanguageDir(src) == LanguageDir(tgt) {
		return ErrSameLanguage
	}

	if c.OutDir == "" {
		return ErrEmptyOutDir
	}

	if c.Timeout <= 0 || c.AssetTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if c.TranslateAttempts < 1 {
		return ErrInvalidAttempts
	}

	if c.RetryBackoff < 0 {
		return ErrInvalidBackoff
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// Languages returns the parsed source and target language tags.
// It must only be called after Validate succeeded.
func (c *Config) Languages() (language.Tag, language.Tag) {
	return language.MustParse(c.SourceLanguage), language.MustParse(c.TargetLanguage)
}

// LanguageDir returns the output directory name for a language tag.
// The canonical tag is lower-cased, so zh-TW is written to "zh-tw".
func LanguageDir(tag language.Tag) string {
	return strings.ToLower(tag.String())
}

// AssetsDir returns the shared assets directory under OutDir.
func (c *Config) AssetsDir() string {
	return filepath.Join(c.OutDir, "assets")
}

// ManifestPath returns the manifest file path under OutDir.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.OutDir, "manifest.json")
}

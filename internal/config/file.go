package config

import "time"

// GlossaryEntry is one terminology substitution applied to translated text.
// Entries are applied in order; an entry may map a term to itself to
// document that the term is intentionally kept.
type GlossaryEntry struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// File represents the structure of the .docmirror.yaml configuration file.
// Zero values leave the corresponding default untouched.
type File struct {
	BaseURL        string `yaml:"baseURL,omitempty"`
	Section        string `yaml:"section,omitempty"`
	SourceLanguage string `yaml:"sourceLanguage,omitempty"`
	TargetLanguage string `yaml:"targetLanguage,omitempty"`
	OutDir         string `yaml:"outDir,omitempty"`
	UserAgent      string `yaml:"userAgent,omitempty"`

	Timeout      time.Duration `yaml:"timeout,omitempty"`
	AssetTimeout time.Duration `yaml:"assetTimeout,omitempty"`
	MaxBodySize  int64         `yaml:"maxBodySize,omitempty"`

	RespectRobots bool `yaml:"respectRobots,omitempty"`
	KeepGoing     bool `yaml:"keepGoing,omitempty"`

	Translate TranslateFile `yaml:"translate,omitempty"`
}

// TranslateFile holds the translation section of the configuration file.
type TranslateFile struct {
	Endpoint     string        `yaml:"endpoint,omitempty"`
	APIKey       string        `yaml:"apiKey,omitempty"`
	ChunkSize    int           `yaml:"chunkSize,omitempty"`
	Attempts     int           `yaml:"attempts,omitempty"`
	RetryBackoff time.Duration `yaml:"retryBackoff,omitempty"`

	// LineGlossary is applied to every translated line.
	LineGlossary []GlossaryEntry `yaml:"lineGlossary,omitempty"`

	// DocumentGlossary is applied once to the assembled document.
	DocumentGlossary []GlossaryEntry `yaml:"documentGlossary,omitempty"`
}

// Apply overlays the non-zero values of the file onto the config.
func (f *File) Apply(c *Config) {
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.Section != "" {
		c.Section = f.Section
	}
	if f.SourceLanguage != "" {
		c.SourceLanguage = f.SourceLanguage
	}
	if f.TargetLanguage != "" {
		c.TargetLanguage = f.TargetLanguage
	}
	if f.OutDir != "" {
		c.OutDir = f.OutDir
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.AssetTimeout > 0 {
		c.AssetTimeout = f.AssetTimeout
	}
	if f.MaxBodySize > 0 {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.RespectRobots {
		c.RespectRobots = true
	}
	if f.KeepGoing {
		c.KeepGoing = true
	}

	t := f.Translate
	if t.Endpoint != "" {
		c.TranslateEndpoint = t.Endpoint
	}
	if t.APIKey != "" {
		c.TranslateAPIKey = t.APIKey
	}
	if t.ChunkSize > 0 {
		c.ChunkSize = t.ChunkSize
	}
	if t.Attempts > 0 {
		c.TranslateAttempts = t.Attempts
	}
	if t.RetryBackoff > 0 {
		c.RetryBackoff = t.RetryBackoff
	}
	c.LineGlossary = append(c.LineGlossary, t.LineGlossary...)
	c.DocumentGlossary = append(c.DocumentGlossary, t.DocumentGlossary...)
}

package translate

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Defaults for a Markdown translator.
const (
	DefaultChunkSize = 4200
	DefaultAttempts  = 4
	DefaultBackoff   = 1200 * time.Millisecond
)

var (
	// prefixPattern matches the structural prefix of a line: indentation
	// and at most one bullet, ordinal, heading or quote marker.
	prefixPattern = regexp.MustCompile(`^\s*(?:[-*+]\s+|\d+\.\s+|#{1,6}\s+|>\s+)?`)

	// filenamePattern matches a line that is only a source file name.
	filenamePattern = regexp.MustCompile(`^[\w.-]+\.(?:ts|js|tsx|jsx|py|json|yaml|yml|sh|bash)$`)

	inlineCodePattern = regexp.MustCompile("`[^`]+`")
	linkPattern       = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)]+)\)`)
	bareURLPattern    = regexp.MustCompile(`https?://\S+`)

	placeholderPattern = regexp.MustCompile(`__PH_\d+__`)
	letterPattern      = regexp.MustCompile(`[A-Za-z]`)
)

// fenceMarkers open and close code blocks.
var fenceMarkers = []string{"```", "~~~"}

// Markdown translates markdown documents line by line.
type Markdown struct {
	translator       Translator
	source           language.Tag
	target           language.Tag
	chunkSize        int
	retry            RetryPolicy
	lineGlossary     Glossary
	documentGlossary Glossary
	logger           *slog.Logger
}

// Option configures a Markdown translator.
type Option func(*Markdown)

// WithChunkSize sets the maximum runes per translation call.
func WithChunkSize(n int) Option {
	return func(m *Markdown) {
		m.chunkSize = n
	}
}

// WithRetry sets the attempts per chunk and the linear backoff base.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(m *Markdown) {
		m.retry = RetryPolicy{Attempts: attempts, Backoff: backoff}
	}
}

// WithLineGlossary appends entries to the per-line glossary.
func WithLineGlossary(g Glossary) Option {
	return func(m *Markdown) {
		m.lineGlossary = append(m.lineGlossary, g...)
	}
}

// WithDocumentGlossary appends entries to the document glossary.
func WithDocumentGlossary(g Glossary) Option {
	return func(m *Markdown) {
		m.documentGlossary = append(m.documentGlossary, g...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Markdown) {
		m.logger = logger
	}
}

// NewMarkdown creates a translator from source to target using t for the
// actual text translation. The built-in glossaries of target are applied
// before any appended entries.
func NewMarkdown(t Translator, source, target language.Tag, opts ...Option) *Markdown {
	m := &Markdown{
		translator:       t,
		source:           source,
		target:           target,
		chunkSize:        DefaultChunkSize,
		retry:            RetryPolicy{Attempts: DefaultAttempts, Backoff: DefaultBackoff},
		lineGlossary:     DefaultLineGlossary(target),
		documentGlossary: DefaultDocumentGlossary(target),
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.retry.Attempts < 1 {
		m.retry.Attempts = 1
	}

	return m
}

// Translate translates a markdown document. Fenced code, bare file names
// and line structure are preserved. The result ends with exactly one
// newline. Failed chunks keep their source text; the only error returned
// is the context's.
func (m *Markdown) Translate(ctx context.Context, doc string) (string, error) {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))

	var fence string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			out = append(out, line)
			continue
		}
		if marker := fenceMarker(trimmed); marker != "" {
			fence = marker
			out = append(out, line)
			continue
		}

		if filenamePattern.MatchString(trimmed) {
			out = append(out, line)
			continue
		}

		translated, err := m.translateLine(ctx, line)
		if err != nil {
			return "", err
		}
		out = append(out, translated)
	}

	text := strings.TrimSpace(strings.Join(out, "\n")) + "\n"
	return m.documentGlossary.Apply(text), nil
}

// fenceMarker returns the fence a line opens, or "".
func fenceMarker(trimmed string) string {
	for _, marker := range fenceMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return marker
		}
	}
	return ""
}

// translateLine translates the body of one line outside code fences.
func (m *Markdown) translateLine(ctx context.Context, line string) (string, error) {
	prefix := prefixPattern.FindString(line)
	body := line[len(prefix):]

	if strings.TrimSpace(body) == "" {
		return line, nil
	}

	var ph placeholders
	var linkErr error

	body = inlineCodePattern.ReplaceAllStringFunc(body, ph.put)
	body = linkPattern.ReplaceAllStringFunc(body, func(link string) string {
		parts := linkPattern.FindStringSubmatch(link)
		bang, label, target := parts[1], parts[2], parts[3]
		label = bareURLPattern.ReplaceAllStringFunc(label, ph.put)
		if strings.TrimSpace(label) != "" && linkErr == nil {
			translated, err := m.translateText(ctx, label)
			if err != nil {
				linkErr = err
			} else {
				label = translated
			}
		}
		return ph.put(bang + "[" + label + "](" + target + ")")
	})
	if linkErr != nil {
		return "", linkErr
	}
	body = bareURLPattern.ReplaceAllStringFunc(body, ph.put)

	translated, err := m.translateText(ctx, body)
	if err != nil {
		return "", err
	}

	translated = ph.restore(translated)
	return prefix + m.lineGlossary.Apply(translated), nil
}

// translateText translates free text, keeping its surrounding whitespace.
// Text without a letter outside placeholder tokens is returned unchanged.
func (m *Markdown) translateText(ctx context.Context, text string) (string, error) {
	if !letterPattern.MatchString(placeholderPattern.ReplaceAllString(text, "")) {
		return text, nil
	}

	core := strings.TrimSpace(text)
	start := strings.Index(text, core)
	lead, trail := text[:start], text[start+len(core):]

	chunks := ChunkText(core, m.chunkSize)
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		translated, err := m.translateChunk(ctx, chunk)
		if err != nil {
			return "", err
		}
		out = append(out, translated)
	}

	return lead + strings.Join(out, " ") + trail, nil
}

// translateChunk calls the translator under the retry policy and falls
// back to the chunk itself when every attempt fails.
func (m *Markdown) translateChunk(ctx context.Context, chunk string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= m.retry.Attempts; attempt++ {
		translated, err := m.translator.Translate(ctx, chunk, m.source, m.target)
		if err == nil {
			return translated, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		lastErr = err

		if attempt < m.retry.Attempts {
			m.logger.Debug("translation attempt failed", "attempt", attempt, "error", err)
			if err := sleep(ctx, m.retry.Delay(attempt)); err != nil {
				return "", err
			}
		}
	}

	m.logger.Warn("translation failed, keeping source text",
		"attempts", m.retry.Attempts,
		"chars", len([]rune(chunk)),
		"error", lastErr)
	return chunk, nil
}

// placeholders maps opaque tokens to the text they protect.
type placeholders struct {
	values []string
}

// put stores s and returns its token.
func (p *placeholders) put(s string) string {
	token := placeholderToken(len(p.values))
	p.values = append(p.values, s)
	return token
}

// restore replaces tokens with their text, newest first so a token stored
// inside a later value is resolved too.
func (p *placeholders) restore(s string) string {
	for i := len(p.values) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, placeholderToken(i), p.values[i])
	}
	return s
}

func placeholderToken(i int) string {
	return "__PH_" + strconv.Itoa(i) + "__"
}

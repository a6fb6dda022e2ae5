package translate

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

// Translator translates a plain-text chunk between two languages.
type Translator interface {
	Translate(ctx context.Context, text string, source, target language.Tag) (string, error)
}

// TranslatorFunc adapts an ordinary function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text string, source, target language.Tag) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	return f(ctx, text, source, target)
}

// Identity is a Translator that returns its input unchanged.
type Identity struct{}

// Translate returns text.
func (Identity) Translate(_ context.Context, text string, _, _ language.Tag) (string, error) {
	return text, nil
}

// Doer sends HTTP requests. *http.Client and *fetch.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

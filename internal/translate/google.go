package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"
)

const (
	// DefaultWebEndpoint is the public translation endpoint used by GoogleWeb.
	DefaultWebEndpoint = "https://translate.googleapis.com/translate_a/single"

	// DefaultCloudEndpoint is the Cloud Translation base URL used by
	// GoogleCloud. Requests go to its v2 path.
	DefaultCloudEndpoint = "https://translation.googleapis.com/language/translate/"

	// maxResponseSize bounds translation responses.
	maxResponseSize = 8 * 1024 * 1024
)

// GoogleWeb translates through the public web endpoint (client=gtx).
// It needs no credentials but is rate limited aggressively.
type GoogleWeb struct {
	client   Doer
	endpoint string
}

// NewGoogleWeb creates a GoogleWeb translator. An empty endpoint selects
// DefaultWebEndpoint.
func NewGoogleWeb(client Doer, endpoint string) *GoogleWeb {
	if endpoint == "" {
		endpoint = DefaultWebEndpoint
	}
	return &GoogleWeb{client: client, endpoint: endpoint}
}

// Translate implements Translator.
func (g *GoogleWeb) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	const service = "google-web"

	query := url.Values{
		"client": {"gtx"},
		"sl":     {source.String()},
		"tl":     {target.String()},
		"dt":     {"t"},
	}
	body, err := postForm(ctx, g.client, service, g.endpoint+"?"+query.Encode(), url.Values{"q": {text}})
	if err != nil {
		return "", err
	}

	translated, err := parseWebResponse(body)
	if err != nil {
		return "", &Error{Service: service, Err: err}
	}
	return translated, nil
}

// parseWebResponse concatenates the translated segments of a response of
// the form [[["translated","source",...],...],...].
func parseWebResponse(body []byte) (string, error) {
	var top []any
	if err := json.Unmarshal(body, &top); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(top) == 0 {
		return "", ErrEmptyTranslation
	}

	segments, ok := top[0].([]any)
	if !ok {
		return "", ErrEmptyTranslation
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}

	if sb.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return sb.String(), nil
}

// GoogleCloud translates through the Cloud Translation v2 API.
// The API key travels in a header so it never appears in request URLs or
// the errors that quote them.
type GoogleCloud struct {
	service *translatev2.Service
	apiKey  string
}

// NewGoogleCloud creates a GoogleCloud translator that sends its requests
// through client. An empty endpoint selects DefaultCloudEndpoint.
func NewGoogleCloud(ctx context.Context, client Doer, endpoint, apiKey string) (*GoogleCloud, error) {
	if endpoint == "" {
		endpoint = DefaultCloudEndpoint
	}

	service, err := translatev2.NewService(ctx,
		option.WithHTTPClient(httpClient(client)),
		option.WithEndpoint(endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation service: %w", err)
	}
	return &GoogleCloud{service: service, apiKey: apiKey}, nil
}

// Translate implements Translator.
func (g *GoogleCloud) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	const service = "google-cloud"

	call := g.service.Translations.Translate(&translatev2.TranslateTextRequest{
		Q:      []string{text},
		Source: source.String(),
		Target: target.String(),
		Format: "text",
	})
	call.Header().Set("X-Goog-Api-Key", g.apiKey)

	resp, err := call.Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			terr := &Error{Service: service, StatusCode: apiErr.Code}
			if apiErr.Message != "" {
				terr.Err = errors.New(apiErr.Message)
			}
			return "", terr
		}
		return "", &Error{Service: service, Err: err}
	}

	var sb strings.Builder
	for _, t := range resp.Translations {
		sb.WriteString(t.TranslatedText)
	}
	if sb.Len() == 0 {
		return "", &Error{Service: service, Err: ErrEmptyTranslation}
	}
	return sb.String(), nil
}

// httpClient returns client as an *http.Client, wrapping other Doers so
// their request handling still applies.
func httpClient(client Doer) *http.Client {
	if hc, ok := client.(*http.Client); ok {
		return hc
	}
	return &http.Client{Transport: doerTransport{doer: client}}
}

// doerTransport is an http.RoundTripper backed by a Doer.
type doerTransport struct {
	doer Doer
}

// RoundTrip implements http.RoundTripper.
func (t doerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.doer.Do(req)
}

// postForm posts a form and returns the body of a 200 response.
// Any other outcome is an *Error.
func postForm(ctx context.Context, client Doer, service, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Service: service, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Service: service, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Service: service, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Service: service, StatusCode: resp.StatusCode}
	}
	return body, nil
}

// Package log builds the slog loggers used by docmirror.
//
// NewSecureLogger wraps a text handler in a SecureHandler, which masks
// attributes that carry credentials before they reach the output. The
// translation API key is the main concern: it travels in request headers
// and in configuration, and either can end up in a debug log line.
//
// Masking applies to attribute keys such as api_key, authorization and
// token, to values shaped like keys or bearer tokens, and to credential
// query parameters inside URLs and error messages:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("translate request", "url", "https://example.com/v2?key=AIza...")
//	// url=https://example.com/v2?key=***REDACTED***
package log

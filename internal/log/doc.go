// Package log provides slog loggers that redact secrets before they are
// written.
//
// Fetch overrides may carry cookies, authorization headers and the reader
// service API key, and analyzed URLs sometimes embed credentials in their
// query string. The SecureHandler masks all of these:
//   - attributes whose key names a credential (authorization, cookie, api keys)
//   - string values that look like bearer tokens, JWTs or long API keys
//   - userinfo and credential query parameters inside URL values
//
// Token-count attributes such as html_tokens and markdown_tokens are plain
// numbers and are never masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("fetch override applied",
//	    "host", "example.com",
//	    "cookie", "session=abc123", // logged as ***REDACTED***
//	)
//
// The serve command uses NewSecureJSONLogger for machine-readable output.
package log

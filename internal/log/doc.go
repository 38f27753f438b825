// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Masking of URL userinfo and credential-bearing query parameters
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - URL userinfo (user:pass@host) and signed-link query parameters
//   - Session identifiers and authentication tokens
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored. A crawler logs
// URLs constantly, so URL sanitization is applied in place rather than
// dropping the attribute.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("page fetched",
//	    "cookie", "session=abc123",  // Will be sanitized to "***REDACTED***"
//	    "url", "https://example.com/?token=abc", // token value masked
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log

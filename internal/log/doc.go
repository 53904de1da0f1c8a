// Package log builds the slog loggers used by sitegraph.
//
// Crawled URLs regularly carry session identifiers and tokens in their
// query strings, and configured request headers may hold credentials.
// SecureHandler masks both before a record reaches the output:
//   - attributes whose key names a credential (cookie, authorization, token ...)
//   - string values that look like credentials (bearer, basic, JWT)
//   - the values of credential-like query parameters inside URL strings
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("page recorded", "url", "https://a.com/?sid=42") // url=https://a.com/?sid=***REDACTED***
//	slog.SetDefault(logger)
package log

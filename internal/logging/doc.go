// Package logging builds the slog loggers used by the daemon and the CLI.
//
// Two handlers are available: a single-line console format and JSON. Both
// redact values stored under secret keys such as api_key and token. Request
// handlers attach the request ID and recognition kind with WithContext, which
// is what `cinescan logs --request` filters on.
package logging

// Package services defines shared utilities consumed by the recognition flows
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation identifiers and the
//     recognition kind (image, audio, video, search) for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent API responses (client error vs upstream failure).
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability) stays uniform across the API and the CLI.
package services

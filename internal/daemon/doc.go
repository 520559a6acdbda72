// Package daemon runs the long-lived CineScan HTTP API.
//
// It wires the identification service and the history store behind a chi
// router, enforces single-instance execution with a flock lock in the data
// directory, and shuts the listener down cleanly when the run context ends.
// Middleware covers request IDs, panic recovery, CORS, optional bearer auth,
// per-IP rate limiting, request timeouts and Prometheus request metrics.
//
// Keep recognition logic out of this package: handlers decode input, call the
// service, and encode the envelope defined in internal/api.
package daemon

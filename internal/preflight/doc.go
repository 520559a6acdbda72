// Package preflight provides readiness checks for the filesystem paths and
// external services CineScan depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs a warning per failed check.
//     Failures never block startup; requests surface the same problems later.
//   - The CLI "cinescan status --check" command prints the results.
//
// Checks for optional features are skipped when the feature is disabled.
package preflight

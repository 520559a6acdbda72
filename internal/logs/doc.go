// Package logs reads the daemon log file for the `cinescan logs` command.
//
// It returns the last N lines with bounded memory, then optionally follows
// the file as the daemon appends to it. A substring filter narrows output to
// one request when callers pass the X-Request-Id echoed by the API.
package logs

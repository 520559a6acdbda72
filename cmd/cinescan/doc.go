// Command cinescan is the CineScan CLI.
//
// It runs the HTTP API (serve) and exposes the same recognition flows for
// local files: identify for images and video clips, listen for audio, and
// search for free text. history and status inspect the recognition log and
// the configured upstreams; config manages the TOML configuration file.
//
// Recognition commands run in-process against the configured upstreams, so
// they work without a running server. Every command accepts --json to print
// the same payloads the HTTP API returns.
package main

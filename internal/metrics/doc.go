// Package metrics registers the Prometheus collectors exposed on /metrics.
//
// Collectors are package-level and registered with the default registry at
// init, so any package can record without plumbing a registry through.
package metrics

// Package metrics provides the Prometheus run recorder. Metrics are labelled
// with the run ID and optionally pushed to a Pushgateway when the run ends.
package metrics

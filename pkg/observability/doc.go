// Package observability exports engine lifecycle events as Prometheus
// metrics. Hosts merge Metrics.Hooks() into their lifecycle hooks and
// expose the registry however they like.
package observability

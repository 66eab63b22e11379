// Package observability provides logging construction helpers and
// Prometheus metrics for the rolevault storage layer.
//
// Metrics are nil-safe: stores record through a possibly-nil *Metrics so
// embedded deployments pay nothing when metrics are off.
package observability

/*
Package observability turns engine lifecycle hooks into Prometheus metrics.

Metrics are registered on a caller supplied registerer so several engines and
tests can coexist in one process.
*/
package observability

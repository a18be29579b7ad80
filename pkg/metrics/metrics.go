// Package metrics holds shared metric conventions for the service.
package metrics

// DefaultBuckets are the latency histogram buckets (seconds) shared across
// the application. The long tail covers LLM provider calls.
var DefaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60} //nolint: gochecknoglobals

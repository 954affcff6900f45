// Package metrics defines the Recorder abstraction for run observability
// and its Prometheus implementation. Code paths that record metrics accept a
// Recorder so callers without a metrics endpoint can inject NoopRecorder.
package metrics

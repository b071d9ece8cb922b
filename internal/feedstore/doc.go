// Package feedstore persists published results as a single JSON document
// keyed by each result's details link. Publishing merges a run's output into
// the retained set and rewrites the file atomically, so feed readers never
// observe a partial store.
package feedstore

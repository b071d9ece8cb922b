// Package orchestrator runs the acquisition pipeline end to end: gate on
// service health, plan searches from the wanted list, drive the search
// engine, score the hits, and publish survivors into the feed store. Runs
// are serialized by a cross-process lock and each library is isolated, so a
// failing library never blocks the other.
package orchestrator

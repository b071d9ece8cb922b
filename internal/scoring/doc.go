// Package scoring ranks raw search hits for one request. Candidates are
// filtered against the request's match and ignore patterns, scored with
// per-kind weighted heuristics, and only hits that clear both the score
// threshold and the size gate survive.
package scoring

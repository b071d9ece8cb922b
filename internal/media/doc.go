// Package media defines the domain types shared across the acquisition
// pipeline: wanted items from the library services, search requests produced
// by the planner, and raw candidates returned by the search backend.
package media

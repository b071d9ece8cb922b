// Package planner turns a library's wanted list into normalized search
// requests. Movies map one to one; TV episodes are grouped per series and
// season, collapsing into a single season-pack request whenever every
// episode of a known-size season is missing.
package planner

// Package runlog records acquisition run history in SQLite so operators can
// see what recent runs searched, published, and failed on.
package runlog

// Package runlock provides a cross-process file lock that serializes
// acquisition runs. The daemon scheduler, the webhook handler, and the CLI
// all funnel through the same lock file so that only one run touches the
// feed store at a time.
package runlock

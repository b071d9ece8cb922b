// Package daemon hosts the long-running process: the HTTP surface serving
// the Torznab feed and approval webhook, and the cron scheduler that keeps
// the feed store fresh.
package daemon

// Package qbit drives the qBittorrent WebUI API: session handling, the
// plugin search lifecycle, and torrent submission. The search driver polls a
// started search until the engine reports it stopped or the configured
// timeout forces an early stop.
package qbit

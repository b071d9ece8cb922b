// Package torznab renders the published feed store as a Torznab endpoint:
// a caps document, RSS search results with torznab attributes, and the
// numeric category table Radarr and Sonarr expect.
package torznab

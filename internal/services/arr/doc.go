// Package arr talks to the Radarr and Sonarr v3 APIs. Both services share
// the same client; the kind only affects how wanted records are decoded.
package arr

// Package mirror coordinates mirroring sessions for the control API.
//
// A Service owns the link between a session and its aspect-ratio
// supervisor, and applies window toggles and device commands on behalf of
// callers. Global policy changes carry no serial, so they are pushed to
// every registered session.
package mirror

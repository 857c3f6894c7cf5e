// Package session holds the registry of active mirroring sessions.
//
// The Registry is the single source of truth for what is mirroring: at
// most one session per serial, each owning its process handle and caching
// a window handle that callers re-validate before use. Supervisors and
// exit watchers identify their session by instance id, so an entry that
// was replaced is never mistaken for theirs.
//
// Example Usage:
//
//	reg := session.NewRegistry().WithMetrics(metrics)
//	snap, err := reg.Add(session.Session{Serial: serial, ID: id.NewSessionID(), Process: h})
//	if reg.Active(serial, snap.ID) { ... }
//	reg.RemoveIf(serial, snap.ID)
package session

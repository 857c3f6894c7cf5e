// Package supervisor keeps aspect-locked mirroring windows at the device's
// native ratio.
//
// Each supervised session gets a task that waits a grace period, reads the
// device resolution once and then polls the window, resizing its height
// from its current width whenever the ratio drifts past the tolerance.
// The task ends without error when its context is cancelled, the session
// is removed or replaced, the process exits, the aspect lock is turned off
// or the resolution cannot be read. Corrections follow drift rather than
// prevent it, so brief distortion between polls is expected.
package supervisor

// Package window locates and manipulates the top-level windows created by
// mirroring processes.
//
// Locator maps a process id to its first visible top-level window.
// Controller applies the window policies (always-on-top, borderless,
// fake fullscreen, resize, show state) through the Manager capability.
// NewManager returns the Win32 backend on Windows and a backend that
// enumerates nothing on every other platform. Package windowtest holds an
// in-memory Manager for tests.
package window

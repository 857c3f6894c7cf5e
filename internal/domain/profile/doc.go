// Package profile loads mirroring profiles from JSON, YAML or TOML files.
//
// A profile names a preset, patches it with global values and adds
// per-device overrides selected by glob patterns over the serial:
//
//	preset: fast
//	global:
//	  aspect_lock: true
//	devices:
//	  - match: "192.168.*:5555"
//	    options:
//	      bitrate: 2
//
// A Watcher reloads the file when it changes and hands valid catalogs to a
// callback; invalid edits are logged and the previous catalog stays active.
package profile

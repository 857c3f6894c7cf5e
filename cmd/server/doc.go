// Package main is the entry point for the MirrorDeck daemon.
//
// MirrorDeck runs one scrcpy process per attached Android device and
// exposes a local control API for starting and stopping sessions,
// applying window policies and managing wireless adb connections.
//
// Architecture:
//
//	Client → HTTP/WebSocket API → mirror service → launcher → scrcpy
//	                                             → adb bridge
//	                                             → window controller
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//   - An optional profile file, hot reloaded on change. Without one the
//     user config directory is searched (see internal/shared/paths)
//
// Usage:
//
//	# Defaults: 127.0.0.1:8765, scrcpy and adb from PATH
//	./server
//
//	# Custom profile with debug logs
//	./server -profile ~/.config/mirrordeck/profile.yaml -log-level debug -dev
//
// Signals:
//   - SIGINT, SIGTERM: stop every session and exit
package main

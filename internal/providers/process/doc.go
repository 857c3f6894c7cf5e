// Package process spawns and terminates the external mirroring process.
//
// ExecSpawner runs the binary without a visible console, forwards its
// stdout and stderr to the logger line by line and reaps it in a
// background goroutine that closes Handle.Done on exit. Package
// processtest provides an in-memory Spawner for tests.
package process

// Package launcher owns the lifecycle of mirroring processes.
//
// Start resolves the device model (falling back to the serial), replaces
// any existing session for the serial, spawns the process and registers
// it. A failed spawn returns *SpawnError and registers nothing. Each
// process gets an exit watcher that unregisters its session, but only if
// the registry still holds that same instance.
package launcher

// Package adb is the device bridge: it lists devices, runs shell commands
// and manages wireless connections by invoking the adb executable.
//
// Every call runs with a timeout behind a circuit breaker and is counted
// in the bridge metrics. Errors degrade to empty or false results.
package adb

// Package config provides 12-factor configuration for the mirroring daemon.
//
// Configuration is loaded from environment variables with defaults; the
// server binary lets CLI flags override the environment.
//
// Configuration Sections:
//   - Server: control API listener (PORT, HOST)
//   - Mirror: tool paths and profile catalog (SCRCPY_PATH, ADB_PATH,
//     ADB_TIMEOUT, PROFILE_PATH, PROFILE_WATCH, DEFAULT_PRESET)
//   - Supervisor: aspect lock pacing (ASPECT_GRACE, ASPECT_INTERVAL,
//     ASPECT_TOLERANCE)
//   - Bridge: adb circuit breaker (BRIDGE_BREAKER_FAILURES,
//     BRIDGE_BREAKER_TIMEOUT)
//   - Logging: LOG_LEVEL, LOG_DEV
//   - RateLimit: RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config

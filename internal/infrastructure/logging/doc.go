// Package logging builds the daemon's root zap logger.
//
// Two output modes are supported:
//   - Production: JSON lines on stderr, info level
//   - Development: colored console output, debug level
//
// LOG_FILE adds a second sink. Components never construct their own root
// logger. They receive a *zap.Logger and derive a named child:
//
//	log := parent.Named("supervisor")
//	log.Info("aspect lock engaged", zap.String("serial", serial))
//
// Lines written by the scrcpy child process are forwarded under the
// "scrcpy" name so they can be filtered independently.
package logging

// Package command builds the argument vector for the mirroring process
// from an Options snapshot. Args and Command are pure.
package command

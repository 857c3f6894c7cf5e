// Package server assembles the MirrorDeck daemon: it builds the providers,
// the mirroring service and the control API from a config.Config and owns
// their shutdown.
package server

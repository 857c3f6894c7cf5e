// Package events provides the in-process bus that carries session,
// window, policy and profile notifications to event stream subscribers.
package events

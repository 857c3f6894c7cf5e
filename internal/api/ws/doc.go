// Package ws streams session lifecycle events over WebSocket.
//
// Every connection subscribes to the event bus and receives:
//   - system: sent once after connecting, with the subscriber id
//   - event: one lifecycle event (session.started, policy.applied, ...)
//   - pong, subscribed, error: replies to client messages
//
// Clients may send:
//   - ping
//   - subscribe with "serials" to receive only those devices' events;
//     an empty list restores the full stream
//
// Example Usage:
//
//	handler := ws.NewHandler(bus, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws

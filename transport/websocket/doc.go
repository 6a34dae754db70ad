// Package websocket provides WebSocket transport for the road grid editor.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection has a read and a write
// goroutine; the hub loop owns registration and fan-out.
//
// Message Protocol:
//
// Clients only listen. After every change to a session's scene the server
// pushes a JSON Message with event "scene_update", the action that caused
// it and the full scene snapshot:
//
//	{"session_id":"a1b2","event":"scene_update","action":"pointer_hold",
//	 "timestamp":"...","scene":{"width":16,"height":12,"state":"dragging",...}}
//
// Session Integration:
//
// Clients select their session with the query parameter (?session=a1b2).
// Updates are delivered only to clients connected to the same session. A
// client first receives the current scene with action "connected".
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.BroadcastScene(sessionID, "draw_road", snapshot)
//
// Broadcasts are queued without blocking the caller. When the queue is full
// the update is dropped with a warning; the next update carries the complete
// scene again.
package websocket

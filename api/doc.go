// Package api provides the HTTP REST API for the road grid scene editor.
//
// Every editing endpoint works on one session and returns the resulting
// scene snapshot. Mutations are also pushed to websocket subscribers of the
// session through the hub.
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "town"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Road tool:
//   - POST /api/sessions/{id}/pointer/down - Start or restart a drag ({"x":1,"y":2})
//   - POST /api/sessions/{id}/pointer/hold - Extend the drag to a cell
//   - POST /api/sessions/{id}/pointer/up - Commit the staged road
//   - POST /api/sessions/{id}/road - Drag through a list of points in one call
//   - POST /api/sessions/{id}/crosswalk - Toggle the crosswalk on a road cell
//
// Objects:
//   - POST /api/sessions/{id}/remove - Remove the object at a cell
//   - POST /api/sessions/{id}/structures - Place a prefab ({"prefab":"House","x":1,"y":1,"rotation":90})
//   - PATCH /api/sessions/{id}/objects - Recolor or rotate an object
//   - POST /api/sessions/{id}/clear - Remove every object
//
// Scene:
//   - GET /api/sessions/{id}/scene - Current snapshot
//   - GET /api/sessions/{id}/export - Metadata records as JSON lines (?format=zst to compress)
//   - POST /api/sessions/{id}/import - Replace the scene with JSON lines, plain or zstd
//
// Configuration:
//   - GET /api/configs - List scene configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs - Save a configuration
//
// Errors are returned as {"error": "..."}. Unknown sessions and empty cells
// map to 404, occupied cells to 409, malformed input to 400 and edits that
// do not apply to the target cell to 422.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	server := api.NewServer(editorService, hub)
//	http.ListenAndServe(":8080", server)
package api

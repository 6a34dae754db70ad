// Package mcp exposes the scene editor to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call is forwarded to the REST API
// and the JSON response is rendered as text for the agent. Scenes are shown
// as labelled character grids (R road, S structure, . empty) followed by the
// list of placed objects.
//
// Tools:
//   - create_session, get_session, list_sessions, list_configs
//   - scene_state, describe_cell, export_scene
//   - draw_road, toggle_crosswalk
//   - place_structure, update_object, remove_object, clear_scene
//   - editor_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

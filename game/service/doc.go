// Package service provides the business logic layer for the road grid editor.
//
// The service package implements:
//   - Multi-session scene management
//   - Configuration listing and loading
//   - Road drags, removals and crosswalk toggles per session
//   - Scene export and import
//
// Core Interfaces:
//
// EditorService is the main service interface providing scene operations.
// SessionManager handles session creation, retrieval, persistence and lifecycle.
// ConfigManager manages scene configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the editor, providing session isolation and configuration management. Each
// session owns its own editor.Editor with an independent grid and metadata
// book.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	editorService := service.NewEditorService(sessionMgr, configMgr)
//
//	info, err := editorService.CreateSession(ctx, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := editorService.DrawRoad(ctx, info.ID, []grid.Point{{X: 0, Y: 0}, {X: 4, Y: 0}})
//
// Every action that changes committed state auto-saves the session through
// SessionManager.Save. Save failures are reported as warnings and never fail
// the action.
package service

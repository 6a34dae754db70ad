package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/prefab"
	"github.com/wricardo/roadgrid/game/scene"
	"github.com/wricardo/roadgrid/game/service"
	"github.com/wricardo/roadgrid/transport/websocket"
)

// MaxImportSize bounds the body of a scene import
const MaxImportSize = 32 << 20

// Server represents the REST API server
type Server struct {
	service service.EditorService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(editorService service.EditorService, hub *websocket.Hub) *Server {
	s := &Server{
		service: editorService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Road tool
	api.HandleFunc("/sessions/{id}/pointer/down", s.handlePointerDown).Methods("POST")
	api.HandleFunc("/sessions/{id}/pointer/hold", s.handlePointerHold).Methods("POST")
	api.HandleFunc("/sessions/{id}/pointer/up", s.handlePointerUp).Methods("POST")
	api.HandleFunc("/sessions/{id}/road", s.handleDrawRoad).Methods("POST")
	api.HandleFunc("/sessions/{id}/crosswalk", s.handleToggleCrosswalk).Methods("POST")

	// Objects
	api.HandleFunc("/sessions/{id}/remove", s.handleRemove).Methods("POST")
	api.HandleFunc("/sessions/{id}/structures", s.handlePlaceStructure).Methods("POST")
	api.HandleFunc("/sessions/{id}/objects", s.handleUpdateObject).Methods("PATCH")
	api.HandleFunc("/sessions/{id}/clear", s.handleClear).Methods("POST")

	// Scene
	api.HandleFunc("/sessions/{id}/scene", s.handleGetScene).Methods("GET")
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods("GET")
	api.HandleFunc("/sessions/{id}/import", s.handleImport).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and editor errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, editor.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrOccupied):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, scene.ErrMalformedRecord),
		errors.Is(err, editor.ErrUnknownPrefab):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrOutOfBounds),
		errors.Is(err, editor.ErrNotRoad),
		errors.Is(err, editor.ErrNotStructure),
		errors.Is(err, editor.ErrRoadTransform):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// broadcast pushes the new scene to websocket clients of a session
func (s *Server) broadcast(sessionID, action string, snap *editor.Snapshot) {
	if s.hub != nil && snap != nil {
		s.hub.BroadcastScene(sessionID, action, snap)
	}
}

// pointRequest is a grid cell in a request body. Both coordinates are
// required.
type pointRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (p pointRequest) point() (grid.Point, error) {
	if p.X == nil || p.Y == nil {
		return grid.Point{}, fmt.Errorf("%w: x and y are required", service.ErrInvalidRequest)
	}
	return grid.Point{X: *p.X, Y: *p.Y}, nil
}

func decodePoint(r *http.Request) (grid.Point, error) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return grid.Point{}, fmt.Errorf("%w: invalid request body", service.ErrInvalidRequest)
	}
	return req.point()
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	// Support both parameter names, but prefer config_id
	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else { // "accessed"
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Road Handlers

// pointAction runs a single-cell action and broadcasts its result
func (s *Server) pointAction(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, grid.Point) (*service.ActionResult, error)) {
	sessionID := mux.Vars(r)["id"]

	p, err := decodePoint(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := fn(r.Context(), sessionID, p)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Action, result.Scene)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePointerDown(w http.ResponseWriter, r *http.Request) {
	s.pointAction(w, r, s.service.PointerDown)
}

func (s *Server) handlePointerHold(w http.ResponseWriter, r *http.Request) {
	s.pointAction(w, r, s.service.PointerHold)
}

func (s *Server) handlePointerUp(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.PointerUp(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Action, result.Scene)
	fmt.Printf("[ROAD] session=%s committed=%d roads=%d\n", sessionID, result.Committed, result.Scene.Roads)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDrawRoad(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Points []pointRequest `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	points := make([]grid.Point, 0, len(req.Points))
	for _, pr := range req.Points {
		p, err := pr.point()
		if err != nil {
			respondServiceError(w, err)
			return
		}
		points = append(points, p)
	}

	result, err := s.service.DrawRoad(r.Context(), sessionID, points)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Action, result.Scene)
	fmt.Printf("[ROAD] session=%s points=%d committed=%d roads=%d\n", sessionID, len(points), result.Committed, result.Scene.Roads)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleToggleCrosswalk(w http.ResponseWriter, r *http.Request) {
	s.pointAction(w, r, s.service.ToggleCrosswalk)
}

// Object Handlers

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.pointAction(w, r, s.service.RemoveObject)
}

func (s *Server) handlePlaceStructure(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		pointRequest
		Prefab   string `json:"prefab"`
		Rotation int    `json:"rotation,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prefab == "" {
		respondError(w, http.StatusBadRequest, "prefab is required")
		return
	}
	p, err := req.point()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := s.service.PlaceStructure(r.Context(), sessionID, req.Prefab, p, req.Rotation)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Action, result.Scene)
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateObject(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		pointRequest
		Color    *prefab.Color `json:"color,omitempty"`
		Rotation *int          `json:"rotation,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := req.point()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if req.Color == nil && req.Rotation == nil {
		respondError(w, http.StatusBadRequest, "color or rotation is required")
		return
	}

	meta, err := s.service.UpdateObject(r.Context(), sessionID, p, editor.ObjectUpdate{Color: req.Color, Rotation: req.Rotation})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if snap, err := s.service.GetScene(r.Context(), sessionID); err == nil {
		s.broadcast(sessionID, "update_object", snap)
	}
	respondJSON(w, http.StatusOK, meta)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.ClearScene(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Action, result.Scene)
	respondJSON(w, http.StatusOK, result)
}

// Scene Handlers

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	snap, err := s.service.GetScene(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// handleExport streams the scene as newline-delimited JSON, or zstd
// compressed with ?format=zst
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	compressed := r.URL.Query().Get("format") == "zst"

	// Buffer so that a failed export can still report an error status
	var buf bytes.Buffer
	var out io.Writer = &buf
	var zw io.WriteCloser
	if compressed {
		var err error
		if zw, err = scene.NewZstdWriter(&buf); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = zw
	}

	if err := s.service.ExportScene(r.Context(), sessionID, out); err != nil {
		respondServiceError(w, err)
		return
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	filename := sessionID + ".jsonl"
	contentType := "application/x-ndjson"
	if compressed {
		filename = sessionID + scene.ZstdExt
		contentType = "application/zstd"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleImport replaces the scene with the request body. Plain and zstd
// compressed bodies are both accepted.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	body := http.MaxBytesReader(w, r.Body, MaxImportSize)

	result, err := s.service.ImportScene(r.Context(), sessionID, body)
	if result != nil {
		s.broadcast(sessionID, "import", result.Scene)
	}
	if err != nil {
		if result == nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, statusFor(err), result)
		return
	}

	fmt.Printf("[IMPORT] session=%s applied=%d skipped=%d\n", sessionID, result.Applied, result.Skipped)
	respondJSON(w, http.StatusOK, result)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var settings editor.Settings

	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if settings.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := strings.ToLower(strings.ReplaceAll(settings.Name, " ", "_"))
	if err := s.service.SaveConfig(r.Context(), configID, &settings); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket updates are disabled", http.StatusServiceUnavailable)
		return
	}

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, session.ID, session.Scene)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

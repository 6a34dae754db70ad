package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/scene"
	"github.com/wricardo/roadgrid/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Road Grid Scene Editor",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Road Grid Scene Editor - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Scenes are grids of cells addressed by (x, y) with (0, 0) at the bottom left.
Roads are drawn by dragging between cells; the editor routes the road along
the shortest path and picks straight, corner, T and cross tiles on its own.
Structures are placed from the prefabs listed in the session config.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage editing sessions
- list_configs: list scene configurations
- scene_state: render the grid and list placed objects
- draw_road: drag a road through a list of points
- toggle_crosswalk: flip the crosswalk flag of a road cell
- place_structure: place a prefab on a free cell
- update_object: change the color or rotation of an object
- remove_object: remove the object on a cell
- clear_scene: remove everything
- describe_cell: details about one cell
- export_scene: the scene as newline-delimited metadata records
- editor_instructions: full usage notes`),
	)

	// Register all tools
	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateProperty(axis string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": fmt.Sprintf("%s coordinate of the cell", axis),
	}
}

// cellSchema is the input schema of tools that act on one cell
func cellSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
			"x":          coordinateProperty("X"),
			"y":          coordinateProperty("Y"),
		},
		Required: []string{"session_id", "x", "y"},
	}
}

func sessionSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
		},
		Required: []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new editing session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all editing sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(),
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available scene configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	// Scene
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "scene_state",
		Description: "Render the scene grid and list its objects",
		InputSchema: sessionSchema(),
	}, c.handleSceneState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe the cell and the object at a grid position",
		InputSchema: cellSchema(),
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "export_scene",
		Description: "Export the scene as newline-delimited object metadata records",
		InputSchema: sessionSchema(),
	}, c.handleExportScene)

	// Editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "draw_road",
		Description: "Drag the road tool through the given points and commit the road. Consecutive points are joined by the shortest road path.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"points": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x": map[string]interface{}{"type": "integer"},
							"y": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x", "y"},
					},
					"description": "Cells to drag through, first point is where the drag starts",
				},
			},
			Required: []string{"session_id", "points"},
		},
	}, c.handleDrawRoad)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_crosswalk",
		Description: "Toggle the crosswalk on a road cell",
		InputSchema: cellSchema(),
	}, c.handleToggleCrosswalk)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_object",
		Description: "Remove the road or structure on a cell",
		InputSchema: cellSchema(),
	}, c.handleRemoveObject)

	placeSchema := cellSchema()
	placeSchema.Properties["prefab"] = map[string]interface{}{
		"type":        "string",
		"description": "Prefab name from the session config",
	}
	placeSchema.Properties["rotation"] = map[string]interface{}{
		"type":        "integer",
		"enum":        []int{0, 90, 180, 270},
		"description": "Rotation in degrees (optional)",
	}
	placeSchema.Required = append(placeSchema.Required, "prefab")
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_structure",
		Description: "Place a structure prefab on a free cell",
		InputSchema: placeSchema,
	}, c.handlePlaceStructure)

	updateSchema := cellSchema()
	updateSchema.Properties["color"] = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"r": map[string]interface{}{"type": "number"},
			"g": map[string]interface{}{"type": "number"},
			"b": map[string]interface{}{"type": "number"},
			"a": map[string]interface{}{"type": "number"},
		},
		"description": "New color, components between 0 and 1",
	}
	updateSchema.Properties["rotation"] = map[string]interface{}{
		"type":        "integer",
		"description": "New rotation in degrees (structures only)",
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "update_object",
		Description: "Change the color or rotation of the object on a cell",
		InputSchema: updateSchema,
	}, c.handleUpdateObject)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_scene",
		Description: "Remove every road and structure from the scene",
		InputSchema: sessionSchema(),
	}, c.handleClearScene)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "editor_instructions",
		Description: "Get complete usage notes for the scene editor",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleEditorInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	data, err := c.apiRaw(method, path, body)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(data, result)
	}
	return nil
}

// apiRaw performs a request and returns the response body
func (c *Client) apiRaw(method, path string, body interface{}) ([]byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp map[string]interface{}
		json.Unmarshal(data, &errResp)
		if msg, ok := errResp["error"].(string); ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	return data, nil
}

// Argument helpers. JSON numbers arrive as float64.

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// cellArgs reads the session and cell coordinates of a tool call
func cellArgs(request mcp.CallToolRequest) (string, map[string]int, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")
	if sessionID == "" {
		return "", nil, fmt.Errorf("session_id is required")
	}
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return "", nil, fmt.Errorf("x and y are required")
	}
	return sessionID, map[string]int{"x": x, "y": y}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.Scene != nil {
		result += "\n" + formatScene(session.Scene)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		objects := 0
		if s.Scene != nil {
			objects = s.Scene.Roads + s.Scene.Structures
		}
		result += fmt.Sprintf("- %s (Config: %s, Objects: %d, Created: %s)\n",
			s.ID, s.ConfigName, objects, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	err := c.apiCall("GET", "/api/configs", nil, &configs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Prefabs: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.Width, config.Height, config.Prefabs)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSceneState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var snap editor.Snapshot
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/scene", sessionID), nil, &snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatScene(&snap)), nil
}

func (c *Client) handleExportScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	data, err := c.apiRaw("GET", fmt.Sprintf("/api/sessions/%s/export", sessionID), nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := scene.ReadAll(bytes.NewReader(data))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid export: %v", err)), nil
	}

	result := fmt.Sprintf("Exported %d records:\n\n%s", len(records), data)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleDrawRoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")
	pointsRaw, _ := args["points"].([]interface{})

	points := make([]map[string]int, 0, len(pointsRaw))
	for i, raw := range pointsRaw {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("point %d must be an object with x and y", i)), nil
		}
		x, okX := intArg(obj, "x")
		y, okY := intArg(obj, "y")
		if !okX || !okY {
			return mcp.NewToolResultError(fmt.Sprintf("point %d must have integer x and y", i)), nil
		}
		points = append(points, map[string]int{"x": x, "y": y})
	}

	var result service.ActionResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/road", sessionID), map[string]interface{}{"points": points}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

// cellAction posts a single-cell action to path under the session
func (c *Client) cellAction(request mcp.CallToolRequest, path string) (*mcp.CallToolResult, error) {
	sessionID, body, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/%s", sessionID, path), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleToggleCrosswalk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cellAction(request, "crosswalk")
}

func (c *Client) handleRemoveObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cellAction(request, "remove")
}

func (c *Client) handlePlaceStructure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, cell, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	body := map[string]interface{}{
		"x":      cell["x"],
		"y":      cell["y"],
		"prefab": stringArg(args, "prefab"),
	}
	if rotation, ok := intArg(args, "rotation"); ok {
		body["rotation"] = rotation
	}

	var result service.ActionResult
	if err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/structures", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleUpdateObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, cell, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	body := map[string]interface{}{
		"x": cell["x"],
		"y": cell["y"],
	}
	if color, ok := args["color"].(map[string]interface{}); ok {
		body["color"] = color
	}
	if rotation, ok := intArg(args, "rotation"); ok {
		body["rotation"] = rotation
	}

	var meta scene.ObjectMetadata
	if err := c.apiCall("PATCH", fmt.Sprintf("/api/sessions/%s/objects", sessionID), body, &meta); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Updated %s at (%d, %d)\nColor: %.2f %.2f %.2f %.2f\nRotation: %.3f %.3f %.3f %.3f",
		meta.PrefabName, cell["x"], cell["y"],
		meta.ColorR, meta.ColorG, meta.ColorB, meta.ColorA,
		meta.RotationX, meta.RotationY, meta.RotationZ, meta.RotationW)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleClearScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var result service.ActionResult
	if err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/clear", sessionID), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, cell, err := cellArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, y := cell["x"], cell["y"]

	var snap editor.Snapshot
	if err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/scene", sessionID), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if x < 0 || x >= snap.Width || y < 0 || y >= snap.Height {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Grid is %dx%d (x 0-%d, y 0-%d)",
			x, y, snap.Width, snap.Height, snap.Width-1, snap.Height-1)), nil
	}

	return mcp.NewToolResultText(describeCell(&snap, x, y)), nil
}

func (c *Client) handleEditorInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Road Grid Scene Editor - Instructions

COORDINATES:
• Cells are addressed by (x, y), x to the right and y up
• (0, 0) is the bottom left cell
• scene_state prints the top row first and labels every row with its y

GRID LEGEND:
• R = road
• S = structure
• . = empty

DRAWING ROADS:
• draw_road takes a list of points; the first point starts the drag
• Every following point re-routes the drag from the start along the
  shortest path, then the road is committed when the list ends
• Existing roads are reused, structures are routed around
• Tiles are chosen automatically: dead end, straight, corner, T and cross
• Neighbouring roads are re-tiled when a new road touches them

CROSSWALKS:
• toggle_crosswalk only works on straight road cells

STRUCTURES:
• place_structure needs a prefab listed by get_session or list_configs
• Rotation is 0, 90, 180 or 270 degrees
• A structure blocks its cell for roads

EDITING:
• update_object recolors roads and structures; only structures rotate
• remove_object clears one cell, neighbouring roads are re-tiled
• clear_scene removes everything

EXPORT:
• export_scene returns one JSON record per object with position,
  rotation quaternion, prefab name and color`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n",
		session.ID, session.ConfigName, session.CreatedAt.Format(time.RFC3339))

	if session.Config != nil && len(session.Config.Prefabs) > 0 {
		names := make([]string, 0, len(session.Config.Prefabs))
		for _, p := range session.Config.Prefabs {
			names = append(names, p.Name)
		}
		result += fmt.Sprintf("Prefabs: %s\n", strings.Join(names, ", "))
	}
	if session.Scene != nil {
		result += "\n" + formatScene(session.Scene)
	}
	return result
}

// formatScene renders the grid with row and column labels, top row first
func formatScene(snap *editor.Snapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Scene %dx%d  roads: %d  structures: %d  tool: %s\n\n",
		snap.Width, snap.Height, snap.Roads, snap.Structures, snap.State)

	for i, row := range snap.Rows {
		fmt.Fprintf(&sb, "%3d %s\n", snap.Height-1-i, row)
	}
	sb.WriteString("    ")
	for x := 0; x < snap.Width; x++ {
		sb.WriteByte(byte('0' + x%10))
	}
	sb.WriteString("\n")

	if len(snap.Staged) > 0 {
		fmt.Fprintf(&sb, "\nStaged (uncommitted): %d cells\n", len(snap.Staged))
	}

	if len(snap.Objects) > 0 {
		sb.WriteString("\nObjects:\n")
		for _, o := range snap.Objects {
			fmt.Fprintf(&sb, "  (%d, %d) %s %s rot=%d", o.Position.X, o.Position.Y, o.Type, o.Prefab, o.Rotation)
			if o.Crosswalk {
				sb.WriteString(" crosswalk")
			}
			if o.Staged {
				sb.WriteString(" staged")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatActionResult(result *service.ActionResult) string {
	var sb strings.Builder
	if result.Message != "" {
		sb.WriteString(result.Message)
		sb.WriteString("\n")
	}
	if !result.Changed {
		sb.WriteString("Scene unchanged\n")
	}
	if result.Scene != nil {
		sb.WriteString("\n")
		sb.WriteString(formatScene(result.Scene))
	}
	return sb.String()
}

// describeCell reports the grid character and the object at (x, y)
func describeCell(snap *editor.Snapshot, x, y int) string {
	char := byte('?')
	row := snap.Height - 1 - y
	if row >= 0 && row < len(snap.Rows) && x < len(snap.Rows[row]) {
		char = snap.Rows[row][x]
	}

	var kind string
	switch char {
	case 'R':
		kind = "Road"
	case 'S':
		kind = "Structure"
	case '.':
		kind = "Empty"
	default:
		kind = "Unknown"
	}

	result := fmt.Sprintf("Cell at position (%d, %d):\nCharacter: %c\nType: %s\n", x, y, char, kind)

	for _, o := range snap.Objects {
		if o.Position.X != x || o.Position.Y != y {
			continue
		}
		result += fmt.Sprintf("Prefab: %s\nRotation: %d\nColor: %.2f %.2f %.2f %.2f\n",
			o.Prefab, o.Rotation, o.Color.R, o.Color.G, o.Color.B, o.Color.A)
		if o.Crosswalk {
			result += "Crosswalk: yes\n"
		}
		if o.Staged {
			result += "Staged: part of an uncommitted drag\n"
		}
		break
	}
	return result
}

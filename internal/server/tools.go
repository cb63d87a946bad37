package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the frame image",
	}
}

func rectifyProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Detect the reference surface and remove perspective before locating. Default true",
		"default":     true,
	}
}

func scaleProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":             "number",
		"description":      "Physical units per pixel (e.g. 0.1 for 0.1 mm per pixel)",
		"exclusiveMinimum": 0,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frame Information
		{
			Name:        "frame_info",
			Description: "Load a frame and return its dimensions, format and file size. The frame is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Reference Surface
		{
			Name:        "surface_detect",
			Description: "Find the four corners of the reference surface (the sheet or grid behind the marker). Returns found=false with diagnostics when no four-cornered outline exists.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "surface_rectify",
			Description: "Detect the reference surface and return the perspective-corrected frame as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "surface_edges",
			Description: "Return the binary edge map used for surface detection as a base64-encoded PNG, with the number of edge pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Marker
		{
			Name:        "marker_locate",
			Description: "Locate the reddest point of a frame. Reports whether the point was measured on the rectified frame or on the original after a fallback.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"rectify": rectifyProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_displacement",
			Description: "Locate the marker in two frames and return the displacement between them in pixels and physical units.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"from": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the earlier frame",
					},
					"to": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the later frame",
					},
					"scale":   scaleProperty(),
					"rectify": rectifyProperty(),
				},
				"required": []string{"from", "to", "scale"},
			},
		},

		// Batch Measurement
		{
			Name:        "trajectory_measure",
			Description: "Measure every frame in a directory (sorted by file name) and return the marker trajectory. Optionally writes annotated frames, a composite and distances.csv.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the frame directory",
					},
					"scale":   scaleProperty(),
					"rectify": rectifyProperty(),
					"unit": map[string]interface{}{
						"type":        "string",
						"description": "Distance unit label. Default mm",
						"default":     "mm",
					},
					"write_report": map[string]interface{}{
						"type":        "boolean",
						"description": "Write the report files. Default false",
						"default":     false,
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Report directory. Default <dir>/annotated",
					},
				},
				"required": []string{"dir", "scale"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

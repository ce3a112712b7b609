package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Editor State
		{
			Name:        "mask_status",
			Description: "Report the mask editor state (clean, painting or dirty), mask size, brush, queued stroke points and save progress.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "mask_set_brush",
			Description: "Change the brush. Color is the gray level painted (0 black, 255 white); size is the brush radius in pixels (4-64). Omitted fields keep their current value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"color": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"maximum":     255,
						"description": "Gray level to paint (0-255)",
					},
					"size": map[string]interface{}{
						"type":        "number",
						"minimum":     4,
						"maximum":     64,
						"description": "Brush radius in pixels (4-64)",
					},
				},
			},
		},

		// Painting
		{
			Name:        "mask_click",
			Description: "Paint a single brush circle at a point. The mask becomes dirty and a save is scheduled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate of the circle center (from left)",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate of the circle center (from top)",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "mask_stroke_begin",
			Description: "Start a stroke at a point (pointer down). The point is queued and drawn when the stroke is flushed or ended.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate (from left)",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate (from top)",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "mask_stroke_extend",
			Description: "Add points to the current stroke (pointer move). Points are ignored when no stroke is in progress. Set flush to draw the queued points right away.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Points to queue, in drawing order",
					},
					"flush": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw all queued points before returning. Default false",
						"default":     false,
					},
				},
				"required": []string{"points"},
			},
		},
		{
			Name:        "mask_stroke_end",
			Description: "Finish the current stroke (pointer up). Queued points are drawn, the mask becomes dirty and a save is scheduled.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "mask_flood",
			Description: "Remap every mask pixel by luminance. 'below' turns everything under 224 black, 'above' turns everything over 34 white, 'gray' converts to grayscale.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"below", "above", "gray"},
						"description": "Flood transform to apply",
					},
				},
				"required": []string{"mode"},
			},
		},

		// Source Image
		{
			Name:        "mask_load_source",
			Description: "Load an image file and draw it into the mask at the top-left corner. The edit state is not changed. The image also becomes the default source for previews, blends and expansion.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"watch": map[string]interface{}{
						"type":        "boolean",
						"description": "Reload and redraw the image whenever the file changes. Default false",
						"default":     false,
					},
					"async": map[string]interface{}{
						"type":        "boolean",
						"description": "Decode in the background and report completion with a notifications/mask/source_loaded notification. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Inspection
		{
			Name:        "mask_sample_color",
			Description: "Get the exact color value and luminance of a mask pixel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "mask_coverage",
			Description: "Measure the share of black (luminance <= 34), white (>= 224) and gray mask pixels, over the whole mask or a region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"region": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required":    []string{"x1", "y1", "x2", "y2"},
						"description": "Optional region; (x1,y1) inclusive, (x2,y2) exclusive",
					},
				},
			},
		},
		{
			Name:        "mask_thumbnail",
			Description: "Return the mask as a base64-encoded PNG, shrunk to fit the given size. Masks are never enlarged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum width in pixels. Default 256",
						"default":     256,
					},
					"max_height": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum height in pixels. Default 256",
						"default":     256,
					},
				},
			},
		},

		// Compositing
		{
			Name:        "mask_preview",
			Description: "Tint the source image wherever the mask is painted and return it as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Source image path. Defaults to the last loaded source",
					},
					"tint": map[string]interface{}{
						"type":        "string",
						"description": "Tint color as #RRGGBB. Default #FF0000",
						"default":     "#FF0000",
					},
					"opacity": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "Tint strength over white mask pixels (0-1). Default 0.5",
						"default":     0.5,
					},
				},
			},
		},
		{
			Name:        "mask_blend",
			Description: "Composite a generated image over the source through the mask: white mask areas show the generated image, black areas keep the source. All three must be the same size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Source image path. Defaults to the last loaded source",
					},
					"stage_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the generated image",
					},
				},
				"required": []string{"stage_path"},
			},
		},
		{
			Name:        "mask_expand",
			Description: "Grow the source and mask by a border for outpainting. Returns the expanded source, mask and noise images as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Source image path. Defaults to the last loaded source",
					},
					"border": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"left":   map[string]interface{}{"type": "integer", "minimum": 0},
							"right":  map[string]interface{}{"type": "integer", "minimum": 0},
							"top":    map[string]interface{}{"type": "integer", "minimum": 0},
							"bottom": map[string]interface{}{"type": "integer", "minimum": 0},
						},
						"description": "Pixels to add on each side",
					},
					"noise": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"histogram", "fill-edge", "fill-mask", "uniform", "normal", "gaussian"},
						"description": "Initial content for the masked area. 'histogram' samples colors from the source's channel histograms. Default histogram",
						"default":     "histogram",
					},
					"filter": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"none", "gaussian-multiply", "gaussian-screen"},
						"description": "Mask filter. Default none",
						"default":     "none",
					},
					"fill": map[string]interface{}{
						"type":        "string",
						"description": "Canvas color for the added area: white, black, gray or #RRGGBB. Default white",
						"default":     "white",
					},
				},
				"required": []string{"border"},
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

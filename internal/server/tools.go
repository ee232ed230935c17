package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func intProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

var regionProperty = map[string]interface{}{
	"type":        "object",
	"description": "Optional crop rectangle in NIR pixel coordinates; (x1,y1) inclusive, (x2,y2) exclusive",
	"properties": map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer"},
		"y1": map[string]interface{}{"type": "integer"},
		"x2": map[string]interface{}{"type": "integer"},
		"y2": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x1", "y1", "x2", "y2"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "vineyard_health",
			Description: "Run the full vineyard analysis: NDVI from a NIR and an RGB orthomosaic, grid aggregation, " +
				"grid image output and health statistics (vineyard pixels, plant pixels, vine area, mean health).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"nir_path":                 pathProperty("Absolute path to the single-band NIR image"),
					"rgb_path":                 pathProperty("Absolute path to the RGB image; its red channel is used"),
					"grid_image_path":          pathProperty("Where to write the grid display image (.png)"),
					"heatmap_image_path":       pathProperty("Optional path for a colorized grid image (.png)"),
					"grid_size_x":              intProperty("Cell width in pixels"),
					"grid_size_y":              intProperty("Cell height in pixels"),
					"outside_vineyard_color":   intProperty("Grid intensity (0-255) marking pixels outside the vineyard"),
					"ground_color":             intProperty("Grid intensity (0-255) marking bare ground"),
					"vineyard_total_hectareas": map[string]interface{}{"type": "number", "description": "Total vineyard area; vine area is reported in the same unit"},
					"parallel": map[string]interface{}{
						"type":        "boolean",
						"description": "Process rows concurrently. Default false",
						"default":     false,
					},
					"region": regionProperty,
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the grid display image as base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{
					"nir_path", "rgb_path", "grid_image_path", "grid_size_x", "grid_size_y",
					"vineyard_total_hectareas", "outside_vineyard_color", "ground_color",
				},
			},
		},
		{
			Name: "vegetation_index",
			Description: "Compute a normalized-difference vegetation index (ndvi, gndvi, ndre or ndwi) from a NIR image " +
				"and a second band, and return its value distribution. The band is resized to the NIR image if needed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"nir_path":  pathProperty("Absolute path to the single-band NIR image"),
					"band_path": pathProperty("Absolute path to the image holding the second band"),
					"index": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"ndvi", "gndvi", "ndre", "ndwi"},
						"description": "Index to compute. Default ndvi",
						"default":     "ndvi",
					},
					"channel": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"gray", "red", "green", "blue"},
						"description": "Channel of band_path to use. Default: red for ndvi, green for gndvi and ndwi, gray for ndre",
					},
				},
				"required": []string{"nir_path", "band_path"},
			},
		},
		{
			Name:        "grid_preview",
			Description: "Compute NDVI and aggregate it into grid cells, returning the grid display image as base64 PNG without writing any file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"nir_path":    pathProperty("Absolute path to the single-band NIR image"),
					"rgb_path":    pathProperty("Absolute path to the RGB image; its red channel is used"),
					"grid_size_x": intProperty("Cell width in pixels"),
					"grid_size_y": intProperty("Cell height in pixels"),
					"region":      regionProperty,
					"colorize": map[string]interface{}{
						"type":        "boolean",
						"description": "Render the grid as a red-to-green heatmap instead of grayscale. Default false",
						"default":     false,
					},
					"low_color": map[string]interface{}{
						"type":        "string",
						"description": "Heatmap color for intensity 0. Default #d7191c",
					},
					"high_color": map[string]interface{}{
						"type":        "string",
						"description": "Heatmap color for intensity 255. Default #1a9641",
					},
				},
				"required": []string{"nir_path", "rgb_path", "grid_size_x", "grid_size_y"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file. Use it to check that the NIR and RGB images are co-registered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
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

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeContent unmarshals the JSON text of a successful tool response into v.
func decodeContent(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %#v", result["content"])
	}
	text, ok := content[0]["text"].(string)
	if !ok {
		t.Fatal("content text should be a string")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
}

// vineyardScene writes a uniform NIR/RGB pair whose NDVI is 1/32 everywhere,
// which the grid stores as intensity 159.
func vineyardScene(t *testing.T, rgbSize int) (nirPath, rgbPath string) {
	t.Helper()
	nirPath = createTestImageFile(t, "nir.png", 8, 8, color.Gray{Y: 33})
	rgbPath = createTestImageFile(t, "rgb.png", rgbSize, rgbSize, color.RGBA{31, 120, 60, 255})
	return nirPath, rgbPath
}

func TestHandleToolsCall_VineyardHealth(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 8)
	gridPath := filepath.Join(t.TempDir(), "grid.png")

	resp := callTool(t, s, "vineyard_health", map[string]interface{}{
		"nir_path":                 nirPath,
		"rgb_path":                 rgbPath,
		"grid_image_path":          gridPath,
		"grid_size_x":              4,
		"grid_size_y":              4,
		"vineyard_total_hectareas": 2.0,
		"outside_vineyard_color":   0,
		"ground_color":             255,
		"include_image":            true,
	})

	var result struct {
		Stats struct {
			TotalVineyardPixels int     `json:"total_vineyard_pixels"`
			TotalPlantPixels    int     `json:"total_plant_pixels"`
			VineArea            float64 `json:"vine_area"`
			MeanHealth          float64 `json:"mean_health"`
		} `json:"stats"`
		Cells     int  `json:"cells"`
		Width     int  `json:"width"`
		Resized   bool `json:"resized"`
		GridImage *struct {
			Width       int    `json:"width"`
			ImageBase64 string `json:"image_base64"`
		} `json:"grid_image"`
	}
	decodeContent(t, resp, &result)

	if result.Stats.TotalVineyardPixels != 64 || result.Stats.TotalPlantPixels != 64 {
		t.Errorf("pixels: got %d vineyard, %d plant, want 64/64",
			result.Stats.TotalVineyardPixels, result.Stats.TotalPlantPixels)
	}
	if result.Stats.VineArea != 2.0 {
		t.Errorf("vine area: got %v, want 2", result.Stats.VineArea)
	}
	if want := 159.0 / 255; result.Stats.MeanHealth != want {
		t.Errorf("mean health: got %v, want %v", result.Stats.MeanHealth, want)
	}
	if result.Cells != 4 || result.Width != 8 || result.Resized {
		t.Errorf("grid: got cells=%d width=%d resized=%v", result.Cells, result.Width, result.Resized)
	}
	if result.GridImage == nil || result.GridImage.Width != 8 || result.GridImage.ImageBase64 == "" {
		t.Errorf("grid image: got %+v", result.GridImage)
	}
	if _, err := os.Stat(gridPath); err != nil {
		t.Errorf("grid image not written: %v", err)
	}
}

func TestHandleToolsCall_VineyardHealthMissingSentinel(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 8)

	resp := callTool(t, s, "vineyard_health", map[string]interface{}{
		"nir_path":                 nirPath,
		"rgb_path":                 rgbPath,
		"grid_image_path":          filepath.Join(t.TempDir(), "grid.png"),
		"grid_size_x":              4,
		"grid_size_y":              4,
		"vineyard_total_hectareas": 2.0,
		"outside_vineyard_color":   0,
	})

	if resp.Error == nil {
		t.Fatal("Expected error for missing ground_color")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "ground_color is required") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_VineyardHealthDegenerate(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 8)

	// 159 is the only intensity in the grid; declaring it ground leaves no plants.
	resp := callTool(t, s, "vineyard_health", map[string]interface{}{
		"nir_path":                 nirPath,
		"rgb_path":                 rgbPath,
		"grid_image_path":          filepath.Join(t.TempDir(), "grid.png"),
		"grid_size_x":              4,
		"grid_size_y":              4,
		"vineyard_total_hectareas": 2.0,
		"outside_vineyard_color":   0,
		"ground_color":             159,
	})

	if resp.Error == nil {
		t.Fatal("Expected degenerate input error")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "no plant pixels") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_VegetationIndex(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 4)

	tests := []struct {
		index       string
		channel     string
		wantChannel string
		wantMean    float64
	}{
		{"", "", "red", 2.0 / 64},                       // (33-31)/(33+31)
		{"gndvi", "", "green", (33.0 - 120) / (33 + 120)}, // (33-120)/(33+120)
		{"ndwi", "", "green", (120.0 - 33) / (120 + 33)},  // (120-33)/(120+33)
		{"NDVI", "blue", "blue", (33.0 - 60) / (33 + 60)}, // (33-60)/(33+60)
	}
	for _, tt := range tests {
		t.Run(tt.index+"/"+tt.channel, func(t *testing.T) {
			resp := callTool(t, s, "vegetation_index", map[string]interface{}{
				"nir_path":  nirPath,
				"band_path": rgbPath,
				"index":     tt.index,
				"channel":   tt.channel,
			})

			var result VegetationIndexResult
			decodeContent(t, resp, &result)

			if result.Channel != tt.wantChannel {
				t.Errorf("channel: got %s, want %s", result.Channel, tt.wantChannel)
			}
			if !result.Resized {
				t.Error("4x4 band should be resized to the 8x8 NIR image")
			}
			if result.Summary.Width != 8 || result.Summary.Finite != 64 {
				t.Errorf("summary: got %+v", result.Summary)
			}
			if d := result.Summary.Mean - tt.wantMean; d > 1e-6 || d < -1e-6 {
				t.Errorf("mean: got %v, want %v", result.Summary.Mean, tt.wantMean)
			}
		})
	}
}

func TestHandleToolsCall_VegetationIndexUnknown(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 8)

	resp := callTool(t, s, "vegetation_index", map[string]interface{}{
		"nir_path":  nirPath,
		"band_path": rgbPath,
		"index":     "evi",
	})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("Expected tool error, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_GridPreview(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 8)

	for _, colorize := range []bool{false, true} {
		resp := callTool(t, s, "grid_preview", map[string]interface{}{
			"nir_path":    nirPath,
			"rgb_path":    rgbPath,
			"grid_size_x": 3,
			"grid_size_y": 8,
			"colorize":    colorize,
		})

		var result GridPreviewResult
		decodeContent(t, resp, &result)

		if result.Cells != 3 {
			t.Errorf("colorize=%v: cells got %d, want 3", colorize, result.Cells)
		}
		if result.Image == nil || result.Image.MimeType != "image/png" {
			t.Fatalf("colorize=%v: image got %+v", colorize, result.Image)
		}

		raw, err := base64.StdEncoding.DecodeString(result.Image.ImageBase64)
		if err != nil {
			t.Fatalf("failed to decode base64: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("failed to decode png: %v", err)
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
			t.Errorf("colorize=%v: bounds got %v", colorize, img.Bounds())
		}
		// (1,1) is inside the first cell, away from its outline.
		r, g, b, _ := img.At(1, 1).RGBA()
		gray := r == g && g == b
		if gray == colorize {
			t.Errorf("colorize=%v: pixel (1,1) = (%d,%d,%d)", colorize, r>>8, g>>8, b>>8)
		}
	}
}

func TestHandleToolsCall_GridPreviewRegion(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 8)

	resp := callTool(t, s, "grid_preview", map[string]interface{}{
		"nir_path":    nirPath,
		"rgb_path":    rgbPath,
		"grid_size_x": 2,
		"grid_size_y": 2,
		"region":      map[string]int{"x1": 2, "y1": 2, "x2": 6, "y2": 6},
	})

	var result GridPreviewResult
	decodeContent(t, resp, &result)
	if result.Cells != 4 || result.Image.Width != 4 || result.Image.Height != 4 {
		t.Errorf("got cells=%d size=%dx%d, want 4 cells 4x4", result.Cells, result.Image.Width, result.Image.Height)
	}
}

func TestHandleToolsCall_GridPreviewInvalidGeometry(t *testing.T) {
	s := New()
	nirPath, rgbPath := vineyardScene(t, 8)

	resp := callTool(t, s, "grid_preview", map[string]interface{}{
		"nir_path":    nirPath,
		"rgb_path":    rgbPath,
		"grid_size_x": 0,
		"grid_size_y": 4,
	})
	if resp.Error == nil {
		t.Fatal("Expected error for zero cell width")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "invalid grid cell size 0x4") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, "dims.png", 200, 150, color.RGBA{0, 255, 0, 255})

	resp := callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath})

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeContent(t, resp, &dims)
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_FileNotFound(t *testing.T) {
	s := New()
	resp := callTool(t, s, "image_dimensions", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing.png"),
	})
	if resp.Error == nil {
		t.Fatal("Expected error for missing file")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("Expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_MissingArguments(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"image_dimensions"}`),
	})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("Expected -32000, got %+v", resp.Error)
	}
}

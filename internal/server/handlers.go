package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/vineyard-health/internal/config"
	"github.com/ironsheep/vineyard-health/internal/grid"
	"github.com/ironsheep/vineyard-health/internal/imaging"
	"github.com/ironsheep/vineyard-health/internal/pipeline"
	"github.com/ironsheep/vineyard-health/internal/vegetation"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "vineyard_health").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Str("tool", params.Name).Err(err).Msg("tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "vineyard_health":
		return s.handleVineyardHealth(ctx, args)
	case "vegetation_index":
		return s.handleVegetationIndex(args)
	case "grid_preview":
		return s.handleGridPreview(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r *regionArgs) toConfig() *config.Region {
	if r == nil {
		return nil
	}
	return &config.Region{X1: r.X1, Y1: r.Y1, X2: r.X2, Y2: r.Y2}
}

// === Vineyard Analysis ===

type vineyardHealthArgs struct {
	NIRPath          string      `json:"nir_path"`
	RGBPath          string      `json:"rgb_path"`
	GridImagePath    string      `json:"grid_image_path"`
	HeatmapImagePath string      `json:"heatmap_image_path"`
	GridSizeX        int         `json:"grid_size_x"`
	GridSizeY        int         `json:"grid_size_y"`
	VineyardHectares float64     `json:"vineyard_total_hectareas"`
	OutsideColor     *int        `json:"outside_vineyard_color"`
	GroundColor      *int        `json:"ground_color"`
	Parallel         bool        `json:"parallel"`
	Region           *regionArgs `json:"region"`
	IncludeImage     bool        `json:"include_image"`
}

// VineyardHealthResult is the vineyard_health tool response.
type VineyardHealthResult struct {
	*pipeline.Result
	GridImage *imaging.EncodedImage `json:"grid_image,omitempty"`
}

func (s *Server) handleVineyardHealth(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a vineyardHealthArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	cfg := &config.Config{
		NIRImagePath:     a.NIRPath,
		RGBImagePath:     a.RGBPath,
		GridImagePath:    a.GridImagePath,
		HeatmapImagePath: a.HeatmapImagePath,
		GridSizeX:        a.GridSizeX,
		GridSizeY:        a.GridSizeY,
		VineyardHectares: a.VineyardHectares,
		OutsideColor:     a.OutsideColor,
		GroundColor:      a.GroundColor,
		Parallel:         a.Parallel,
		Region:           a.Region.toConfig(),
	}

	res, err := pipeline.Run(ctx, cfg, pipeline.WithCache(s.cache), pipeline.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	out := &VineyardHealthResult{Result: res}
	if a.IncludeImage {
		if out.GridImage, err = imaging.EncodePNGBase64(res.Grid.Display); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// === Vegetation Index ===

type vegetationIndexArgs struct {
	NIRPath  string `json:"nir_path"`
	BandPath string `json:"band_path"`
	Index    string `json:"index"`
	Channel  string `json:"channel"`
}

// VegetationIndexResult is the vegetation_index tool response.
type VegetationIndexResult struct {
	Index   string             `json:"index"`
	Channel string             `json:"channel"`
	Resized bool               `json:"resized"`
	Summary vegetation.Summary `json:"summary"`
}

// defaultChannel is the band channel conventionally paired with idx.
func defaultChannel(idx vegetation.Index) imaging.Channel {
	switch idx {
	case vegetation.IndexNDVI:
		return imaging.ChannelRed
	case vegetation.IndexGNDVI, vegetation.IndexNDWI:
		return imaging.ChannelGreen
	}
	return imaging.ChannelGray
}

func (s *Server) handleVegetationIndex(args json.RawMessage) (interface{}, error) {
	var a vegetationIndexArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Index == "" {
		a.Index = "ndvi"
	}
	idx, err := vegetation.ParseIndex(a.Index)
	if err != nil {
		return nil, err
	}
	ch := defaultChannel(idx)
	if a.Channel != "" {
		if ch, err = imaging.ParseChannel(a.Channel); err != nil {
			return nil, err
		}
	}

	nir, err := imaging.LoadGray(s.cache, a.NIRPath)
	if err != nil {
		return nil, err
	}
	band, err := imaging.LoadBand(s.cache, a.BandPath, ch)
	if err != nil {
		return nil, err
	}
	band, resized, err := imaging.MatchSize(nir, band)
	if err != nil {
		return nil, err
	}

	raster, err := vegetation.Compute(idx, nir, band)
	if err != nil {
		return nil, err
	}
	return &VegetationIndexResult{
		Index:   idx.String(),
		Channel: ch.String(),
		Resized: resized,
		Summary: raster.Summary(),
	}, nil
}

// === Grid Preview ===

type gridPreviewArgs struct {
	NIRPath   string      `json:"nir_path"`
	RGBPath   string      `json:"rgb_path"`
	GridSizeX int         `json:"grid_size_x"`
	GridSizeY int         `json:"grid_size_y"`
	Region    *regionArgs `json:"region"`
	Colorize  bool        `json:"colorize"`
	LowColor  string      `json:"low_color"`
	HighColor string      `json:"high_color"`
}

// GridPreviewResult is the grid_preview tool response.
type GridPreviewResult struct {
	Cells int                   `json:"cells"`
	Image *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleGridPreview(args json.RawMessage) (interface{}, error) {
	var a gridPreviewArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	geom := grid.Geometry{CellWidth: a.GridSizeX, CellHeight: a.GridSizeY}
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	nir, err := imaging.LoadGray(s.cache, a.NIRPath)
	if err != nil {
		return nil, err
	}
	red, err := imaging.LoadBand(s.cache, a.RGBPath, imaging.ChannelRed)
	if err != nil {
		return nil, err
	}
	if red, _, err = imaging.MatchSize(nir, red); err != nil {
		return nil, err
	}
	if a.Region != nil {
		r := a.Region.toConfig().Rect()
		if nir, err = imaging.Crop(nir, r); err != nil {
			return nil, err
		}
		if red, err = imaging.Crop(red, r); err != nil {
			return nil, err
		}
	}

	ndvi, err := vegetation.NDVI(nir, red)
	if err != nil {
		return nil, err
	}
	res, err := grid.Aggregate(ndvi, geom)
	if err != nil {
		return nil, err
	}

	var out image.Image = res.Display
	if a.Colorize {
		palette, err := parsePalette(a.LowColor, a.HighColor)
		if err != nil {
			return nil, err
		}
		out = imaging.Colorize(res.Display, palette)
	}

	encoded, err := imaging.EncodePNGBase64(out)
	if err != nil {
		return nil, err
	}
	return &GridPreviewResult{Cells: res.Cells, Image: encoded}, nil
}

func parsePalette(lowHex, highHex string) (*imaging.Palette, error) {
	if lowHex == "" {
		lowHex = imaging.DefaultLowColor
	}
	if highHex == "" {
		highHex = imaging.DefaultHighColor
	}
	low, err := imaging.ParseHexColor(lowHex)
	if err != nil {
		return nil, err
	}
	high, err := imaging.ParseHexColor(highHex)
	if err != nil {
		return nil, err
	}
	return imaging.NewPalette(low, high), nil
}

// === Image Information ===

type imageDimensionsArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageDimensionsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

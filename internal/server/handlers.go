package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/mask-tools-mcp/internal/imaging"
	"github.com/ironsheep/mask-tools-mcp/internal/mask"
	"github.com/ironsheep/mask-tools-mcp/internal/source"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mask_click", "mask_flood").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Calls the editor or the imaging package
//  4. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Editor State
	case "mask_status":
		return s.handleMaskStatus(args)
	case "mask_set_brush":
		return s.handleMaskSetBrush(args)

	// Painting
	case "mask_click":
		return s.handleMaskClick(args)
	case "mask_stroke_begin":
		return s.handleMaskStrokeBegin(args)
	case "mask_stroke_extend":
		return s.handleMaskStrokeExtend(args)
	case "mask_stroke_end":
		return s.handleMaskStrokeEnd(args)
	case "mask_flood":
		return s.handleMaskFlood(args)

	// Source Image
	case "mask_load_source":
		return s.handleMaskLoadSource(args)

	// Inspection
	case "mask_sample_color":
		return s.handleMaskSampleColor(args)
	case "mask_coverage":
		return s.handleMaskCoverage(args)
	case "mask_thumbnail":
		return s.handleMaskThumbnail(args)

	// Compositing
	case "mask_preview":
		return s.handleMaskPreview(args)
	case "mask_blend":
		return s.handleMaskBlend(args)
	case "mask_expand":
		return s.handleMaskExpand(args)

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

// === Editor State Handlers ===

type brushResult struct {
	Color int     `json:"color"`
	Size  float64 `json:"size"`
}

// StatusResult describes the editor for mask_status.
type StatusResult struct {
	State          mask.EditState `json:"state"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Brush          brushResult    `json:"brush"`
	PendingPoints  int            `json:"pending_points"`
	Saves          int            `json:"saves"`
	SavePending    bool           `json:"save_pending"`
	SaveIntervalMS int64          `json:"save_interval_ms"`
	SourcePath     string         `json:"source_path,omitempty"`
	OutputPath     string         `json:"output_path,omitempty"`
}

func (s *Server) status() (*StatusResult, error) {
	w, h, err := s.editor.Size()
	if err != nil {
		return nil, err
	}
	b := s.editor.Brush()

	s.mu.Lock()
	sourcePath := s.sourcePath
	s.mu.Unlock()

	return &StatusResult{
		State:          s.editor.State(),
		Width:          w,
		Height:         h,
		Brush:          brushResult{Color: b.Color, Size: b.Size},
		PendingPoints:  s.editor.PendingPoints(),
		Saves:          s.editor.Saves(),
		SavePending:    s.editor.SavePending(),
		SaveIntervalMS: s.editor.SaveInterval().Milliseconds(),
		SourcePath:     sourcePath,
		OutputPath:     s.cfg.OutputPath,
	}, nil
}

func (s *Server) handleMaskStatus(args json.RawMessage) (interface{}, error) {
	return s.status()
}

type maskSetBrushArgs struct {
	Color *int     `json:"color"`
	Size  *float64 `json:"size"`
}

func (s *Server) handleMaskSetBrush(args json.RawMessage) (interface{}, error) {
	var a maskSetBrushArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	b := s.editor.Brush()
	if a.Color != nil {
		b.Color = *a.Color
	}
	if a.Size != nil {
		b.Size = *a.Size
	}
	if err := s.editor.SetBrush(b); err != nil {
		return nil, err
	}
	return brushResult{Color: b.Color, Size: b.Size}, nil
}

// === Painting Handlers ===

type pointArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p pointArgs) point() mask.Point {
	return mask.Point{X: p.X, Y: p.Y}
}

type editResult struct {
	State         mask.EditState `json:"state"`
	PendingPoints int            `json:"pending_points"`
	SavePending   bool           `json:"save_pending"`
}

func (s *Server) editResult() editResult {
	return editResult{
		State:         s.editor.State(),
		PendingPoints: s.editor.PendingPoints(),
		SavePending:   s.editor.SavePending(),
	}
}

func (s *Server) handleMaskClick(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.editor.Click(a.point()); err != nil {
		return nil, err
	}
	return s.editResult(), nil
}

func (s *Server) handleMaskStrokeBegin(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.editor.BeginStroke(a.point()); err != nil {
		return nil, err
	}
	return s.editResult(), nil
}

type maskStrokeExtendArgs struct {
	Points []pointArgs `json:"points"`
	Flush  bool        `json:"flush"`
}

type strokeExtendResult struct {
	editResult
	Accepted bool `json:"accepted"`
	Drawn    int  `json:"drawn"`
}

func (s *Server) handleMaskStrokeExtend(args json.RawMessage) (interface{}, error) {
	var a maskStrokeExtendArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	points := make([]mask.Point, len(a.Points))
	for i, p := range a.Points {
		points[i] = p.point()
	}
	accepted := s.editor.ExtendStroke(points...)

	drawn := 0
	if a.Flush {
		drawn = s.editor.FlushStroke()
	}
	return strokeExtendResult{
		editResult: s.editResult(),
		Accepted:   accepted,
		Drawn:      drawn,
	}, nil
}

type strokeEndResult struct {
	editResult
	Finished bool `json:"finished"`
}

func (s *Server) handleMaskStrokeEnd(args json.RawMessage) (interface{}, error) {
	finished := s.editor.EndStroke()
	return strokeEndResult{
		editResult: s.editResult(),
		Finished:   finished,
	}, nil
}

type maskFloodArgs struct {
	Mode string `json:"mode"`
}

func (s *Server) handleMaskFlood(args json.RawMessage) (interface{}, error) {
	var a maskFloodArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mode, err := mask.ParseFloodMode(a.Mode)
	if err != nil {
		return nil, err
	}
	if err := s.editor.ApplyFlood(mode); err != nil {
		return nil, err
	}
	return s.editResult(), nil
}

// === Source Image Handlers ===

type maskLoadSourceArgs struct {
	Path  string `json:"path"`
	Watch bool   `json:"watch"`
	Async bool   `json:"async"`
}

type loadSourceResult struct {
	Source   *source.Info `json:"source,omitempty"`
	Loading  bool         `json:"loading,omitempty"`
	Watching bool         `json:"watching"`
}

func (s *Server) handleMaskLoadSource(args json.RawMessage) (interface{}, error) {
	var a maskLoadSourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	var watcher *source.Watcher
	if a.Watch {
		w, err := source.Watch(s.sources, a.Path, s.handleSourceChange(a.Path), nil)
		if err != nil {
			return nil, err
		}
		watcher = w
	}

	if a.Async {
		s.setSource(a.Path, watcher)
		source.LoadAsync(s.sources, a.Path, s.handleSourceChange(a.Path))
		return loadSourceResult{Loading: true, Watching: watcher != nil}, nil
	}

	img, err := s.sources.Load(a.Path)
	if err == nil {
		err = s.editor.DrawSource(img)
	}
	if err != nil {
		if watcher != nil {
			watcher.Close()
		}
		return nil, err
	}
	info, err := source.Describe(a.Path, img)
	if err != nil {
		if watcher != nil {
			watcher.Close()
		}
		return nil, err
	}

	s.setSource(a.Path, watcher)
	return loadSourceResult{Source: info, Watching: watcher != nil}, nil
}

// === Inspection Handlers ===

type maskSampleColorArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleMaskSampleColor(args json.RawMessage) (interface{}, error) {
	var a maskSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.editor.Snapshot()
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(snap, a.X, a.Y)
}

type maskCoverageArgs struct {
	Region *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region"`
}

func (s *Server) handleMaskCoverage(args json.RawMessage) (interface{}, error) {
	var a maskCoverageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.editor.Snapshot()
	if err != nil {
		return nil, err
	}

	var region *imaging.Region
	if a.Region != nil {
		region = &imaging.Region{X1: a.Region.X1, Y1: a.Region.Y1, X2: a.Region.X2, Y2: a.Region.Y2}
	}
	return imaging.Coverage(snap, region)
}

type maskThumbnailArgs struct {
	MaxWidth  int `json:"max_width"`
	MaxHeight int `json:"max_height"`
}

func (s *Server) handleMaskThumbnail(args json.RawMessage) (interface{}, error) {
	var a maskThumbnailArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxWidth == 0 {
		a.MaxWidth = 256
	}
	if a.MaxHeight == 0 {
		a.MaxHeight = 256
	}
	snap, err := s.editor.Snapshot()
	if err != nil {
		return nil, err
	}
	return imaging.Thumbnail(snap, a.MaxWidth, a.MaxHeight)
}

// === Compositing Handlers ===

type maskPreviewArgs struct {
	Path    string   `json:"path"`
	Tint    string   `json:"tint"`
	Opacity *float64 `json:"opacity"`
}

func (s *Server) handleMaskPreview(args json.RawMessage) (interface{}, error) {
	var a maskPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opacity := 0.5
	if a.Opacity != nil {
		opacity = *a.Opacity
	}
	src, _, err := s.activeSource(a.Path)
	if err != nil {
		return nil, err
	}
	snap, err := s.editor.Snapshot()
	if err != nil {
		return nil, err
	}
	return imaging.Preview(src, snap, a.Tint, opacity)
}

type maskBlendArgs struct {
	Path      string `json:"path"`
	StagePath string `json:"stage_path"`
}

func (s *Server) handleMaskBlend(args json.RawMessage) (interface{}, error) {
	var a maskBlendArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.StagePath == "" {
		return nil, fmt.Errorf("stage_path is required")
	}
	src, _, err := s.activeSource(a.Path)
	if err != nil {
		return nil, err
	}
	stage, err := s.sources.Load(a.StagePath)
	if err != nil {
		return nil, err
	}
	snap, err := s.editor.Snapshot()
	if err != nil {
		return nil, err
	}

	out, err := imaging.BlendMask(src, stage, snap)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeResult(out)
}

type maskExpandArgs struct {
	Path   string         `json:"path"`
	Border imaging.Border `json:"border"`
	Noise  string         `json:"noise"`
	Filter string         `json:"filter"`
	Fill   string         `json:"fill"`
}

type expandResult struct {
	Source *imaging.ImageResult `json:"source"`
	Mask   *imaging.ImageResult `json:"mask"`
	Noise  *imaging.ImageResult `json:"noise"`
}

func (s *Server) handleMaskExpand(args json.RawMessage) (interface{}, error) {
	var a maskExpandArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	fill, err := imaging.ParseFill(a.Fill)
	if err != nil {
		return nil, err
	}
	src, _, err := s.activeSource(a.Path)
	if err != nil {
		return nil, err
	}
	snap, err := s.editor.Snapshot()
	if err != nil {
		return nil, err
	}

	exp, err := imaging.Expand(src, snap, a.Border, imaging.NoiseSource(a.Noise), imaging.MaskFilter(a.Filter), fill)
	if err != nil {
		return nil, err
	}

	var result expandResult
	if result.Source, err = imaging.EncodeResult(exp.Source); err != nil {
		return nil, err
	}
	if result.Mask, err = imaging.EncodeResult(exp.Mask); err != nil {
		return nil, err
	}
	if result.Noise, err = imaging.EncodeResult(exp.Noise); err != nil {
		return nil, err
	}
	return result, nil
}

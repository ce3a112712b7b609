package server

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/ironsheep/mask-tools-mcp/internal/config"
	"github.com/ironsheep/mask-tools-mcp/internal/mask"
	"github.com/ironsheep/mask-tools-mcp/internal/source"
)

// Server handles MCP protocol communication
type Server struct {
	cfg     config.Config
	editor  *mask.Editor
	sources *source.Cache

	// mu guards the output encoder and the active source.
	mu         sync.Mutex
	out        *json.Encoder
	sourcePath string
	watcher    *source.Watcher
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Notification methods sent by the server.
const (
	NotifyMaskSaved    = "notifications/mask/saved"
	NotifySourceLoaded = "notifications/mask/source_loaded"
)

// SavedParams is the payload of a NotifyMaskSaved notification.
type SavedParams struct {
	Path        string `json:"path,omitempty"`
	Bytes       int    `json:"bytes"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Seq         int    `json:"seq"`
	MimeType    string `json:"mime_type"`
	ImageBase64 string `json:"image_base64"`
}

// SourceLoadedParams is the payload of a NotifySourceLoaded notification.
type SourceLoadedParams struct {
	Source *source.Info `json:"source,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// New creates a new MCP server instance with a fresh mask sized by cfg.
func New(cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		sources: source.NewCache(),
	}

	editor, err := mask.New(mask.Options{
		Width:        cfg.Width,
		Height:       cfg.Height,
		SaveInterval: cfg.SaveInterval(),
		Brush:        cfg.BrushConfig(),
		Logger:       log.Default(),
		Debug:        cfg.Debug(),
	}, s.handleSave)
	if err != nil {
		return nil, fmt.Errorf("failed to create mask editor: %w", err)
	}
	s.editor = editor

	return s, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.RunIO(os.Stdin, os.Stdout)
}

// RunIO serves requests read from r, one per line, and writes responses and
// notifications to w until r is exhausted.
func (s *Server) RunIO(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	s.mu.Lock()
	s.out = json.NewEncoder(w)
	s.mu.Unlock()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := s.write(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// Close stops the source watcher and releases the mask. A save that is
// already scheduled is dropped.
func (s *Server) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	s.editor.Close()
	if w != nil {
		return w.Close()
	}
	return nil
}

// write sends one message. Saves and source reloads notify from their own
// goroutines, so every write goes through the lock.
func (s *Server) write(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil
	}
	return s.out.Encode(v)
}

func (s *Server) notify(method string, params interface{}) {
	err := s.write(&MCPNotification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		log.Printf("Failed to send %s: %v", method, err)
	}
}

// handleSave is the mask sink. The blob is written to the configured output
// path, then announced to the client.
func (s *Server) handleSave(b mask.Blob) {
	path := s.cfg.OutputPath
	if path != "" {
		if err := writeFileAtomic(path, b.Data); err != nil {
			log.Printf("Failed to write mask to %s: %v", path, err)
			path = ""
		}
	}

	s.notify(NotifyMaskSaved, &SavedParams{
		Path:        path,
		Bytes:       len(b.Data),
		Width:       b.Width,
		Height:      b.Height,
		Seq:         b.Seq,
		MimeType:    b.MimeType,
		ImageBase64: base64.StdEncoding.EncodeToString(b.Data),
	})
}

// writeFileAtomic replaces path with data so readers never see a partial
// file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mask-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// activeSource returns the image at path, or the last loaded source when
// path is empty.
func (s *Server) activeSource(path string) (image.Image, string, error) {
	if path == "" {
		s.mu.Lock()
		path = s.sourcePath
		s.mu.Unlock()
	}
	if path == "" {
		return nil, "", fmt.Errorf("no source image loaded; pass a path or call mask_load_source first")
	}
	img, err := s.sources.Load(path)
	if err != nil {
		return nil, "", err
	}
	return img, path, nil
}

// setSource records path as the active source and replaces the watcher.
// A nil watcher just stops the previous one.
func (s *Server) setSource(path string, w *source.Watcher) {
	s.mu.Lock()
	old := s.watcher
	s.sourcePath = path
	s.watcher = w
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("Failed to stop watcher for %s: %v", old.Path(), err)
		}
	}
}

// handleSourceChange draws a reloaded source into the mask.
func (s *Server) handleSourceChange(path string) func(image.Image, error) {
	return func(img image.Image, err error) {
		if err == nil {
			err = s.editor.DrawSource(img)
		}
		if err != nil {
			log.Printf("Failed to reload source %s: %v", path, err)
			s.notify(NotifySourceLoaded, &SourceLoadedParams{Error: err.Error()})
			return
		}
		info, err := source.Describe(path, img)
		if err != nil {
			log.Printf("Failed to describe source %s: %v", path, err)
			return
		}
		s.notify(NotifySourceLoaded, &SourceLoadedParams{Source: info})
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "mask-tools-mcp",
				"version": "0.1.0",
			},
		},
	}
}

package server

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/mask-tools-mcp/internal/config"
	"github.com/ironsheep/mask-tools-mcp/internal/mask"
)

// testConfig returns a small mask whose saves never fire on their own
// during a test.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Width = 32
	cfg.Height = 32
	cfg.SaveIntervalMS = 60000
	return cfg
}

// newTestServer creates a server that is closed when the test ends.
func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// syncBuffer is a bytes.Buffer that can be written by the save goroutine
// while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// outputLines splits server output into decoded JSON messages.
func outputLines(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var msgs []map[string]interface{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("invalid output line %q: %v", scanner.Text(), err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func TestNew(t *testing.T) {
	s := newTestServer(t, testConfig())
	if s.editor == nil {
		t.Fatal("New() did not create the editor")
	}
	if s.sources == nil {
		t.Fatal("New() did not initialize the source cache")
	}
	if w, h, err := s.editor.Size(); err != nil || w != 32 || h != 32 {
		t.Errorf("editor size: got %dx%d (%v), want 32x32", w, h, err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SaveIntervalMS = 0
	if _, err := New(cfg); err == nil {
		t.Error("New should reject an invalid config")
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
			if req.JSONRPC != "2.0" {
				t.Errorf("JSONRPC: got %s, want 2.0", req.JSONRPC)
			}
		})
	}
}

func TestMCPResponse_WithError(t *testing.T) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      1,
		Error: &MCPError{
			Code:    -32601,
			Message: "Method not found",
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded MCPResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error should not be nil")
	}
	if decoded.Error.Code != -32601 {
		t.Errorf("Error.Code: got %d, want -32601", decoded.Error.Code)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Errorf("error response should omit result: %s", data)
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
	}

	resp := s.handleRequest(req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != 1 {
		t.Errorf("ID: got %v, want 1", resp.ID)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != "mask-tools-mcp" {
		t.Errorf("serverInfo.name: got %v", serverInfo["name"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      "ping-1",
		Method:  "ping",
	}

	resp := s.handleRequest(req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := &MCPRequest{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	}

	// Notifications don't get responses
	if resp := s.handleRequest(req); resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "nonexistent/method",
	}

	resp := s.handleRequest(req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestRunIO(t *testing.T) {
	s := newTestServer(t, testConfig())

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"mask_status","arguments":{}}}`,
	}, "\n")
	var out syncBuffer

	if err := s.RunIO(strings.NewReader(in), &out); err != nil {
		t.Fatalf("RunIO failed: %v", err)
	}

	msgs := outputLines(t, out.String())
	if len(msgs) != 2 {
		t.Fatalf("responses: got %d, want 2\n%s", len(msgs), out.String())
	}
	if msgs[0]["id"] != float64(1) || msgs[1]["id"] != float64(2) {
		t.Errorf("response ids: got %v and %v, want 1 and 2", msgs[0]["id"], msgs[1]["id"])
	}
	if msgs[1]["error"] != nil {
		t.Errorf("mask_status failed: %v", msgs[1]["error"])
	}
}

func TestRunIO_SavesAfterEdit(t *testing.T) {
	cfg := testConfig()
	cfg.SaveIntervalMS = 20
	cfg.OutputPath = filepath.Join(t.TempDir(), "mask.png")
	s := newTestServer(t, cfg)

	in := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"mask_click","arguments":{"x":16,"y":16}}}` + "\n"
	var out syncBuffer
	if err := s.RunIO(strings.NewReader(in), &out); err != nil {
		t.Fatalf("RunIO failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.editor.Saves() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("mask was never saved")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// The notification follows the file write on the same goroutine.
	var notification map[string]interface{}
	for notification == nil {
		if time.Now().After(deadline) {
			t.Fatalf("no save notification in output:\n%s", out.String())
		}
		for _, m := range outputLines(t, out.String()) {
			if m["method"] == NotifyMaskSaved {
				notification = m
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	f, err := os.Open(cfg.OutputPath)
	if err != nil {
		t.Fatalf("saved mask missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("saved mask is not a PNG: %v", err)
	}
	if r, _, _, _ := img.At(16, 16).RGBA(); r>>8 != 255 {
		t.Errorf("saved pixel at click: got red %d, want 255", r>>8)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 0 {
		t.Errorf("saved pixel away from click: got red %d, want 0", r>>8)
	}

	params, ok := notification["params"].(map[string]interface{})
	if !ok {
		t.Fatal("notification params should be an object")
	}
	if params["path"] != cfg.OutputPath {
		t.Errorf("notification path: got %v, want %s", params["path"], cfg.OutputPath)
	}
	if params["mime_type"] != mask.MimeType {
		t.Errorf("notification mime_type: got %v", params["mime_type"])
	}
	if s.editor.State() != mask.Clean {
		t.Errorf("state after save: got %s, want clean", s.editor.State())
	}
}

func TestHandleSave(t *testing.T) {
	cfg := testConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.png")
	s := newTestServer(t, cfg)

	var out syncBuffer
	s.out = json.NewEncoder(&out)

	data := []byte("\x89PNG fake")
	s.handleSave(mask.Blob{Data: data, MimeType: mask.MimeType, Width: 32, Height: 32, Seq: 3})

	written, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Errorf("output file: got %q, want %q", written, data)
	}

	msgs := outputLines(t, out.String())
	if len(msgs) != 1 || msgs[0]["method"] != NotifyMaskSaved {
		t.Fatalf("expected one save notification, got %v", msgs)
	}
	params := msgs[0]["params"].(map[string]interface{})
	if params["bytes"] != float64(len(data)) || params["seq"] != float64(3) {
		t.Errorf("notification params: got %v", params)
	}
	decoded, err := base64.StdEncoding.DecodeString(params["image_base64"].(string))
	if err != nil || !bytes.Equal(decoded, data) {
		t.Errorf("image_base64 does not round-trip: %v", err)
	}
}

func TestHandleSave_WriteFailure(t *testing.T) {
	cfg := testConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), "missing", "out.png")
	s := newTestServer(t, cfg)

	var out syncBuffer
	s.out = json.NewEncoder(&out)
	s.handleSave(mask.Blob{Data: []byte("x"), MimeType: mask.MimeType, Seq: 1})

	msgs := outputLines(t, out.String())
	if len(msgs) != 1 {
		t.Fatalf("notifications: got %d, want 1", len(msgs))
	}
	params := msgs[0]["params"].(map[string]interface{})
	if _, ok := params["path"]; ok {
		t.Errorf("failed write should not report a path, got %v", params["path"])
	}
}

func TestHandleSave_NoOutput(t *testing.T) {
	s := newTestServer(t, testConfig())

	// No encoder yet: the notification is dropped without error.
	s.handleSave(mask.Blob{Data: []byte("x"), MimeType: mask.MimeType, Seq: 1})
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mask.png")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := writeFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("writeFileAtomic failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("content: got %q, want new", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestMCPNotification_Marshal(t *testing.T) {
	notification := MCPNotification{
		JSONRPC: "2.0",
		Method:  NotifyMaskSaved,
		Params:  map[string]string{"key": "value"},
	}

	data, err := json.Marshal(notification)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded["method"] != NotifyMaskSaved {
		t.Errorf("method: got %v, want %s", decoded["method"], NotifyMaskSaved)
	}
	if _, ok := decoded["id"]; ok {
		t.Error("notifications must not carry an id")
	}
}

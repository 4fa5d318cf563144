package mcp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/reader"
	"github.com/phpdave11/gofpdf"
)

func sendRequest(t *testing.T, s *Server, method string, id int, params interface{}) jsonrpcResponse {
	t.Helper()

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	reqBytes = append(reqBytes, '\n')

	var output bytes.Buffer
	s.input = bytes.NewReader(reqBytes)
	s.output = &output

	s.Run()

	var resp jsonrpcResponse
	if err := json.Unmarshal(output.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response %q: %v", output.String(), err)
	}
	return resp
}

func TestServerInitialize(t *testing.T) {
	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	resp := sendRequest(t, s, "initialize", 1, map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "test", "version": "1.0"},
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result is not a map")
	}

	if result["protocolVersion"] != "2024-11-05" {
		t.Fatalf("unexpected protocol version: %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("missing serverInfo")
	}
	if serverInfo["name"] != "pdfmerge-mcp" {
		t.Fatalf("unexpected server name: %v", serverInfo["name"])
	}
	if text, _ := result["instructions"].(string); !strings.Contains(text, "path[:range[:rotation]]") {
		t.Errorf("instructions do not describe selections: %q", text)
	}
}

func TestServerToolsList(t *testing.T) {
	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	resp := sendRequest(t, s, "tools/list", 2, nil)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result is not a map")
	}

	tools, ok := result["tools"].([]interface{})
	if !ok {
		t.Fatal("tools is not an array")
	}

	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}

	var names []string
	for _, tool := range tools {
		tm, ok := tool.(map[string]interface{})
		if !ok {
			t.Fatalf("tool entry is %T", tool)
		}
		names = append(names, fmt.Sprint(tm["name"]))
		if _, ok := tm["inputSchema"].(map[string]interface{}); !ok {
			t.Errorf("%v has no input schema", tm["name"])
		}
	}

	// Listed by name
	want := "[merge_pdfs pdf_info preview_merge read_outline]"
	if got := fmt.Sprint(names); got != want {
		t.Errorf("tools = %s, want %s", got, want)
	}
}

func TestServerResourcesList(t *testing.T) {
	s := NewServerWithIO(nil, nil)
	RegisterDefaultResources(s)

	resp := sendRequest(t, s, "resources/list", 3, nil)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result is not a map")
	}

	resources, ok := result["resources"].([]interface{})
	if !ok {
		t.Fatal("resources is not an array")
	}

	if len(resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(resources))
	}
}

func TestServerPing(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	resp := sendRequest(t, s, "ping", 4, nil)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	resp := sendRequest(t, s, "nonexistent/method", 5, nil)

	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Fatalf("expected error code -32601, got %d", resp.Error.Code)
	}
}

func TestServerUnknownTool(t *testing.T) {
	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	resp := sendRequest(t, s, "tools/call", 6, map[string]interface{}{
		"name":      "nonexistent_tool",
		"arguments": map[string]interface{}{},
	})

	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
}

// createTestPDF writes a PDF with one bookmark per page to dir.
func createTestPDF(t *testing.T, dir, filename string, numPages int) string {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= numPages; i++ {
		pdf.AddPage()
		pdf.Bookmark(fmt.Sprintf("Page %d", i), 0, 0)
		pdf.Text(20, 30, fmt.Sprintf("Page %d of %d", i, numPages))
	}
	path := filepath.Join(dir, filename)
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("creating test PDF: %v", err)
	}
	return path
}

// toolResult decodes the result of a tools/call response.
func toolResult(t *testing.T, resp jsonrpcResponse) ToolResult {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	resultBytes, _ := json.Marshal(resp.Result)
	var result ToolResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("decoding tool result %s: %v", resultBytes, err)
	}
	return result
}

func TestServerMergeTool(t *testing.T) {
	dir := t.TempDir()
	a := createTestPDF(t, dir, "a.pdf", 2)
	b := createTestPDF(t, dir, "b.pdf", 3)
	output := filepath.Join(dir, "merged.pdf")

	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	resp := sendRequest(t, s, "tools/call", 7, map[string]interface{}{
		"name": "merge_pdfs",
		"arguments": map[string]interface{}{
			"sources": []interface{}{
				a,
				map[string]interface{}{"path": b, "firstPage": 3, "lastPage": 2, "rotation": 90},
				filepath.Join(dir, "missing.pdf"),
			},
			"outputPath": output,
			"compress":   true,
		},
	})

	result := toolResult(t, resp)
	if result.IsError {
		t.Fatalf("tool failed: %+v", result)
	}
	text := result.Content[0].Text
	if !strings.Contains(text, "Merged 4 pages with 4 outline entries") {
		t.Errorf("unexpected result: %s", text)
	}
	if !strings.Contains(text, "missing.pdf") {
		t.Errorf("skipped source not reported: %s", text)
	}

	doc, err := reader.Open(output)
	if err != nil {
		t.Fatalf("reading merged PDF: %v", err)
	}
	if doc.NumPages() != 4 {
		t.Errorf("expected 4 pages, got %d", doc.NumPages())
	}
}

func TestServerMergeToolAllSkipped(t *testing.T) {
	dir := t.TempDir()
	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	resp := sendRequest(t, s, "tools/call", 8, map[string]interface{}{
		"name": "merge_pdfs",
		"arguments": map[string]interface{}{
			"sources":    []interface{}{filepath.Join(dir, "missing.pdf")},
			"outputPath": filepath.Join(dir, "out.pdf"),
		},
	})

	result := toolResult(t, resp)
	if !result.IsError {
		t.Fatalf("expected a tool error, got %+v", result)
	}
	if !strings.Contains(result.Content[0].Text, "(output_empty)") || !strings.Contains(result.Content[0].Text, "no pages") {
		t.Errorf("unexpected error text: %s", result.Content[0].Text)
	}
}

func TestServerPreviewTool(t *testing.T) {
	dir := t.TempDir()
	a := createTestPDF(t, dir, "a.pdf", 2)

	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	resp := sendRequest(t, s, "tools/call", 9, map[string]interface{}{
		"name": "preview_merge",
		"arguments": map[string]interface{}{
			"sources": []interface{}{a + ":2-1", a + ":1"},
		},
	})

	result := toolResult(t, resp)
	if len(result.Content) != 2 {
		t.Fatalf("expected text and data blocks, got %+v", result.Content)
	}
	data, err := base64.StdEncoding.DecodeString(result.Content[1].Data)
	if err != nil {
		t.Fatalf("decoding preview: %v", err)
	}
	doc, err := reader.Parse(data)
	if err != nil {
		t.Fatalf("reading preview: %v", err)
	}
	if doc.NumPages() != 3 {
		t.Errorf("expected 3 pages, got %d", doc.NumPages())
	}
	items, err := doc.Outline()
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("preview carries an outline: %+v", items)
	}
}

func TestServerInfoAndOutlineTools(t *testing.T) {
	a := createTestPDF(t, t.TempDir(), "a.pdf", 3)

	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	info := toolResult(t, sendRequest(t, s, "tools/call", 10, map[string]interface{}{
		"name":      "pdf_info",
		"arguments": map[string]interface{}{"path": a},
	}))
	var infoOut map[string]interface{}
	if err := json.Unmarshal([]byte(info.Content[0].Text), &infoOut); err != nil {
		t.Fatalf("decoding info: %v", err)
	}
	if infoOut["numPages"] != float64(3) || infoOut["outlineEntries"] != float64(3) {
		t.Errorf("unexpected info: %v", infoOut)
	}
	if infoOut["encrypted"] != false {
		t.Errorf("encrypted = %v, want false", infoOut["encrypted"])
	}

	outline := toolResult(t, sendRequest(t, s, "tools/call", 11, map[string]interface{}{
		"name":      "read_outline",
		"arguments": map[string]interface{}{"path": a},
	}))
	if !strings.Contains(outline.Content[0].Text, `"title": "Page 3"`) {
		t.Errorf("unexpected outline: %s", outline.Content[0].Text)
	}
}

func TestServerReadResource(t *testing.T) {
	a := createTestPDF(t, t.TempDir(), "a.pdf", 2)

	s := NewServerWithIO(nil, nil)
	RegisterDefaultResources(s)

	for _, name := range []string{"metadata", "pages", "outline"} {
		resp := sendRequest(t, s, "resources/read", 12, map[string]interface{}{
			"uri": "pdf://" + name + "?path=" + url.QueryEscape(a),
		})
		if resp.Error != nil {
			t.Errorf("%s: unexpected error: %v", name, resp.Error.Message)
			continue
		}
		resultBytes, _ := json.Marshal(resp.Result)
		if !strings.Contains(string(resultBytes), "application/json") {
			t.Errorf("%s: unexpected result: %s", name, resultBytes)
		}
	}

	resp := sendRequest(t, s, "resources/read", 13, map[string]interface{}{"uri": "pdf://pages"})
	if resp.Error == nil {
		t.Error("expected error for a resource without a path")
	}
}

func TestServerMultipleRequests(t *testing.T) {
	// Test that the server can handle multiple requests in sequence
	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	}

	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer

	s := NewServerWithIO(strings.NewReader(input), &output)
	RegisterDefaultTools(s)
	RegisterDefaultResources(s)

	s.Run()

	// Each line should be a valid JSON response
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 responses, got %d: %s", len(lines), output.String())
	}

	for i, line := range lines {
		var resp jsonrpcResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response %d: unmarshal error: %v\nline: %s", i, err, line)
		}
		if resp.Error != nil {
			t.Errorf("response %d: unexpected error: %s", i, resp.Error.Message)
		}
	}
}

func TestToolAddTool(t *testing.T) {
	s := NewServerWithIO(nil, nil)

	customTool := Tool{
		Name:        "custom_tool",
		Description: "A custom test tool",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			return ToolResult{
				Content: []ContentBlock{{Type: "text", Text: "custom result"}},
			}, nil
		},
	}

	s.AddTool(customTool)

	resp := sendRequest(t, s, "tools/call", 1, map[string]interface{}{
		"name":      "custom_tool",
		"arguments": map[string]interface{}{},
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}

	resultBytes, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(resultBytes), "custom result") {
		t.Fatalf("unexpected result: %s", string(resultBytes))
	}
}

func TestServerRejectsInvalidSelections(t *testing.T) {
	dir := t.TempDir()
	a := createTestPDF(t, dir, "a.pdf", 3)
	output := filepath.Join(dir, "out.pdf")

	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	tests := []struct {
		name   string
		source interface{}
	}{
		{"fractional rotation", map[string]interface{}{"path": a, "rotation": 90.5}},
		{"fractional first page", map[string]interface{}{"path": a, "firstPage": 2.7}},
		{"fractional last page", map[string]interface{}{"path": a, "lastPage": 1.5}},
		{"full turn", map[string]interface{}{"path": a, "rotation": 360}},
		{"odd angle", map[string]interface{}{"path": a, "rotation": 45}},
		{"page zero", map[string]interface{}{"path": a, "firstPage": 0}},
		{"string page", map[string]interface{}{"path": a, "firstPage": "2"}},
		{"no path", map[string]interface{}{"firstPage": 1}},
		{"selection string", a + ":1:45"},
		{"number", 7},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := sendRequest(t, s, "tools/call", 100+i, map[string]interface{}{
				"name": "merge_pdfs",
				"arguments": map[string]interface{}{
					"sources":    []interface{}{tt.source},
					"outputPath": output,
				},
			})
			if resp.Error == nil || resp.Error.Code != codeInvalidParams {
				t.Fatalf("response = %+v, want an Invalid params error", resp)
			}
		})
	}

	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("output written for rejected arguments")
	}
}

func TestServerMissingArguments(t *testing.T) {
	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	for i, name := range []string{"merge_pdfs", "preview_merge", "pdf_info", "read_outline"} {
		resp := sendRequest(t, s, "tools/call", 200+i, map[string]interface{}{"name": name})
		if resp.Error == nil || resp.Error.Code != codeInvalidParams {
			t.Errorf("%s without arguments: %+v, want an Invalid params error", name, resp)
		}
	}
}

func TestServerIntegralFloatsAccepted(t *testing.T) {
	dir := t.TempDir()
	a := createTestPDF(t, dir, "a.pdf", 3)

	s := NewServerWithIO(nil, nil)
	RegisterDefaultTools(s)

	// JSON numbers decode as float64; whole values are fine
	result := toolResult(t, sendRequest(t, s, "tools/call", 300, map[string]interface{}{
		"name": "preview_merge",
		"arguments": map[string]interface{}{
			"sources": []interface{}{
				map[string]interface{}{"path": a, "firstPage": 3.0, "lastPage": 2.0, "rotation": -90.0},
			},
		},
	}))
	if result.IsError || !strings.Contains(result.Content[0].Text, "Preview of 2 pages") {
		t.Errorf("unexpected result: %+v", result.Content[0])
	}
}

func TestServerNotifications(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"notifications/progress","params":{"progress":1}}`,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
	}
	var output bytes.Buffer
	s := NewServerWithIO(strings.NewReader(strings.Join(requests, "\n")+"\n"), &output)
	if err := s.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the ping response, got %d: %s", len(lines), output.String())
	}
	var resp jsonrpcResponse
	if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil || resp.Error != nil {
		t.Errorf("ping response %s: %v", lines[0], err)
	}
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{pdfmerge.NewError("Save", "out.pdf", pdfmerge.ErrOutputEmpty), "output_empty"},
		{fmt.Errorf("saving: %w", pdfmerge.ErrSaveFailure), "save_failure"},
		{pdfmerge.NewError("Open", "a.pdf", pdfmerge.ErrEncrypted), "encrypted"},
		{pdfmerge.ErrUnsupportedFormat, "unsupported_format"},
		{pdfmerge.ErrUnreadable, "unreadable"},
		{errors.New("disk on fire"), "internal"},
	}
	for _, tt := range tests {
		if got := failureKind(tt.err); got != tt.want {
			t.Errorf("failureKind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

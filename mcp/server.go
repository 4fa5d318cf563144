// Package mcp serves pdfmerge to Model Context Protocol clients over
// stdio, using newline delimited JSON-RPC 2.0 (protocol revision
// 2024-11-05).
//
// RegisterDefaultTools installs four tools. merge_pdfs merges selections
// into a file with a combined outline, preview_merge returns the merged
// pages without outline or links as base64, and pdf_info and
// read_outline describe a single source. RegisterDefaultResources
// exposes the same descriptions as pdf:// resources taking a path query
// parameter.
//
// Arguments that fail validation, such as a fractional page number or a
// rotation of 45 degrees, are answered with a JSON-RPC "Invalid params"
// error. Failures while merging or saving come back as tool results
// flagged isError, tagged with the kind of failure, so a client can tell
// an empty merge from a write error.
//
// The server is started with "pdfmerge mcp":
//
//	{
//	  "mcpServers": {
//	    "pdfmerge": {
//	      "command": "pdfmerge",
//	      "args": ["mcp"]
//	    }
//	  }
//	}
package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lvillar/pdfmerge"
)

// Server is an MCP server that handles JSON-RPC 2.0 messages over stdio.
type Server struct {
	tools     map[string]Tool
	resources map[string]Resource
	input     io.Reader
	output    io.Writer
	cfg       pdfmerge.Config
	log       *slog.Logger
	mu        sync.Mutex
}

// Tool defines an MCP tool that can be called by the client.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Handler     ToolHandler            `json:"-"`
}

// ToolHandler is a function that executes a tool with the given arguments.
type ToolHandler func(args map[string]interface{}) (ToolResult, error)

// ToolResult is the result returned by a tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"`               // "text" or "resource"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for binary
}

// Resource defines an MCP resource. Reads match on URI with any query
// string removed.
type Resource struct {
	URI         string          `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceHandler reads a resource and returns its content.
type ResourceHandler func(uri string) ([]ResourceContent, error)

// ResourceContent is the content of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// JSON-RPC types
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  interface{}      `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewServer creates a new MCP server reading from stdin and writing to stdout.
// The options configure the merges and conversions its tools run.
func NewServer(opts ...pdfmerge.Option) *Server {
	return NewServerWithIO(os.Stdin, os.Stdout, opts...)
}

// NewServerWithIO creates a new MCP server with custom I/O for testing.
func NewServerWithIO(in io.Reader, out io.Writer, opts ...pdfmerge.Option) *Server {
	cfg := pdfmerge.NewConfig(opts...)
	return &Server{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     in,
		output:    out,
		cfg:       cfg,
		log:       cfg.Logger,
	}
}

// Config returns the configuration the server's tools run with.
func (s *Server) Config() pdfmerge.Config {
	return s.cfg
}

// AddTool registers a tool with the server, replacing any tool of the
// same name.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers a resource with the server.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URI] = r
}

// instructions is sent to clients on initialize.
const instructions = "Sources are selections of the form path[:range[:rotation]]: " +
	"\"report.pdf:3-1:90\" takes pages 3 down to 1 turned right. " +
	"Call preview_merge to check page order before merge_pdfs writes a file. " +
	"Unreadable or encrypted sources are skipped and listed in the result."

// Run processes messages until EOF. Requests without an id are
// notifications and get no response.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.input)
	// Preview results carry whole PDFs, requests do not
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("malformed request", "error", err)
			s.sendError(nil, codeParseError, "Parse error", err.Error())
			continue
		}
		s.log.Debug("request", "method", req.Method)

		s.handleRequest(req)
	}

	return scanner.Err()
}

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

func (s *Server) handleRequest(req jsonrpcRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized", "notifications/cancelled":
	case "ping":
		s.sendResult(req.ID, map[string]interface{}{})
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(req)
	case "resources/list":
		s.handleResourcesList(req)
	case "resources/read":
		s.handleResourcesRead(req)
	default:
		if req.ID == nil {
			s.log.Debug("ignoring notification", "method", req.Method)
			return
		}
		s.sendError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req jsonrpcRequest) {
	s.sendResult(req.ID, map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "pdfmerge-mcp",
			"version": "1.0.0",
		},
		"instructions": instructions,
	})
}

// handleToolsList lists tools by name.
func (s *Server) handleToolsList(req jsonrpcRequest) {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		t := s.tools[name]
		tools = append(tools, map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}
	s.sendResult(req.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) handleToolsCall(req jsonrpcRequest) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	tool, ok := s.tools[params.Name]
	if !ok {
		s.sendError(req.ID, codeInvalidParams, "Unknown tool", params.Name)
		return
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	start := time.Now()
	result, err := tool.Handler(params.Arguments)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		s.log.Info("tool done", "tool", params.Name, "elapsed", elapsed)
		s.sendResult(req.ID, result)
	case errors.Is(err, pdfmerge.ErrInvalidParam) && !errors.Is(err, pdfmerge.ErrOutputEmpty):
		// An empty merge carries its skip causes, which are not argument errors
		s.log.Warn("invalid tool arguments", "tool", params.Name, "error", err)
		s.sendError(req.ID, codeInvalidParams, "Invalid params", map[string]interface{}{
			"tool":  params.Name,
			"error": err.Error(),
		})
	default:
		kind := failureKind(err)
		s.log.Warn("tool failed", "tool", params.Name, "kind", kind, "elapsed", elapsed, "error", err)
		s.sendResult(req.ID, ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error (%s): %v", kind, err)}},
			IsError: true,
		})
	}
}

// failureKind names the class of a merge or save failure.
func failureKind(err error) string {
	switch {
	case errors.Is(err, pdfmerge.ErrOutputEmpty):
		return "output_empty"
	case errors.Is(err, pdfmerge.ErrSaveFailure):
		return "save_failure"
	case errors.Is(err, pdfmerge.ErrEncrypted):
		return "encrypted"
	case errors.Is(err, pdfmerge.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, pdfmerge.ErrUnreadable):
		return "unreadable"
	default:
		return "internal"
	}
}

// handleResourcesList lists resources by URI.
func (s *Server) handleResourcesList(req jsonrpcRequest) {
	uris := make([]string, 0, len(s.resources))
	for uri := range s.resources {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	resources := make([]map[string]interface{}, 0, len(uris))
	for _, uri := range uris {
		r := s.resources[uri]
		res := map[string]interface{}{
			"uri":  r.URI,
			"name": r.Name,
		}
		if r.Description != "" {
			res["description"] = r.Description
		}
		if r.MIMEType != "" {
			res["mimeType"] = r.MIMEType
		}
		resources = append(resources, res)
	}
	s.sendResult(req.ID, map[string]interface{}{"resources": resources})
}

func (s *Server) handleResourcesRead(req jsonrpcRequest) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	base, _, _ := strings.Cut(params.URI, "?")
	resource, ok := s.resources[base]
	if !ok {
		s.sendError(req.ID, codeInvalidParams, "Unknown resource", params.URI)
		return
	}

	contents, err := resource.Handler(params.URI)
	switch {
	case err == nil:
		s.sendResult(req.ID, map[string]interface{}{"contents": contents})
	case errors.Is(err, pdfmerge.ErrInvalidParam):
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
	default:
		s.sendError(req.ID, codeInternalError, "Resource error", map[string]interface{}{
			"kind":  failureKind(err),
			"error": err.Error(),
		})
	}
}

func (s *Server) sendResult(id *json.RawMessage, result interface{}) {
	s.send(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id *json.RawMessage, code int, message string, data interface{}) {
	s.send(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &jsonrpcError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (s *Server) send(resp jsonrpcResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encoding response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := s.output.Write(data); err != nil {
		s.log.Error("writing response", "error", err)
	}
}

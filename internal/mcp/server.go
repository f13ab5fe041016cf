package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// maxMessageSize bounds one newline-delimited message on stdio and one HTTP
// request body.
const maxMessageSize = 1024 * 1024

// ToolHandler handles a tool call. A returned error is reported to the
// client as a tool error result, not as a JSON-RPC error.
type ToolHandler func(ctx context.Context, args json.RawMessage) (*ToolCallResult, error)

// ErrorFormatter turns a tool error into the text shown to the client.
type ErrorFormatter func(error) string

// Server is an MCP server. It can serve stdio and HTTP at the same time.
type Server struct {
	info         implementation
	instructions string
	logger       *slog.Logger
	formatError  ErrorFormatter

	mu       sync.RWMutex
	tools    map[string]Tool
	handlers map[string]ToolHandler

	writeMu sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithInstructions sets the server instructions sent during initialization.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) { s.instructions = instructions }
}

// WithLogger sets the server logger. It must not write to the stdio stream.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithErrorFormatter sets how tool errors are rendered for clients.
func WithErrorFormatter(f ErrorFormatter) ServerOption {
	return func(s *Server) {
		if f != nil {
			s.formatError = f
		}
	}
}

// NewServer creates a new MCP server.
func NewServer(name, version string, opts ...ServerOption) *Server {
	s := &Server{
		info:        implementation{Name: name, Version: version},
		logger:      slog.Default(),
		formatError: func(err error) string { return err.Error() },
		tools:       make(map[string]Tool),
		handlers:    make(map[string]ToolHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterTool registers a tool with its handler.
func (s *Server) RegisterTool(tool Tool, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[tool.Name] = tool
	s.handlers[tool.Name] = handler
	s.logger.Debug("registered tool", "name", tool.Name)
}

// Serve reads newline-delimited JSON-RPC messages from in and writes
// responses to out until in is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if resp := s.handleMessage(ctx, line); resp != nil {
			s.write(out, resp)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// ServeHTTP handles one JSON-RPC message per POST. Notifications get
// 202 Accepted with no body.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}

	resp := s.handleMessage(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

// handleMessage processes one message. It returns nil for notifications.
func (s *Server) handleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(nil, rpcError(ErrCodeParseError, err.Error()))
	}
	if req.JSONRPC != jsonrpcVersion {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, rpcError(ErrCodeInvalidRequest, `jsonrpc must be "2.0"`))
	}

	if req.isNotification() {
		s.handleNotification(&req)
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method)

	var result any
	var rpcErr *RPCError

	switch req.Method {
	case "initialize":
		result, rpcErr = s.handleInitialize(req.Params)
	case "tools/list":
		result = s.handleToolsList()
	case "tools/call":
		result, rpcErr = s.handleToolsCall(ctx, req.Params)
	case "ping":
		result = struct{}{}
	default:
		rpcErr = rpcError(ErrCodeMethodNotFound, req.Method)
	}

	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}
	return resultResponse(req.ID, result)
}

func (s *Server) handleNotification(req *Request) {
	switch req.Method {
	case "notifications/initialized":
		s.logger.Debug("client initialized")
	default:
		// Unknown notifications are ignored.
		s.logger.Debug("notification ignored", "method", req.Method)
	}
}

func (s *Server) handleInitialize(params json.RawMessage) (any, *RPCError) {
	var p initializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, rpcError(ErrCodeInvalidParams, err.Error())
		}
	}

	s.logger.Info("mcp client connected",
		"client", p.ClientInfo.Name,
		"client_protocol", p.ProtocolVersion,
	)

	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}, nil
}

// handleToolsList returns the registered tools sorted by name.
func (s *Server) handleToolsList() toolsListResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]Tool, 0, len(s.tools))
	for _, tool := range s.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	return toolsListResult{Tools: tools}
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p toolCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpcError(ErrCodeInvalidParams, err.Error())
	}

	s.mu.RLock()
	handler, ok := s.handlers[p.Name]
	s.mu.RUnlock()

	if !ok {
		return nil, rpcError(ErrCodeToolNotFound, p.Name)
	}

	start := time.Now()
	result, err := handler(ctx, p.Arguments)
	if err != nil {
		s.logger.Warn("tool failed",
			"tool", p.Name,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return toolError(s.formatError(err)), nil
	}

	s.logger.Debug("tool called", "tool", p.Name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// write sends one newline-terminated response.
func (s *Server) write(out io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := out.Write(data); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

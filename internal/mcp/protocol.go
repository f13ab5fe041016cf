// Package mcp exposes the registry read operations as Model Context Protocol
// tools.
//
// The transport is JSON-RPC 2.0, either newline-delimited over stdio or one
// request per HTTP POST. Only the tools capability is implemented.
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ProtocolVersion is the MCP revision the server negotiates.
const ProtocolVersion = "2024-11-05"

const jsonrpcVersion = "2.0"

// JSON-RPC error codes returned by the server.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeToolNotFound   = -32001
)

var errorMessages = map[int]string{
	ErrCodeParseError:     "Parse error",
	ErrCodeInvalidRequest: "Invalid Request",
	ErrCodeMethodNotFound: "Method not found",
	ErrCodeInvalidParams:  "Invalid params",
	ErrCodeToolNotFound:   "Unknown tool",
}

// Request is a JSON-RPC request. A missing or null ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *Request) isNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response carries either Result or Error for the request with the same ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a protocol-level failure. Tool failures are reported in a
// ToolCallResult instead.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func rpcError(code int, data any) *RPCError {
	return &RPCError{Code: code, Message: errorMessages[code], Data: data}
}

func resultResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, err *RPCError) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Error: err}
}

type implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      implementation `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    capabilities   `json:"capabilities"`
	ServerInfo      implementation `json:"serverInfo"`
	Instructions    string         `json:"instructions,omitempty"`
}

// capabilities advertises tools only; the registry has no prompts or
// resources.
type capabilities struct {
	Tools struct{} `json:"tools"`
}

// Tool describes one callable registry operation.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolCallResult is the outcome of tools/call. Content always holds the
// result as JSON text for clients that ignore StructuredContent.
type ToolCallResult struct {
	Content           []content `json:"content"`
	IsError           bool      `json:"isError,omitempty"`
	StructuredContent any       `json:"structuredContent,omitempty"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func toolError(text string) *ToolCallResult {
	return &ToolCallResult{
		Content: []content{{Type: "text", Text: text}},
		IsError: true,
	}
}

// StructuredResult returns v both as JSON text and as structured content.
func StructuredResult(v any) (*ToolCallResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &ToolCallResult{
		Content:           []content{{Type: "text", Text: string(data)}},
		StructuredContent: v,
	}, nil
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/JonMunkholm/regsync/internal/core"
)

// Tool names.
const (
	ToolSearchRegistrations = "search_registrations"
	ToolGetRegistration     = "get_registration"
	ToolGetStats            = "get_stats"
	ToolListVersions        = "list_versions"
)

const instructions = "Read-only access to the data protection public register. " +
	"Use search_registrations to find organisations by name or postcode, " +
	"get_registration for one entry, get_stats for the current data version."

type getRegistrationArgs struct {
	RegistrationNumber string `json:"registration_number" jsonschema:"description=Registration number, e.g. Z1234567"`
}

type noArgs struct{}

type searchResult struct {
	Registrations []core.Registration `json:"registrations"`
	Count         int                 `json:"count"`
}

type versionsResult struct {
	Versions []core.DataVersion `json:"versions"`
}

// schemaFor reflects an inline JSON schema for an argument struct.
func schemaFor(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	s := r.Reflect(v)
	s.Version = ""
	return s
}

// NewRegistryServer returns an MCP server exposing reader's operations.
// Tool errors are rendered with core.FormatUserError.
func NewRegistryServer(reader core.Reader, version string, opts ...ServerOption) *Server {
	opts = append([]ServerOption{
		WithInstructions(instructions),
		WithErrorFormatter(core.FormatUserError),
	}, opts...)
	s := NewServer("regsync", version, opts...)

	s.RegisterTool(Tool{
		Name:        ToolSearchRegistrations,
		Description: "Search registrations. Name and postcode match case-insensitive substrings; other fields match exactly. Results are ordered by organisation name.",
		InputSchema: schemaFor(&core.SearchFilter{}),
	}, func(ctx context.Context, args json.RawMessage) (*ToolCallResult, error) {
		var filter core.SearchFilter
		if err := decodeArgs(args, &filter); err != nil {
			return nil, err
		}
		regs, err := reader.Search(ctx, filter)
		if err != nil {
			return nil, err
		}
		return StructuredResult(searchResult{Registrations: regs, Count: len(regs)})
	})

	s.RegisterTool(Tool{
		Name:        ToolGetRegistration,
		Description: "Get one registration by its registration number.",
		InputSchema: schemaFor(&getRegistrationArgs{}),
	}, func(ctx context.Context, args json.RawMessage) (*ToolCallResult, error) {
		var a getRegistrationArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		reg, err := reader.GetByKey(ctx, a.RegistrationNumber)
		if err != nil {
			return nil, err
		}
		return StructuredResult(reg)
	})

	s.RegisterTool(Tool{
		Name:        ToolGetStats,
		Description: "Get the number of stored registrations and the active data version.",
		InputSchema: schemaFor(&noArgs{}),
	}, func(ctx context.Context, _ json.RawMessage) (*ToolCallResult, error) {
		stats, err := reader.GetStats(ctx)
		if err != nil {
			return nil, err
		}
		return StructuredResult(stats)
	})

	s.RegisterTool(Tool{
		Name:        ToolListVersions,
		Description: "List every imported data version, newest first.",
		InputSchema: schemaFor(&noArgs{}),
	}, func(ctx context.Context, _ json.RawMessage) (*ToolCallResult, error) {
		versions, err := reader.ListVersions(ctx)
		if err != nil {
			return nil, err
		}
		return StructuredResult(versionsResult{Versions: versions})
	})

	return s
}

// decodeArgs unmarshals tool arguments; absent arguments leave v zero.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &core.QueryError{Field: "arguments", Reason: fmt.Sprintf("are not valid: %v", err)}
	}
	return nil
}

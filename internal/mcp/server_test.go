package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/regsync/internal/core"
	"github.com/JonMunkholm/regsync/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer() (*Server, *testutil.FakeReader) {
	reader := &testutil.FakeReader{
		Regs: []core.Registration{
			{RegistrationNumber: "Z2", OrganisationName: "Beta Ltd", Postcode: "AB1 2CD", Tier: "Tier 1"},
			{RegistrationNumber: "Z1", OrganisationName: "Acme Ltd", Postcode: "XY9 8ZZ", Tier: "Tier 2"},
		},
		Versions: []core.DataVersion{
			{ID: 2, Hash: "bbb", RecordCount: 2, Status: core.VersionActive},
			{ID: 1, Hash: "aaa", RecordCount: 5, Status: core.VersionArchived},
		},
	}
	return NewRegistryServer(reader, "test", WithLogger(quietLogger())), reader
}

// roundTrip serves the given lines over the stdio transport and returns
// the decoded responses.
func roundTrip(t *testing.T, s *Server, lines ...string) []Response {
	t.Helper()
	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	require.NoError(t, err)

	var responses []Response
	dec := json.NewDecoder(&out)
	for dec.More() {
		var r Response
		require.NoError(t, dec.Decode(&r))
		responses = append(responses, r)
	}
	return responses
}

func resultMap(t *testing.T, r Response) map[string]any {
	t.Helper()
	require.Nil(t, r.Error, "unexpected RPC error")
	m, ok := r.Result.(map[string]any)
	require.True(t, ok, "result is %T", r.Result)
	return m
}

func TestServe_InitializeAndList(t *testing.T) {
	s, _ := newTestServer()

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	require.Len(t, responses, 3, "notifications get no response")

	init := resultMap(t, responses[0])
	assert.Equal(t, ProtocolVersion, init["protocolVersion"])
	assert.Equal(t, "regsync", init["serverInfo"].(map[string]any)["name"])
	assert.Contains(t, init["capabilities"].(map[string]any), "tools")

	tools := resultMap(t, responses[1])["tools"].([]any)
	var names []string
	for _, tool := range tools {
		tm := tool.(map[string]any)
		names = append(names, tm["name"].(string))
		assert.Equal(t, "object", tm["inputSchema"].(map[string]any)["type"])
	}
	assert.Equal(t, []string{ToolGetRegistration, ToolGetStats, ToolListVersions, ToolSearchRegistrations}, names)

	assert.Equal(t, json.RawMessage("3"), responses[2].ID)
}

func TestToolSchemas(t *testing.T) {
	s, _ := newTestServer()
	tools := s.handleToolsList().Tools

	byName := map[string]Tool{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}

	get := byName[ToolGetRegistration].InputSchema
	assert.Equal(t, []string{"registration_number"}, get.Required)

	search := byName[ToolSearchRegistrations].InputSchema
	assert.Empty(t, search.Required, "every search field is optional")
	_, ok := search.Properties.Get("name")
	assert.True(t, ok, "search schema exposes name")
}

func TestServe_ToolsCall(t *testing.T) {
	s, _ := newTestServer()

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_registrations","arguments":{"name":"LTD"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_registration","arguments":{"registration_number":"Z1"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_stats"}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"list_versions","arguments":{}}}`,
	)
	require.Len(t, responses, 4)

	search := resultMap(t, responses[0])
	assert.Nil(t, search["isError"])
	structured := search["structuredContent"].(map[string]any)
	assert.Equal(t, float64(2), structured["count"])
	first := structured["registrations"].([]any)[0].(map[string]any)
	assert.Equal(t, "Acme Ltd", first["organisation_name"], "ordered by name")

	get := resultMap(t, responses[1])["structuredContent"].(map[string]any)
	assert.Equal(t, "Z1", get["registration_number"])

	stats := resultMap(t, responses[2])["structuredContent"].(map[string]any)
	assert.Equal(t, float64(2), stats["record_count"])
	assert.Equal(t, float64(2), stats["active_version"].(map[string]any)["id"])

	versions := resultMap(t, responses[3])["structuredContent"].(map[string]any)["versions"].([]any)
	assert.Len(t, versions, 2)
}

func TestServe_ToolErrors(t *testing.T) {
	s, _ := newTestServer()

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_registration","arguments":{"registration_number":"Z404"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"search_registrations","arguments":{"limit":-1}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"search_registrations","arguments":"oops"}}`,
	)
	require.Len(t, responses, 3)

	for i, want := range []string{"QRY002", "QRY001", "QRY001"} {
		res := resultMap(t, responses[i])
		assert.Equal(t, true, res["isError"], "response %d", i)
		text := res["content"].([]any)[0].(map[string]any)["text"].(string)
		assert.Contains(t, text, want, "response %d", i)
	}
}

func TestServe_StoreNotInitialized(t *testing.T) {
	s, reader := newTestServer()
	reader.Err = core.ErrStoreNotInitialized

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_stats"}}`,
	)
	res := resultMap(t, responses[0])
	assert.Equal(t, true, res["isError"])
	text := res["content"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "STORE001")
}

func TestServe_ProtocolErrors(t *testing.T) {
	s, _ := newTestServer()

	responses := roundTrip(t, s,
		`not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"drop_tables"}}`,
		`{"jsonrpc":"1.0","id":3,"method":"ping"}`,
	)
	require.Len(t, responses, 4)

	assert.Equal(t, ErrCodeParseError, responses[0].Error.Code)
	assert.Equal(t, ErrCodeMethodNotFound, responses[1].Error.Code)
	assert.Equal(t, ErrCodeToolNotFound, responses[2].Error.Code)
	assert.Equal(t, "Unknown tool", responses[2].Error.Message)
	assert.Equal(t, "drop_tables", responses[2].Error.Data)
	assert.Equal(t, ErrCodeInvalidRequest, responses[3].Error.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"+`{"jsonrpc":"2.0","id":2,"method":"ping"}`+"\n"), &out)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, strings.Count(out.String(), "\n"), "stops after the first message")
}

func TestServeHTTP(t *testing.T) {
	s, _ := newTestServer()

	t.Run("request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rpc",
			strings.NewReader(`{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"get_stats"}}`))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, json.RawMessage(`"a"`), resp.ID)
		assert.Nil(t, resp.Error)
	})

	t.Run("notification", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rpc",
			strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rpc", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

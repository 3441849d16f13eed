package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/prdinsights/internal/mcp"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	err    error
}

func (h *testHandler) Handle(_ context.Context, tenantID, method string, params json.RawMessage) (any, error) {
	h.method = method
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"tenant": tenantID}, nil
}

type staticResolver struct {
	tenant string
}

func (r *staticResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if token != "token" {
		return "", ErrUnauthorized
	}
	return r.tenant, nil
}

func postRPC(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) Response {
	t.Helper()
	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, Options{Auth: AuthMiddleware(&staticResolver{tenant: "tenant1"})}))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"list_projects","id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "list_projects", handler.method)

	out := decodeResponse(t, resp)
	require.Nil(t, out.Error)
	require.Equal(t, map[string]any{"tenant": "tenant1"}, out.Result)
}

func TestHTTPServer_RPCUnauthorized(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{Auth: AuthMiddleware(&staticResolver{tenant: "tenant1"})}))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"list_projects","id":1}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postRPC(t, server.URL, "wrong", `{"jsonrpc":"2.0","method":"list_projects","id":1}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_RPCDefaultTenant(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	out := decodeResponse(t, postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"list_projects","id":1}`))
	require.Equal(t, map[string]any{"tenant": mcp.DefaultTenant}, out.Result)
}

func TestHTTPServer_RPCErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unknown method", fmt.Errorf("%w: nope", mcp.ErrUnknownMethod), ErrMethodNotFound},
		{"invalid params", &mcp.APIError{Code: "INVALID_PARAMS", Message: "name failed required"}, ErrInvalidParams},
		{"domain error", &mcp.APIError{Code: "RUN_NOT_FOUND", Message: "analysis run not found"}, ErrInternal},
		{"plain error", fmt.Errorf("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(NewServer(&testHandler{err: tt.err}, Options{}))
			t.Cleanup(server.Close)

			out := decodeResponse(t, postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"x","id":7}`))
			require.NotNil(t, out.Error)
			require.Equal(t, tt.code, out.Error.Code)
			require.EqualValues(t, 7, out.ID)
		})
	}
}

func TestHTTPServer_InvalidRequest(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	out := decodeResponse(t, postRPC(t, server.URL, "", `{"method":"x"}`))
	require.NotNil(t, out.Error)
	require.Equal(t, ErrInvalidReq, out.Error.Code)

	out = decodeResponse(t, postRPC(t, server.URL, "", `{not json`))
	require.NotNil(t, out.Error)
	require.Equal(t, ErrParseCode, out.Error.Code)
}

func TestHTTPServer_Notification(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, Options{}))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"list_projects"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "list_projects", handler.method)
}

func TestHTTPServer_EchoesStringID(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	out := decodeResponse(t, postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"list_projects","id":"req-7"}`))
	require.Equal(t, "req-7", out.ID)
}

func TestHTTPServer_HealthAndMetrics(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metrics, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	require.Equal(t, http.StatusOK, metrics.StatusCode)
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "go_goroutines")
}

func TestHTTPServer_MountsMCP(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	server := httptest.NewServer(NewServer(&testHandler{}, Options{MCP: mcpHandler}))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

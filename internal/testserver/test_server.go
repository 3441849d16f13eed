package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/prdinsights/internal/app"
	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/llm"
	"github.com/rpggio/prdinsights/internal/mcp"
	"github.com/rpggio/prdinsights/internal/sqlite"
	"github.com/rpggio/prdinsights/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Services *app.Services
	Token    string
	TenantID string
}

// New starts an HTTP server with auth enabled, backed by a fresh in-memory
// database. The workflow runs against model.
func New(t *testing.T, token, tenantID string, model llm.Model) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	cfg := config.Default()
	cfg.Transport.Mode = "http"
	cfg.Auth.Enabled = true

	services, err := app.NewServices(db, model, cfg, nil)
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services.MCP(),
		Resolver:      services.APIKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	handler := mcp.NewHandler(services.MCP())
	server := httptest.NewServer(transport.NewServer(handler, transport.Options{
		Auth: transport.AuthMiddleware(services.APIKeys),
		MCP:  streamable,
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Services: services,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.Services.APIKeys.Create(context.Background(), tenantID, token, "test")
}

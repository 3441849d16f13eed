package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpggio/prdinsights/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestAPIKeyCreate_TokenAuthenticatesTenant(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "prdinsights.db")
	t.Setenv("PRDINSIGHTS_DB_PATH", dbPath)

	token := strings.TrimSpace(runCLI(t, "apikey", "create", "--tenant", "acme", "--description", "ci"))
	require.NotEmpty(t, token)

	db, err := openDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	tenantID, err := sqlite.NewAPIKeyRepository(db).ResolveTenant(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "acme", tenantID)

	listing := runCLI(t, "apikey", "list", "--tenant", "acme")
	require.Contains(t, listing, "TENANT")
	require.Contains(t, listing, "acme")
	require.Contains(t, listing, "ci")
	require.NotContains(t, listing, token)
}

func TestAPIKeyCreate_RequiresTenant(t *testing.T) {
	t.Setenv("PRDINSIGHTS_DB_PATH", filepath.Join(t.TempDir(), "prdinsights.db"))

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"apikey", "create"})
	require.ErrorContains(t, cmd.Execute(), "tenant")
}

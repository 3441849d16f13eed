package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/sqlite"
	"github.com/spf13/cobra"
)

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the API keys that map bearer tokens to tenants",
	}

	var tenant, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue a new API key for a tenant and print its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return createAPIKey(cmd.Context(), cfg, tenant, description, cmd.OutOrStdout())
		},
	}
	create.Flags().StringVar(&tenant, "tenant", "", "Tenant (organization) the key authenticates as")
	create.Flags().StringVar(&description, "description", "", "Free-form note stored with the key")
	_ = create.MarkFlagRequired("tenant")

	var listTenant string
	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys; tokens are never shown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return listAPIKeys(cmd.Context(), cfg, listTenant, cmd.OutOrStdout())
		},
	}
	list.Flags().StringVar(&listTenant, "tenant", "", "Only list keys of this tenant")

	cmd.AddCommand(create, list)
	return cmd
}

func createAPIKey(ctx context.Context, cfg config.Config, tenant, description string, out io.Writer) error {
	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	token, err := sqlite.NewAPIKeyRepository(db).Issue(ctx, tenant, description)
	if err != nil {
		return fmt.Errorf("issue api key: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func listAPIKeys(ctx context.Context, cfg config.Config, tenant string, out io.Writer) error {
	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := sqlite.NewAPIKeyRepository(db).List(ctx, tenant)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTENANT\tCREATED\tLAST USED\tDESCRIPTION")
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsed != nil {
			lastUsed = k.LastUsed.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.TenantID, k.CreatedAt.Format(time.RFC3339), lastUsed, k.Description)
	}
	return tw.Flush()
}

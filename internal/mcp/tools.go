package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	ReadOnly    bool
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func pagingProps(props map[string]any) map[string]any {
	props["limit"] = map[string]any{"type": "integer", "minimum": 0, "description": "Maximum number of results"}
	props["offset"] = map[string]any{"type": "integer", "minimum": 0, "description": "Offset for pagination"}
	return props
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func insightFilterProps() map[string]any {
	return pagingProps(map[string]any{
		"project_id":  stringProp("Filter by project"),
		"release_id":  stringProp("Filter by release"),
		"document_id": stringProp("Filter by source document"),
		"run_id":      stringProp("Filter by the analysis run that produced the item"),
		"status":      stringProp("Filter by status (PROPOSED, APPROVED, REJECTED for insights; OPEN, RESOLVED for concerns)"),
	})
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Projects and releases
		{
			Name:        "create_project",
			Description: "Create a project to group the releases of one product",
			InputSchema: objectSchema(map[string]any{
				"name":        stringProp("Project name, unique within the organization"),
				"description": stringProp("Project description"),
			}, "name"),
		},
		{
			Name:        "list_projects",
			Description: "List all projects for the current organization",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "get_project",
			Description: "Get a project and its releases",
			InputSchema: objectSchema(map[string]any{
				"id": stringProp("Project ID"),
			}, "id"),
			ReadOnly: true,
		},
		{
			Name:        "create_release",
			Description: "Create a release of a project that documents are ingested into",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
				"label":      stringProp("Release label, unique within the project (e.g. v2.1)"),
				"status":     enumProp("Release status (default DRAFT)", "DRAFT", "IN_REVIEW", "APPROVED"),
			}, "project_id", "label"),
		},
		{
			Name:        "list_releases",
			Description: "List the releases of a project",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
			}, "project_id"),
			ReadOnly: true,
		},

		// Documents
		{
			Name:        "ingest_document",
			Description: "Store a requirements document and split it into chunks at markdown headings. Identical content in the same release returns the existing document",
			InputSchema: objectSchema(map[string]any{
				"project_id": stringProp("Project ID"),
				"release_id": stringProp("Release ID"),
				"name":       stringProp("Document name"),
				"type":       enumProp("Document type (default PRD)", "PRD", "ADR", "DB_SCHEMA", "API_SPEC", "OTHER"),
				"content":    stringProp("Full markdown text of the document"),
			}, "project_id", "release_id", "content"),
		},
		{
			Name:        "get_document",
			Description: "Get a document with its chunks",
			InputSchema: objectSchema(map[string]any{
				"id": stringProp("Document ID"),
			}, "id"),
			ReadOnly: true,
		},
		{
			Name:        "list_documents",
			Description: "List document summaries, optionally filtered by project and release",
			InputSchema: objectSchema(pagingProps(map[string]any{
				"project_id": stringProp("Filter by project"),
				"release_id": stringProp("Filter by release"),
			})),
			ReadOnly: true,
		},

		// Analysis
		{
			Name:        "generate_insights",
			Description: "Run insight extraction over a stored document: extract, reflect, validate each chunk, deduplicate and review. Results are stored as PROPOSED insights and OPEN concerns",
			InputSchema: objectSchema(map[string]any{
				"document_id": stringProp("Document ID"),
				"mode":        enumProp("Workflow shape (default from server config)", "document", "chunked"),
				"max_reflection_counter": map[string]any{
					"type":        "integer",
					"minimum":     0,
					"description": "Number of reflection rounds (default 2)",
				},
			}, "document_id"),
		},
		{
			Name:        "get_run",
			Description: "Get an analysis run with its status, counts and failed chunks",
			InputSchema: objectSchema(map[string]any{
				"id": stringProp("Run ID"),
			}, "id"),
			ReadOnly: true,
		},
		{
			Name:        "list_runs",
			Description: "List analysis runs, newest first",
			InputSchema: objectSchema(pagingProps(map[string]any{
				"project_id":  stringProp("Filter by project"),
				"release_id":  stringProp("Filter by release"),
				"document_id": stringProp("Filter by document"),
				"status":      enumProp("Filter by run status", "RUNNING", "COMPLETED", "FAILED"),
			})),
			ReadOnly: true,
		},

		// Insights and concerns
		{
			Name:        "list_insights",
			Description: "List stored product insights",
			InputSchema: objectSchema(insightFilterProps()),
			ReadOnly:    true,
		},
		{
			Name:        "list_concerns",
			Description: "List stored concerns",
			InputSchema: objectSchema(insightFilterProps()),
			ReadOnly:    true,
		},
		{
			Name:        "search_insights",
			Description: "Full-text search over insight titles and details, best matches first",
			InputSchema: func() map[string]any {
				props := insightFilterProps()
				props["query"] = stringProp("Search terms")
				return objectSchema(props, "query")
			}(),
			ReadOnly: true,
		},
		{
			Name:        "transition_insight",
			Description: "Approve, reject or reopen an insight",
			InputSchema: objectSchema(map[string]any{
				"id":        stringProp("Insight ID"),
				"to_status": enumProp("Target status", "PROPOSED", "APPROVED", "REJECTED"),
			}, "id", "to_status"),
		},
		{
			Name:        "transition_concern",
			Description: "Resolve or reopen a concern",
			InputSchema: objectSchema(map[string]any{
				"id":          stringProp("Concern ID"),
				"to_status":   enumProp("Target status", "OPEN", "RESOLVED"),
				"resolved_by": stringProp("Who resolved the concern (required for RESOLVED)"),
			}, "id", "to_status"),
		},
	}
}

// registerTools adds every catalog tool to server, dispatching through h.
func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, def := range buildToolCatalog() {
		tool := &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, toolHandler(h, def.Name))
	}
}

func toolHandler(h *Handler, name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		out, err := h.Handle(ctx, getTenantID(ctx), name, args)
		if err != nil {
			apiErr := MapError(err)
			if apiErr == nil {
				apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
			}
			return errorResult(apiErr), nil
		}

		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		}, nil
	}
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

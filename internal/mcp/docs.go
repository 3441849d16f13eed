package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `prdinsights turns product requirement documents into reviewed product insights and concerns.

Core concepts:
- Project: one product within your organization. Release: a labelled version of a project.
- Document: a PRD (or ADR, schema, API spec) ingested into a release and split into chunks at markdown headings.
- Insight: a feature or behavior the document describes (title, description, flow type, priority, confidence, acceptance criteria).
- Concern: a gap, ambiguity or conflict found in the document (type, severity, description, suggested fix).
- Run: one execution of the analysis workflow over a document.

Typical workflow:
1) create_project, then create_release.
2) ingest_document with the markdown content. Re-ingesting identical content returns the same document.
3) generate_insights(document_id). The run extracts items, reflects to fill gaps, validates every chunk, removes duplicates and reviews the result.
4) Review: list_insights / list_concerns / search_insights, then transition_insight (APPROVED or REJECTED) and transition_concern (RESOLVED with resolved_by).

A run whose chunk validations partly fail still completes; get_run lists the failed chunk indexes.

Docs:
- prdinsights://docs/index
- prdinsights://docs/workflow
- prdinsights://docs/review
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "prdinsights://docs/index",
		Name:        "docs_index",
		Title:       "prdinsights docs index",
		Description: "Entry point: what the server does and which doc to read next.",
		Content: `# prdinsights: Docs Index

- **workflow**: how generate_insights processes a document, and what each stage may change.
- **review**: statuses, transitions and how to search stored results.

## Tools at a glance

| Area | Tools |
|---|---|
| Projects | create_project, list_projects, get_project, create_release, list_releases |
| Documents | ingest_document, get_document, list_documents |
| Analysis | generate_insights, get_run, list_runs |
| Review | list_insights, list_concerns, search_insights, transition_insight, transition_concern |

Errors come back as tool results with isError set and a JSON body carrying code, message and recovery_hint.
`,
	},
	{
		URI:         "prdinsights://docs/workflow",
		Name:        "docs_workflow",
		Title:       "Analysis workflow",
		Description: "Stages of generate_insights, modes and failure behavior.",
		Content: `# Analysis workflow

## Stages (document mode)

1. **extract**: the model reads the whole document and adds insights and concerns.
2. **reflect**: the model sees what was found and may only add more. Runs max_reflection_counter times (default 2; 0 skips it).
3. **validate chunks**: each chunk is checked independently, in parallel. A chunk may add at most a few items (default 3 insights and 3 concerns).
4. **deduplicate**: the model may only delete items that duplicate others. Deletions are final.
5. **review**: the surviving items, in the order they were found, are stored as PROPOSED insights and OPEN concerns.

## Chunked mode

mode=chunked extracts from every chunk in parallel, then deduplicates, then reflects, then reviews.

## Failures

- A failing extraction, reflection or deduplication call fails the run (status FAILED, error recorded).
- A failing chunk validation only skips that chunk; its index is listed in failed_chunks.
- Model calls are retried with exponential backoff before they count as failed.
`,
	},
	{
		URI:         "prdinsights://docs/review",
		Name:        "docs_review",
		Title:       "Reviewing results",
		Description: "Insight and concern statuses and allowed transitions.",
		Content: `# Reviewing results

## Insights

PROPOSED -> APPROVED or REJECTED. APPROVED or REJECTED -> PROPOSED to reopen.

## Concerns

OPEN -> RESOLVED (resolved_by is required). RESOLVED -> OPEN clears resolved_by.

## Finding things

- list_insights / list_concerns filter by project, release, document, run and status.
- search_insights runs a full-text query over titles and details and returns a highlighted snippet per match.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

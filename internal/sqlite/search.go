package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/prdinsights/internal/domain/insight"
)

// SearchInsights performs a full-text search over insight titles and details.
// Each whitespace-separated term is matched as a quoted phrase.
func (r *InsightRepository) SearchInsights(ctx context.Context, tenantID, query string, opts insight.ListOptions) ([]insight.SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	baseQuery := `
		SELECT ` + insightColumns + `,
			bm25(product_insights_fts) as rank,
			snippet(product_insights_fts, 1, '[', ']', '...', 12) as snippet
		FROM product_insights_fts
		JOIN product_insights i ON i.rowid = product_insights_fts.rowid
		WHERE i.tenant_id = ? AND product_insights_fts MATCH ?
	`
	args := []any{tenantID, match}

	conditions, extra := filters("i", opts)
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
		args = append(args, extra...)
	}
	baseQuery += " ORDER BY rank"
	baseQuery, args = paginate(baseQuery, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search insights: %w", err)
	}
	defer rows.Close()

	var results []insight.SearchResult
	for rows.Next() {
		var result insight.SearchResult
		in, err := scanInsight(rows, &result.Rank, &result.Snippet)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		result.Insight = *in
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

func ftsQuery(raw string) string {
	fields := strings.Fields(raw)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}

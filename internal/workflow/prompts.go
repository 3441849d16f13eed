package workflow

import (
	"fmt"
	"strings"

	"github.com/rpggio/prdinsights/internal/domain/insight"
)

const completeExtractionSystem = `You extract structured product knowledge from a COMPLETE Product Requirement Document (PRD).

Produce two kinds of records:
1. Product insights: one atomic, user-observable behavior or flow each (add_product_insight).
2. Concerns: gaps, ambiguities, conflicts or unclear requirements (add_concern).

Read the whole document first and identify every behavior and every ambiguity before recording anything.
Extraction must be exhaustive. Do not stop after the first finding.
Emit one tool call per insight or concern, and emit all of them in a single response.`

const completeExtractionUser = `Below is the complete Product Requirement Document. It is the only document to analyze.

--- PRD ---
%s
--- END OF PRD ---

Record ALL product insights and ALL concerns now, in one response.`

const chunkExtractionSystem = `You extract structured product knowledge from ONE SECTION of a Product Requirement Document (PRD).

The section is a fragment of a larger document. Information missing from it is expected.

Record only:
1. Product insights explicitly described in this section (add_product_insight).
2. Concerns that arise directly from ambiguity or gaps within this section (add_concern).

Rules:
- Do not infer global behavior or treat the section as the whole product.
- Do not raise concerns about features this section does not reference.
- Emit one tool call per item, all in a single response.
- If nothing can be extracted, emit no tool calls.`

const chunkExtractionUser = `Below is a section of a Product Requirement Document.

--- PRD SECTION ---
%s
--- END OF SECTION ---

Record the insights and concerns of this section only.`

const reflectionSystem = `You complete a previous extraction of product insights and concerns from a Product Requirement Document (PRD).

You receive the complete PRD, the insights already extracted and the concerns already extracted.
Record ONLY what is missing from those lists.

Rules:
- Never restate, reword, merge or split an existing item.
- If an idea is already covered, skip it.
- Use add_product_insight for each new insight and add_concern for each new concern, one call per item.
- If nothing is missing, respond with no tool calls and no explanation.`

const reflectionUser = `--- PRD ---
%s
--- END OF PRD ---

--- EXISTING PRODUCT INSIGHTS ---
%s

--- EXISTING CONCERNS ---
%s

Record only the product insights and concerns that are missing.`

const validationSystem = `You review ONE SECTION of a Product Requirement Document (PRD) against the insights and concerns already extracted from the complete document.

Look for behaviors or ambiguities that are local to this section and missing from the existing lists.

Rules:
- Add at most 3 product insights and at most 3 concerns.
- Do not restate or reword existing items.
- Do not derive design principles, non-functional goals or other cross-cutting material from the section.
- If the section only holds design rationale, non-goals or implementation guidance, emit no tool calls.`

const validationUser = `--- COMPLETE PRD ---
%s
--- END OF PRD ---

--- SECTION UNDER REVIEW ---
%s
--- END OF SECTION ---

--- EXISTING PRODUCT INSIGHTS ---
%s

--- EXISTING CONCERNS ---
%s

Record only what this section adds.`

const dedupSystem = `You remove duplicate product insights and concerns extracted from a Product Requirement Document.

Each item is listed as "<id> - <description>".

Two items are duplicates only if they describe the same behavior or concern with the same scope and intent, and neither adds constraints or meaning. Different wording alone does not make items unique.

Items are NOT duplicates when one is more specific, adds constraints or edge cases, covers a subset of scenarios, or is global while the other is local. Keep both.

When items are duplicates keep the more precise one and delete the others:
- delete_product_insight for each insight to remove
- delete_concern for each concern to remove

Do not invent or rewrite items. When unsure, do not delete. If nothing should be removed, emit no tool calls.`

const dedupUser = `--- PRODUCT INSIGHTS ---
%s

--- CONCERNS ---
%s

Delete the duplicates.`

func extractionPrompt(scope Scope, text string) (system, user string) {
	if scope == ScopeChunk {
		return chunkExtractionSystem, fmt.Sprintf(chunkExtractionUser, text)
	}
	return completeExtractionSystem, fmt.Sprintf(completeExtractionUser, text)
}

func reflectionPrompt(document string, insights []insight.Insight, concerns []insight.Concern) (system, user string) {
	return reflectionSystem, fmt.Sprintf(reflectionUser, document, numberedInsights(insights), numberedConcerns(concerns))
}

func validationPrompt(document, chunk string, insights []insight.Insight, concerns []insight.Concern) (system, user string) {
	return validationSystem, fmt.Sprintf(validationUser, document, chunk, numberedInsights(insights), numberedConcerns(concerns))
}

func dedupPrompt(insights []insight.Insight, concerns []insight.Concern) (system, user string) {
	var in, co strings.Builder
	for _, i := range insights {
		fmt.Fprintf(&in, "%s - %s\n", i.ID, i.Description)
	}
	for _, c := range concerns {
		fmt.Fprintf(&co, "%s - %s\n", c.ID, c.Description)
	}
	return dedupSystem, fmt.Sprintf(dedupUser, orNone(in.String()), orNone(co.String()))
}

func numberedInsights(items []insight.Insight) string {
	var b strings.Builder
	for i, in := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, in.Description)
	}
	return orNone(b.String())
}

func numberedConcerns(items []insight.Concern) string {
	var b strings.Builder
	for i, c := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Description)
	}
	return orNone(b.String())
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return strings.TrimRight(s, "\n")
}

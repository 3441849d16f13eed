package workflow

import "github.com/rpggio/prdinsights/internal/llm"

// Tool operation names.
const (
	ToolAddInsight    = "add_product_insight"
	ToolAddConcern    = "add_concern"
	ToolDeleteInsight = "delete_product_insight"
	ToolDeleteConcern = "delete_concern"
)

func stringList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

func addInsightCapability() llm.Capability {
	return llm.Capability{
		Name:        ToolAddInsight,
		Description: "Record one atomic, user-observable product behavior described by the document",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Short name of the behavior",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "What the product does, stated so it can be verified",
				},
				"flow_type": map[string]any{
					"type": "string",
					"enum": []string{"user_flow", "backend_flow", "data_flow"},
				},
				"priority": map[string]any{
					"type": "string",
					"enum": []string{"P1", "P2", "P3"},
				},
				"actors":            stringList("Who triggers or takes part in the behavior"),
				"inputs":            stringList("Data or events the behavior consumes"),
				"expected_outcomes": stringList("Observable results of the behavior"),
				"preconditions":     stringList("What must hold before the behavior starts"),
				"postconditions":    stringList("What holds after the behavior completes"),
				"business_rules":    stringList("Rules constraining the behavior"),
				"assumptions":       stringList("Assumptions the document makes"),
				"non_goals":         stringList("What the behavior explicitly does not cover"),
				"confidence_level": map[string]any{
					"type": "string",
					"enum": []string{"LOW", "MEDIUM", "HIGH"},
				},
			},
			"required": []string{"title", "description", "flow_type", "priority", "expected_outcomes"},
		},
	}
}

func addConcernCapability() llm.Capability {
	return llm.Capability{
		Name:        ToolAddConcern,
		Description: "Record a gap, ambiguity or conflict in the document",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{
					"type": "string",
					"enum": []string{"missing_information", "ambiguity", "conflict", "scope_gap", "other"},
				},
				"severity": map[string]any{
					"type": "string",
					"enum": []string{"LOW", "MEDIUM", "HIGH"},
				},
				"description": map[string]any{
					"type":        "string",
					"description": "What is unclear or missing",
				},
				"impact": map[string]any{
					"type":        "string",
					"description": "What goes wrong if the concern is not addressed",
				},
				"questions":                  stringList("Questions that would resolve the concern"),
				"related_product_insight_id": map[string]any{"type": "string", "description": "Id of the insight the concern is about, if any"},
				"raised_by":                  map[string]any{"type": "string"},
			},
			"required": []string{"type", "severity", "description"},
		},
	}
}

func deleteInsightCapability() llm.Capability {
	return llm.Capability{
		Name:        ToolDeleteInsight,
		Description: "Delete a duplicate product insight by id",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"insight_id": map[string]any{"type": "string", "description": "Id of the insight to delete"},
			},
			"required": []string{"insight_id"},
		},
	}
}

func deleteConcernCapability() llm.Capability {
	return llm.Capability{
		Name:        ToolDeleteConcern,
		Description: "Delete a duplicate concern by id",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"concern_id": map[string]any{"type": "string", "description": "Id of the concern to delete"},
			},
			"required": []string{"concern_id"},
		},
	}
}

// AddCapabilities are offered to extraction, reflection and chunk validation.
func AddCapabilities() []llm.Capability {
	return []llm.Capability{addInsightCapability(), addConcernCapability()}
}

// DeleteCapabilities are offered to deduplication.
func DeleteCapabilities() []llm.Capability {
	return []llm.Capability{deleteInsightCapability(), deleteConcernCapability()}
}

func capabilityNames(caps []llm.Capability) map[string]bool {
	names := make(map[string]bool, len(caps))
	for _, c := range caps {
		names[c.Name] = true
	}
	return names
}

package toolloop

import (
	"encoding/json"

	"github.com/aicligo/aicli/internal/tools"
)

// ToolDef is one entry of the tool schema document sent with every
// request: {type:"function", name, strict:false, description, parameters}.
// Strict stays disabled, matching build_execute_tool_json's "keep strict
// disabled unless we can satisfy all strict requirements".
type ToolDef struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Strict      bool            `json:"strict"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// schemaOrder fixes the document order, matching the order
// build_execute_tool_json appends the five tools.
var schemaOrder = []string{"execute", "list_allowed_files", "web_search", "web_fetch", "cli_help"}

// BuildToolSchema renders the registry into the tool schema document. Each
// tool already carries its parameter schema as JSON text (the same text
// gojsonschema validates incoming arguments against), so the document and
// the validator cannot drift apart.
func BuildToolSchema(reg tools.Registry) []ToolDef {
	defs := make([]ToolDef, 0, len(reg))
	for _, name := range schemaOrder {
		t, ok := reg.Get(name)
		if !ok {
			continue
		}
		defs = append(defs, ToolDef{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  json.RawMessage(t.SchemaJSON),
		})
	}
	return defs
}

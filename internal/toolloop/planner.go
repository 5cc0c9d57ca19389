package toolloop

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/aicligo/aicli/internal/httpx"
)

// PlanDecision is the planner's strict JSON reply shape.
type PlanDecision struct {
	NeedSearch bool   `json:"need_search" jsonschema:"required,description=Whether a web search is truly required."`
	Query      string `json:"query" jsonschema:"required,description=Search query; empty when need_search is false."`
}

// plannerInstructions keeps the planner small and deterministic: strict
// JSON only, short queries.
const plannerInstructions = "You are a query planner. Decide if web search is truly required. " +
	"Reply with ONLY valid JSON (no markdown), with fields: " +
	`{"need_search":true|false,"query":string}. ` +
	`If need_search=false, query must be "". ` +
	"Keep query <= 12 words, focused, and safe."

// planResponseFormat renders the text.format block pinning the reply to
// PlanDecision's schema, derived from the struct itself so the wire format
// and the parse target cannot drift. Returns nil when reflection fails;
// the planner then relies on the instruction text alone.
func planResponseFormat() json.RawMessage {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema, err := json.Marshal(r.Reflect(&PlanDecision{}))
	if err != nil {
		return nil
	}
	format, err := json.Marshal(map[string]any{
		"format": map[string]any{
			"type":   "json_schema",
			"name":   "search_plan",
			"strict": true,
			"schema": json.RawMessage(schema),
		},
	})
	if err != nil {
		return nil
	}
	return format
}

// PlanSearch asks the model, in a single tool-free request, whether the
// prompt needs a web search and what the query should be.
// Every failure path — transport,
// non-200, unparseable reply, need_search=false — returns ok=false; the
// caller proceeds without augmentation.
func PlanSearch(ctx context.Context, transport httpx.Transport, userPrompt string, opts Options) (query string, ok bool) {
	if opts.APIKey == "" || strings.TrimSpace(userPrompt) == "" {
		return "", false
	}
	opts.applyDefaults()

	req := request{
		Model: opts.Model,
		Input: []message{{
			Role:    "user",
			Content: []contentPart{{Type: "input_text", Text: userPrompt}},
		}},
		Instructions: plannerInstructions,
		ToolChoice:   "none",
		Text:         planResponseFormat(),
	}
	body, err := postJSON(ctx, transport, opts, req)
	if err != nil {
		return "", false
	}

	resp, err := parseResponse(body)
	if err != nil {
		return "", false
	}
	text, found := firstOutputText(resp)
	if !found {
		return "", false
	}

	var plan PlanDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &plan); err != nil {
		return "", false
	}
	q := strings.TrimSpace(plan.Query)
	if !plan.NeedSearch || q == "" {
		return "", false
	}
	return q, true
}

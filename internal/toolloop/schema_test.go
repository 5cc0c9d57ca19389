package toolloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicligo/aicli/internal/allowlist"
	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/paging"
	"github.com/aicligo/aicli/internal/tools"
)

func TestBuildToolSchema_FixedOrderAndShape(t *testing.T) {
	reg := tools.NewRegistry(allowlist.New(nil), tools.SearchConfig{}, tools.WebFetchConfig{}, httpx.NewClient(), paging.New(0))
	defs := BuildToolSchema(reg)
	require.Len(t, defs, 5)

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
		assert.Equal(t, "function", d.Type)
		assert.False(t, d.Strict)
		assert.NotEmpty(t, d.Description)
	}
	assert.Equal(t, []string{"execute", "list_allowed_files", "web_search", "web_fetch", "cli_help"}, names)
}

func TestBuildToolSchema_ParametersAreClosedObjects(t *testing.T) {
	reg := tools.NewRegistry(allowlist.New(nil), tools.SearchConfig{}, tools.WebFetchConfig{}, httpx.NewClient(), paging.New(0))
	for _, d := range BuildToolSchema(reg) {
		var params struct {
			Type                 string         `json:"type"`
			AdditionalProperties bool           `json:"additionalProperties"`
			Properties           map[string]any `json:"properties"`
		}
		require.NoError(t, json.Unmarshal(d.Parameters, &params), "tool %s", d.Name)
		assert.Equal(t, "object", params.Type, "tool %s", d.Name)
		assert.False(t, params.AdditionalProperties, "tool %s", d.Name)
		assert.NotEmpty(t, params.Properties, "tool %s", d.Name)
	}
}

func TestBuildToolSchema_DocumentMarshalsAsJSONArray(t *testing.T) {
	reg := tools.NewRegistry(allowlist.New(nil), tools.SearchConfig{}, tools.WebFetchConfig{}, httpx.NewClient(), paging.New(0))
	doc, err := json.Marshal(BuildToolSchema(reg))
	require.NoError(t, err)

	var back []map[string]any
	require.NoError(t, json.Unmarshal(doc, &back))
	assert.Len(t, back, 5)
	for _, item := range back {
		assert.Contains(t, item, "parameters")
	}
}

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIHelpTool_DefaultTopicIsUsage(t *testing.T) {
	tool := NewCLIHelpTool()
	out := tool.Call(context.Background(), map[string]any{})
	assert.Contains(t, out, "aicli runs a prompt")
}

func TestCLIHelpTool_DSLTopicDescribesGrammar(t *testing.T) {
	tool := NewCLIHelpTool()
	out := tool.Call(context.Background(), map[string]any{"topic": "dsl"})
	assert.Contains(t, out, "cat <FILE>")
	assert.Contains(t, out, "grep")
}

func TestCLIHelpTool_ToolsTopicListsAllFiveTools(t *testing.T) {
	tool := NewCLIHelpTool()
	out := tool.Call(context.Background(), map[string]any{"topic": "tools"})
	for _, name := range []string{"execute(", "list_allowed_files(", "web_search(", "web_fetch(", "cli_help("} {
		assert.Contains(t, out, name)
	}
}

func TestCLIHelpTool_UnknownTopicFailsSchemaValidation(t *testing.T) {
	tool := NewCLIHelpTool()
	out := tool.Call(context.Background(), map[string]any{"topic": "nonsense"})
	assert.Contains(t, out, "invalid_request")
}

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aicligo/aicli/internal/allowlist"
	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/paging"
)

func TestNewRegistry_RegistersAllFiveTools(t *testing.T) {
	reg := NewRegistry(
		allowlist.New(nil),
		SearchConfig{},
		WebFetchConfig{},
		httpx.NewClient(),
		paging.New(0),
	)

	for _, name := range []string{"execute", "list_allowed_files", "web_search", "web_fetch", "cli_help"} {
		_, ok := reg.Get(name)
		assert.True(t, ok, "missing tool %s", name)
	}
	assert.Len(t, reg.Names(), 5)
}

func TestNewRegistry_WebSearchWithNoCredentialsStillRegistersButFailsAtCallTime(t *testing.T) {
	reg := NewRegistry(allowlist.New(nil), SearchConfig{}, WebFetchConfig{}, httpx.NewClient(), paging.New(0))
	tool, ok := reg.Get("web_search")
	assert.True(t, ok)
	assert.NotEmpty(t, tool.Description)
}

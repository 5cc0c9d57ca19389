package tools

import (
	"github.com/google/uuid"

	"github.com/aicligo/aicli/internal/allowlist"
	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/paging"
)

// SearchConfig carries the raw provider credentials/preference a caller
// read from the environment (AICLI_SEARCH_PROVIDER, GOOGLE_API_KEY,
// GOOGLE_CSE_CX, BRAVE_API_KEY). Kept as plain fields rather than an
// internal/config dependency so this package stays usable from tests and
// from cmd/aicli without importing the config loader.
type SearchConfig struct {
	Preferred    string
	GoogleAPIKey string
	GoogleCX     string
	BraveAPIKey  string
}

// WebFetchConfig carries web_fetch's allowlist/debug settings, sourced from
// AICLI_WEB_FETCH_PREFIXES and AICLI_DEBUG_WEB_FETCH_ALLOWLIST.
type WebFetchConfig struct {
	Prefixes       []string
	DebugAllowlist bool
}

// NewRegistry assembles the five built-in tools into a Registry keyed by
// name, wiring each tool's dependencies: list for
// execute/list_allowed_files, client+cache for web_search/web_fetch, and
// cli_help standing alone. A single paging.Cache is shared between the two
// network tools. Calls that omit their own idempotency key share one
// per-registry UUID, so repeat calls within a run still hit the cache
// while runs never collide on each other's entries.
func NewRegistry(list *allowlist.List, search SearchConfig, fetch WebFetchConfig, client *httpx.Client, cache *paging.Cache) Registry {
	runIdem := uuid.NewString()

	reg := Registry{}
	for _, t := range []Tool{
		NewExecuteTool(list),
		NewListAllowedFilesTool(list),
		NewWebSearchTool(search.Resolve, client, cache, runIdem),
		NewWebFetchTool(fetch.Prefixes, client, cache, fetch.DebugAllowlist, runIdem),
		NewCLIHelpTool(),
	} {
		reg[t.Name] = t
	}
	return reg
}

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/paging"
)

type fakeSearchProvider struct {
	prefix string
	body   []byte
	err    error
	calls  int
	opts   SearchOptions
}

func (f *fakeSearchProvider) Prefix() string { return f.prefix }

func (f *fakeSearchProvider) Search(_ context.Context, _ *httpx.Client, _ string, opts SearchOptions) ([]byte, error) {
	f.calls++
	f.opts = opts
	return f.body, f.err
}

func fixedResolver(p SearchProvider) ProviderResolver {
	return func(string) (SearchProvider, []string, bool) { return p, nil, true }
}

func failingResolver(missing ...string) ProviderResolver {
	return func(string) (SearchProvider, []string, bool) { return nil, missing, false }
}

func TestSelectProvider_PrefersBraveInAutoMode(t *testing.T) {
	p, missing, ok := SelectProvider("", "", "", "brave-key")
	assert.True(t, ok)
	assert.Empty(t, missing)
	assert.Equal(t, "prov_brave", p.Prefix())
}

func TestSelectProvider_FallsBackToGoogleCSEInAutoMode(t *testing.T) {
	p, _, ok := SelectProvider("", "google-key", "cx123", "")
	assert.True(t, ok)
	assert.Equal(t, "prov_google_cse", p.Prefix())
}

func TestSelectProvider_AutoModeWithNoCredentialsListsAllVars(t *testing.T) {
	_, missing, ok := SelectProvider("", "", "", "")
	assert.False(t, ok)
	assert.Contains(t, missing, "BRAVE_API_KEY")
	assert.Contains(t, missing, "GOOGLE_API_KEY")
}

func TestSelectProvider_ExplicitGoogleCSEMissingCXReportsOnlyGoogleVars(t *testing.T) {
	_, missing, ok := SelectProvider("google_cse", "google-key", "", "")
	assert.False(t, ok)
	assert.Equal(t, []string{"GOOGLE_API_KEY", "GOOGLE_CSE_CX"}, missing)
}

func TestSearchConfigResolve_PerCallOverrideBeatsConfiguredPreference(t *testing.T) {
	cfg := SearchConfig{Preferred: "brave", GoogleAPIKey: "gk", GoogleCX: "cx", BraveAPIKey: "bk"}

	p, _, ok := cfg.Resolve("")
	assert.True(t, ok)
	assert.Equal(t, "prov_brave", p.Prefix())

	p, _, ok = cfg.Resolve("google_cse")
	assert.True(t, ok)
	assert.Equal(t, "prov_google_cse", p.Prefix())

	// "google" is accepted as an alias.
	p, _, ok = cfg.Resolve("google")
	assert.True(t, ok)
	assert.Equal(t, "prov_google_cse", p.Prefix())
}

func TestWebSearchTool_MissingProviderReturnsConfigHint(t *testing.T) {
	tool := NewWebSearchTool(failingResolver("BRAVE_API_KEY"), httpx.NewClient(), paging.New(0), "")
	out := tool.Call(context.Background(), map[string]any{"query": "golang generics"})
	assert.Contains(t, out, "mvp_requires")
	assert.Contains(t, out, "BRAVE_API_KEY")
}

func TestWebSearchTool_SuccessReturnsProviderBodyPaged(t *testing.T) {
	provider := &fakeSearchProvider{prefix: "prov_fake", body: []byte(`{"results":[1,2,3]}`)}
	tool := NewWebSearchTool(fixedResolver(provider), httpx.NewClient(), paging.New(0), "")

	out := tool.Call(context.Background(), map[string]any{"query": "golang generics"})
	assert.Contains(t, out, `"ok":true`)
	assert.Contains(t, out, `results`)
	assert.Equal(t, 1, provider.calls)
}

func TestWebSearchTool_PassesLangAndFreshnessThrough(t *testing.T) {
	provider := &fakeSearchProvider{prefix: "prov_fake", body: []byte(`{}`)}
	tool := NewWebSearchTool(fixedResolver(provider), httpx.NewClient(), paging.New(0), "")

	_ = tool.Call(context.Background(), map[string]any{
		"query": "go 1.24 release notes", "lang": "en", "freshness": "week", "count": float64(7),
	})
	assert.Equal(t, SearchOptions{Count: 7, Lang: "en", Freshness: "week"}, provider.opts)
}

func TestWebSearchTool_SecondCallWithSameArgsHitsCache(t *testing.T) {
	provider := &fakeSearchProvider{prefix: "prov_fake", body: []byte(`{"ok":1}`)}
	tool := NewWebSearchTool(fixedResolver(provider), httpx.NewClient(), paging.New(0), "run-idem")

	args := map[string]any{"query": "golang generics"}
	first := tool.Call(context.Background(), args)
	second := tool.Call(context.Background(), args)

	assert.Equal(t, 1, provider.calls)
	assert.NotContains(t, first, `"cache_hit":true`)
	assert.Contains(t, second, `"cache_hit":true`)
}

func TestWebSearchTool_DistinctIdempotencyKeysMissTheCache(t *testing.T) {
	provider := &fakeSearchProvider{prefix: "prov_fake", body: []byte(`{"ok":1}`)}
	tool := NewWebSearchTool(fixedResolver(provider), httpx.NewClient(), paging.New(0), "")

	_ = tool.Call(context.Background(), map[string]any{"query": "q", "idempotency": "a"})
	out := tool.Call(context.Background(), map[string]any{"query": "q", "idempotency": "b"})

	assert.Equal(t, 2, provider.calls)
	assert.NotContains(t, out, `"cache_hit":true`)
}

package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/paging"
	"github.com/aicligo/aicli/internal/pipeline"
	"github.com/aicligo/aicli/internal/toolerr"
)

const webSearchDescription = "Search the web. Returns raw provider JSON (compact), paged via start/size. " +
	"Use for facts likely to have changed since training or that need a citation."

const webSearchSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "query": {"type": "string", "description": "Search query."},
    "provider": {"type": "string", "description": "Optional provider override: auto|google_cse|brave."},
    "count": {"type": "integer", "minimum": 1, "maximum": 20, "description": "Results to request from the provider. Default 5."},
    "lang": {"type": "string", "description": "Optional language hint (brave search_lang / google lr)."},
    "freshness": {"type": "string", "description": "Optional freshness: day|week|month (brave)."},
    "raw": {"type": "boolean", "description": "Optional: return raw JSON bytes when possible."},
    "start": {"type": "integer", "minimum": 0, "description": "Byte offset for paging the provider's JSON response."},
    "size": {"type": "integer", "minimum": 1, "maximum": 4096, "description": "Max bytes to return (<=4096)."},
    "idempotency": {"type": "string", "description": "Optional idempotency key for caching."}
  },
  "required": ["query"]
}`

const defaultWebSearchCount = 5

// SearchOptions carries the per-call provider knobs beyond the query
// itself.
type SearchOptions struct {
	Count     int
	Lang      string
	Freshness string
}

// SearchProvider issues one web search and returns the provider's raw
// JSON response body verbatim; nothing here parses it into a summary.
type SearchProvider interface {
	Prefix() string // cache-key component, e.g. "prov_google_cse"
	Search(ctx context.Context, client *httpx.Client, query string, opts SearchOptions) ([]byte, error)
}

// GoogleCSEProvider calls the Google Custom Search JSON API. Requires
// GOOGLE_API_KEY and GOOGLE_CSE_CX.
type GoogleCSEProvider struct {
	APIKey string
	CX     string
}

func (p GoogleCSEProvider) Prefix() string { return "prov_google_cse" }

func (p GoogleCSEProvider) Search(ctx context.Context, client *httpx.Client, query string, opts SearchOptions) ([]byte, error) {
	u := fmt.Sprintf("https://www.googleapis.com/customsearch/v1?key=%s&cx=%s&q=%s&num=%d",
		url.QueryEscape(p.APIKey), url.QueryEscape(p.CX), url.QueryEscape(query), opts.Count)
	if opts.Lang != "" {
		u += "&lr=" + url.QueryEscape(opts.Lang)
	}
	_, body, _, err := client.Get(ctx, u, nil, int64(pipeline.MaxFileReadBytes))
	return body, err
}

// BraveProvider calls the Brave Search API. Requires BRAVE_API_KEY.
type BraveProvider struct {
	APIKey string
}

func (p BraveProvider) Prefix() string { return "prov_brave" }

func (p BraveProvider) Search(ctx context.Context, client *httpx.Client, query string, opts SearchOptions) ([]byte, error) {
	u := fmt.Sprintf("https://api.search.brave.com/res/v1/web/search?q=%s&count=%d",
		url.QueryEscape(query), opts.Count)
	if opts.Lang != "" {
		u += "&search_lang=" + url.QueryEscape(opts.Lang)
	}
	if opts.Freshness != "" {
		u += "&freshness=" + url.QueryEscape(opts.Freshness)
	}
	_, body, _, err := client.Get(ctx, u, map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": p.APIKey,
	}, int64(pipeline.MaxFileReadBytes))
	return body, err
}

// SelectProvider resolves a provider preference ("google_cse", "brave",
// or "auto"/unset) against the available credentials: auto prefers brave
// when its key is present, otherwise google_cse when both its keys are
// present. Returns ok=false when the requested/resolved provider's
// credentials are missing, along with the exact env vars a caller should
// mention in a diagnostic.
func SelectProvider(preferred, googleAPIKey, googleCX, braveAPIKey string) (provider SearchProvider, missingVars []string, ok bool) {
	switch preferred {
	case "google_cse":
		if googleAPIKey == "" || googleCX == "" {
			return nil, []string{"GOOGLE_API_KEY", "GOOGLE_CSE_CX"}, false
		}
		return GoogleCSEProvider{APIKey: googleAPIKey, CX: googleCX}, nil, true
	case "brave":
		if braveAPIKey == "" {
			return nil, []string{"BRAVE_API_KEY"}, false
		}
		return BraveProvider{APIKey: braveAPIKey}, nil, true
	default:
		if braveAPIKey != "" {
			return BraveProvider{APIKey: braveAPIKey}, nil, true
		}
		if googleAPIKey != "" && googleCX != "" {
			return GoogleCSEProvider{APIKey: googleAPIKey, CX: googleCX}, nil, true
		}
		return nil, []string{"BRAVE_API_KEY", "GOOGLE_API_KEY", "GOOGLE_CSE_CX"}, false
	}
}

// ProviderResolver maps a per-call provider preference (possibly empty) to
// a configured SearchProvider. SearchConfig.Resolve is the production
// implementation; tests substitute their own.
type ProviderResolver func(preferred string) (SearchProvider, []string, bool)

// Resolve applies a per-call provider override on top of the configured
// preference, then runs the credential resolution above. An empty or
// "auto" override falls back to the configured preference; "google" is
// accepted as an alias for "google_cse".
func (c SearchConfig) Resolve(preferred string) (SearchProvider, []string, bool) {
	switch preferred {
	case "", "auto":
		preferred = c.Preferred
	case "google":
		preferred = "google_cse"
	}
	return SelectProvider(preferred, c.GoogleAPIKey, c.GoogleCX, c.BraveAPIKey)
}

// NewWebSearchTool builds the "web_search" tool. resolve turns the
// per-call provider preference into a SearchProvider; client performs the
// HTTP GET; cache memoizes the paged window per (idempotency, provider,
// query, start, size). defaultIdempotency keys cache entries for calls
// where the model omits its own idempotency string.
//
// The "raw" argument is accepted but the tool path always returns the
// provider's raw JSON — deterministic for the model to page through; the
// human-readable summary rendering lives CLI-side.
func NewWebSearchTool(resolve ProviderResolver, client *httpx.Client, cache *paging.Cache, defaultIdempotency string) Tool {
	return Tool{
		Name:        "web_search",
		Description: webSearchDescription,
		SchemaJSON:  webSearchSchemaJSON,
		Fn: func(ctx context.Context, args map[string]any) string {
			query := stringArg(args, "query")
			count := intArg(args, "count", defaultWebSearchCount)
			if count <= 0 {
				count = defaultWebSearchCount
			}
			start := intArg(args, "start", 0)
			size := intArg(args, "size", pipeline.MaxPageSize)
			idem := stringArg(args, "idempotency")
			if idem == "" {
				idem = defaultIdempotency
			}

			provider, missingVars, ok := resolve(stringArg(args, "provider"))
			if !ok {
				return FromError(missingSearchConfigError(missingVars)).JSON()
			}

			key := makeCacheKey("web_search", idem, provider.Prefix(), query, start, size)
			if v, hit := cache.Get(key); hit {
				env := Envelope{OK: true, StdoutText: v.Data, TotalBytes: v.TotalBytes, Truncated: v.Truncated, CacheHit: true}
				if v.HasNextStart {
					env.NextStart = intPtr(v.NextStart)
				}
				return env.JSON()
			}

			body, err := provider.Search(ctx, client, query, SearchOptions{
				Count:     count,
				Lang:      stringArg(args, "lang"),
				Freshness: stringArg(args, "freshness"),
			})
			if err != nil {
				return FromError(toolerr.Wrap(toolerr.CodeInternal, err)).JSON()
			}

			window, total, truncated, nextStart, hasNext := pipeline.Page(body, start, size)
			v := paging.Value{Data: window, TotalBytes: total, Truncated: truncated, HasNextStart: hasNext, NextStart: nextStart}
			cache.Put(key, v)

			env := Envelope{OK: true, StdoutText: window, TotalBytes: total, Truncated: truncated}
			if hasNext {
				env.NextStart = intPtr(nextStart)
			}
			return env.JSON()
		},
	}
}

func missingSearchConfigError(missingVars []string) *toolerr.Error {
	detail := "set " + joinWithOr(missingVars) + "; see cli_help(topic=\"usage\")"
	return toolerr.WithDetail(toolerr.CodeMVPRequires, detail)
}

func joinWithOr(vars []string) string {
	switch len(vars) {
	case 0:
		return ""
	case 1:
		return vars[0]
	default:
		out := vars[0]
		for _, v := range vars[1:] {
			out += " and " + v
		}
		return out
	}
}

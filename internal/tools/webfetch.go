package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/paging"
	"github.com/aicligo/aicli/internal/pipeline"
	"github.com/aicligo/aicli/internal/toolerr"
)

const webFetchDescription = "Fetch a URL and return its readable text, paged via start/size. " +
	"Only URLs under an allowed prefix (AICLI_WEB_FETCH_PREFIXES) may be fetched."

const webFetchSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "url": {"type": "string", "description": "URL to fetch. Must match an allowed prefix."},
    "start": {"type": "integer", "minimum": 0, "description": "Byte offset for paging."},
    "size": {"type": "integer", "minimum": 1, "maximum": 4096, "description": "Max bytes to return (<=4096)."},
    "idempotency": {"type": "string", "description": "Optional idempotency key for caching."}
  },
  "required": ["url"]
}`

// DefaultWebFetchMaxBytes caps how much of a response body Get will read
// before the fetch fails with body_too_large.
const DefaultWebFetchMaxBytes = 1 << 20

const maxSuggestedPrefixesShown = 8

// urlIsAllowed reports whether url has one of prefixes as a literal
// string prefix. A plain prefix scan, no URL parsing: the allowlist entry
// must match the URL exactly as the model sent it.
func urlIsAllowed(rawURL string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(rawURL, p) {
			return true
		}
	}
	return false
}

// suggestPrefixFromURL extracts a scheme://host/ prefix from a rejected
// URL to surface in the generic hint. Returns "" for a URL with userinfo
// before the host (credentials embedded in the URL) or that otherwise
// fails to parse.
func suggestPrefixFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || u.User != nil {
		return ""
	}
	return fmt.Sprintf("%s://%s/", u.Scheme, u.Host)
}

// urlNotAllowedError builds the url_not_allowed diagnostic. When debug is
// true (AICLI_DEBUG_WEB_FETCH_ALLOWLIST) it lists up to
// maxSuggestedPrefixesShown allowed prefixes (then ", ..." if more
// remain); otherwise it falls back to a generic hint built from
// suggestPrefixFromURL, so the configured allowlist isn't leaked to the
// model by default.
func urlNotAllowedError(rawURL string, prefixes []string, debug bool) *toolerr.Error {
	if !debug {
		hint := suggestPrefixFromURL(rawURL)
		if hint == "" {
			return toolerr.WithDetail(toolerr.CodeURLNotAllowed, "set AICLI_WEB_FETCH_PREFIXES to allow this host")
		}
		return toolerr.WithDetail(toolerr.CodeURLNotAllowed, fmt.Sprintf("try allowing %s (set AICLI_WEB_FETCH_PREFIXES)", hint))
	}

	shown := prefixes
	more := false
	if len(shown) > maxSuggestedPrefixesShown {
		shown = shown[:maxSuggestedPrefixesShown]
		more = true
	}
	list := strings.Join(shown, ", ")
	if more {
		list += ", ..."
	}
	if list == "" {
		list = "(none configured)"
	}
	return toolerr.WithDetail(toolerr.CodeURLNotAllowed, "allowed prefixes: "+list)
}

// extractReadableText runs go-readability over an HTML body, stripping
// boilerplate markup before paging rather than returning raw HTML soup. A
// non-HTML content type, or an extraction failure, falls back to the raw
// body unchanged — readability is a best-effort improvement, not a
// requirement for the fetch to succeed.
func extractReadableText(body []byte, contentType, rawURL string) []byte {
	if !strings.Contains(contentType, "html") {
		return body
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return body
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err != nil || article.TextContent == "" {
		return body
	}
	return []byte(article.TextContent)
}

// NewWebFetchTool builds the "web_fetch" tool. prefixes is
// the allowlist of URL prefixes (AICLI_WEB_FETCH_PREFIXES); client performs
// the capped, retried GET; cache memoizes the paged window per (url, start,
// size), mirroring web_search's cache use. debugAllowlist mirrors
// AICLI_DEBUG_WEB_FETCH_ALLOWLIST. defaultIdempotency keys cache entries
// for calls where the model omits its own idempotency string.
func NewWebFetchTool(prefixes []string, client *httpx.Client, cache *paging.Cache, debugAllowlist bool, defaultIdempotency string) Tool {
	return Tool{
		Name:        "web_fetch",
		Description: webFetchDescription,
		SchemaJSON:  webFetchSchemaJSON,
		Fn: func(ctx context.Context, args map[string]any) string {
			rawURL := stringArg(args, "url")
			start := intArg(args, "start", 0)
			size := intArg(args, "size", pipeline.MaxPageSize)
			idem := stringArg(args, "idempotency")
			if idem == "" {
				idem = defaultIdempotency
			}

			if !urlIsAllowed(rawURL, prefixes) {
				return FromError(urlNotAllowedError(rawURL, prefixes, debugAllowlist)).JSON()
			}

			key := makeCacheKey("web_fetch", idem, rawURL, "", start, size)
			if v, hit := cache.Get(key); hit {
				env := Envelope{OK: true, StdoutText: v.Data, TotalBytes: v.TotalBytes, Truncated: v.Truncated, CacheHit: true}
				if v.HasNextStart {
					env.NextStart = intPtr(v.NextStart)
				}
				return env.JSON()
			}

			_, body, contentType, err := client.Get(ctx, rawURL, nil, DefaultWebFetchMaxBytes)
			if err != nil {
				return FromError(fetchTransportError(err)).JSON()
			}
			text := extractReadableText(body, contentType, rawURL)

			window, total, truncated, nextStart, hasNext := pipeline.Page(text, start, size)
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

// fetchTransportError maps a Client.Get failure to its exit-taxonomy
// code: an oversized body maps to body_too_large, every other transport
// failure (dial error, exhausted 429/503 retries, read error) maps to the
// generic internal/IO code.
func fetchTransportError(err error) *toolerr.Error {
	if errors.Is(err, httpx.ErrBodyTooLarge) {
		return toolerr.New(toolerr.CodeBodyTooLarge)
	}
	return toolerr.Wrap(toolerr.CodeInternal, err)
}

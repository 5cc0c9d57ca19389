package tools

import "fmt"

// makeCacheKey builds a paging-cache key for web_search/web_fetch:
// prefix|idempotency|a|b|start:size. execute does not use the paging
// cache — a local file read is cheaper than the bookkeeping.
func makeCacheKey(prefix, idempotency, a, b string, start, size int) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d:%d", prefix, idempotency, a, b, start, size)
}

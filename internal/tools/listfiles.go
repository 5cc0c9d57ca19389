package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/aicligo/aicli/internal/allowlist"
)

const listAllowedFilesDescription = "Read-only: list allowlisted local files for the execute tool. " +
	"Returns paths/names/sizes only (no file contents). " +
	"Supports case-insensitive substring filtering (query) and paging (start/size)."

const listAllowedFilesSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "query": {"type": "string", "description": "Optional case-insensitive substring filter on full path."},
    "start": {"type": "integer", "minimum": 0, "description": "0-based start index for paging."},
    "size": {"type": "integer", "minimum": 1, "maximum": 200, "description": "Max items to return (<=200). Default 50."}
  }
}`

const (
	defaultListAllowedFilesSize = 50
	maxListAllowedFilesSize     = 200
)

// NewListAllowedFilesTool builds the "list_allowed_files" tool. Unlike
// execute/web_search/web_fetch/cli_help, its output is its own distinct
// JSON object, not the {ok,exit_code,stdout_text,...} envelope — the
// function_call_output builder passes this tool's JSON straight through.
func NewListAllowedFilesTool(list *allowlist.List) Tool {
	return Tool{
		Name:        "list_allowed_files",
		Description: listAllowedFilesDescription,
		SchemaJSON:  listAllowedFilesSchemaJSON,
		Fn: func(_ context.Context, args map[string]any) string {
			query := stringArg(args, "query")
			start := intArg(args, "start", 0)
			size := intArg(args, "size", defaultListAllowedFilesSize)
			if size <= 0 {
				size = defaultListAllowedFilesSize
			}
			if size > maxListAllowedFilesSize {
				size = maxListAllowedFilesSize
			}
			if start < 0 {
				start = 0
			}

			matches := list.FilterByPathSubstring(query)
			total := len(matches)

			returned := 0
			var filesJSON strings.Builder
			filesJSON.WriteString("[")
			for idx := start; idx < total && returned < size; idx++ {
				if returned > 0 {
					filesJSON.WriteString(",")
				}
				f := matches[idx]
				fmt.Fprintf(&filesJSON, `{"path":%s,"name":%s,"size_bytes":%d}`,
					jsonString([]byte(f.CanonicalPath)), jsonString([]byte(f.DisplayName)), f.SizeBytes)
				returned++
			}
			filesJSON.WriteString("]")

			hasNext := start+returned < total
			nextStart := "null"
			if hasNext {
				nextStart = fmt.Sprintf("%d", start+returned)
			}

			return fmt.Sprintf(
				`{"ok":true,"total":%d,"start":%d,"size":%d,"returned":%d,"has_next":%t,"next_start":%s,"query":%s,"files":%s}`,
				total, start, size, returned, hasNext, nextStart, jsonString([]byte(query)), filesJSON.String(),
			)
		},
	}
}

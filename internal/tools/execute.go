package tools

import (
	"context"

	"github.com/aicligo/aicli/internal/allowlist"
	"github.com/aicligo/aicli/internal/dsl"
	"github.com/aicligo/aicli/internal/pipeline"
)

const executeDescription = "Read-only restricted file access via a safe DSL. " +
	"Use ONLY for reading allowlisted local files. MUST provide 'command'. " +
	"Examples: 'cat README.md', 'cat README.md | head -n 80', 'sed -n 1,120p README.md'. " +
	"Do NOT use a shell; do NOT use redirections/globs; keep it simple and safe."

const executeSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "command": {"type": "string", "description": "Restricted pipeline DSL command, e.g. 'cat README.md' or 'head -n 80 README.md'."},
    "file": {"type": "string", "description": "Optional primary file hint."},
    "id": {"type": "string", "description": "Optional opaque request id, echoed nowhere; for the caller's own bookkeeping."},
    "idempotency": {"type": "string", "description": "Optional opaque idempotency key."},
    "start": {"type": "integer", "minimum": 0, "description": "Byte offset for paging."},
    "size": {"type": "integer", "minimum": 1, "maximum": 4096, "description": "Max bytes to return (<=4096)."}
  },
  "required": ["command"]
}`

// NewExecuteTool builds the "execute" tool: parse the DSL command,
// normalize a bare trailing-file form, run the pipeline against the
// allowlist, and page the result. Unlike web_search/web_fetch, execute
// does not consult the paging cache — a local file read is already cheap
// enough not to need memoizing across calls.
func NewExecuteTool(list *allowlist.List) Tool {
	return Tool{
		Name:        "execute",
		Description: executeDescription,
		SchemaJSON:  executeSchemaJSON,
		Fn: func(_ context.Context, args map[string]any) string {
			command := stringArg(args, "command")
			start := intArg(args, "start", 0)
			size := intArg(args, "size", pipeline.MaxPageSize)

			p, perr := dsl.Parse(command)
			if perr != nil {
				return FromError(pipeline.MapParseError(perr)).JSON()
			}
			normalized := pipeline.Normalize(p)

			result, terr := pipeline.Execute(list, normalized)
			if terr != nil {
				return FromError(terr).JSON()
			}

			window, total, truncated, nextStart, hasNext := pipeline.Page(result.Output, start, size)
			env := Envelope{OK: true, StdoutText: window, TotalBytes: total, Truncated: truncated}
			if hasNext {
				env.NextStart = intPtr(nextStart)
			}
			return env.JSON()
		},
	}
}

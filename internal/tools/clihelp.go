package tools

import (
	"context"
	"strings"

	"github.com/aicligo/aicli/internal/pipeline"
)

const cliHelpDescription = "Read-only: show built-in help text. topic is one of \"usage\", \"dsl\", \"tools\" (default \"usage\")."

const cliHelpSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "topic": {"type": "string", "enum": ["usage", "dsl", "tools"], "description": "Help topic. Default \"usage\"."},
    "start": {"type": "integer", "minimum": 0, "description": "Byte offset for paging."},
    "size": {"type": "integer", "minimum": 1, "maximum": 4096, "description": "Max bytes to return (<=4096)."}
  }
}`

const usageHelpText = `aicli runs a prompt against the model, dispatching tool calls the model
requests along the way (execute, list_allowed_files, web_search, web_fetch,
cli_help) and prints the model's final text answer.

  aicli run [flags] "<prompt>"

Flags:
  --file PATH          allow the model to read PATH via the execute tool
                       (repeatable)
  --continue[=MODE[=THREAD]]
                       reuse a prior response id instead of starting a new
                       conversation; MODE is auto, both, after, or next,
                       THREAD names an independent conversation within the
                       same shell session
  --auto-search        ask the model first whether a web search would help,
                       and prefix its results to the prompt
  --max-turns N        cap the number of tool-loop turns (default 4)
  --tool-calls N       cap tool calls per turn (default 8)
  --threads N          worker threads for tool calls (default 1)
  --tool-choice none|auto|required|NAME
                       forwarded to the initial Responses API request

Web search needs BRAVE_API_KEY, or GOOGLE_API_KEY plus GOOGLE_CSE_CX
(AICLI_SEARCH_PROVIDER picks between them). web_fetch only follows URLs
matching a prefix in AICLI_WEB_FETCH_PREFIXES.

Exit codes: 0 success, 1 internal/IO failure, 2 invalid input or unsupported
request (including any DSL parse or stage-argument error), 3 not allowed
(allowlist/URL-prefix miss), 4 a resource limit was exceeded (oversized
file or fetched body).
`

const dslHelpText = `The execute tool's "command" argument is a restricted pipeline DSL, not a
shell: no redirection, no globbing, no variable expansion, no subshells.

  cat <FILE> [| STAGE ...]

The first stage must be "cat <FILE>" ("head -n 20 FILE", "tail"/"nl"/"sed"
with a trailing FILE are accepted and normalised to a cat-first pipeline);
only that first stage may name a file. Up to 8 stages total, each with up
to 8 argv entries; each token must be shorter than 256 bytes.

Stages:
  cat  FILE              read the whole allowlisted file
  nl [-ba]               prefix each line with a 1-based line number
  head [-n N]            keep the first N lines (default 10)
  tail [-n N]            keep the last N lines (default 10)
  wc   -l|-w|-c          count lines, words, or bytes (one flag required)
  sort [-r]              sort lines by raw byte comparison; -r reverses
  grep [-n] [-F] [-v] PATTERN
                         keep (or, with -v, drop) lines matching PATTERN;
                         -F matches a literal substring, -n prefixes
                         LINENO:
  sed -n 'N[,M]p|d'      keep (p) or drop (d) a 1-based line range
  sed -n '/RE/[,/RE/]p|d'
                         same, with regex addresses
  sed -n 's/RE/REPL/[g][p]'
                         substitute RE with REPL per line; g replaces all
                         matches, p keeps only lines where a substitution
                         happened

Quoting: single- or double-quoted arguments are supported; inside double
quotes, backslash escapes '"' and backslash itself; single quotes are
literal. Outside quotes, backslash escapes the next byte.

Forbidden everywhere, quoted or not: ; & < > $ and backtick, plus raw
newline/carriage-return bytes. A command containing any of these, or naming
a file the allowlist doesn't recognise, fails before anything runs.
`

const toolsHelpText = `Tools the model may call:

  execute(command, file?, start?, size?)
    ` + executeDescription + `

  list_allowed_files(query?, start?, size?)
    ` + listAllowedFilesDescription + `

  web_search(query, provider?, count?, lang?, freshness?, raw?, start?, size?, idempotency?)
    ` + webSearchDescription + `

  web_fetch(url, start?, size?, idempotency?)
    ` + webFetchDescription + `

  cli_help(topic?, start?, size?)
    Read-only: show this text (topic="tools"), the DSL grammar
    (topic="dsl"), or command-line usage (topic="usage").

Every tool's "start"/"size" page the tool's own byte output, independent of
how the model's own context window is paged.
`

func helpText(topic string) string {
	switch topic {
	case "dsl":
		return dslHelpText
	case "tools":
		return toolsHelpText
	default:
		return usageHelpText
	}
}

// NewCLIHelpTool builds the "cli_help" tool. The "tools" topic quotes the
// other four tools' own Description fields, kept in sync by reference
// rather than duplicated.
func NewCLIHelpTool() Tool {
	return Tool{
		Name:        "cli_help",
		Description: cliHelpDescription,
		SchemaJSON:  cliHelpSchemaJSON,
		Fn: func(_ context.Context, args map[string]any) string {
			topic := strings.ToLower(stringArg(args, "topic"))
			start := intArg(args, "start", 0)
			size := intArg(args, "size", pipeline.MaxPageSize)

			text := []byte(helpText(topic))
			window, total, truncated, nextStart, hasNext := pipeline.Page(text, start, size)
			env := Envelope{OK: true, StdoutText: window, TotalBytes: total, Truncated: truncated}
			if hasNext {
				env.NextStart = intPtr(nextStart)
			}
			return env.JSON()
		},
	}
}

// Command aicli is a command-line agent that drives the Responses API
// through a multi-turn tool-using conversation over a set of allowlisted
// local files, plus web search/fetch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aicligo/aicli/internal/allowlist"
	"github.com/aicligo/aicli/internal/config"
	"github.com/aicligo/aicli/internal/continuation"
	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/paging"
	"github.com/aicligo/aicli/internal/toolloop"
	"github.com/aicligo/aicli/internal/tools"
)

func usage(out *os.File) {
	fmt.Fprint(out,
		"aicli - lightweight Responses API client\n\n"+
			"Usage:\n"+
			"  aicli chat <prompt>\n"+
			"  aicli web search <query> [--count N] [--lang xx] [--freshness day|week|month] [--raw]\n"+
			"  aicli run [--auto-search] [--file PATH ...] [--continue[=MODE[=THREAD]]]\n"+
			"            [--model M] [--max-turns N] [--tool-calls N] [--threads N]\n"+
			"            [--tool-choice none|auto|required|NAME] <prompt>\n\n"+
			"Environment: OPENAI_API_KEY (required), OPENAI_BASE_URL, AICLI_MODEL,\n"+
			"  AICLI_SEARCH_PROVIDER, GOOGLE_API_KEY, GOOGLE_CSE_CX, BRAVE_API_KEY,\n"+
			"  AICLI_WEB_FETCH_PREFIXES, AICLI_DEBUG_API, AICLI_DEBUG_FUNCTION_CALL\n")
}

func main() {
	_ = godotenv.Load()
	log.SetOutput(os.Stderr)

	ctx := context.Background()
	args := os.Args[1:]
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "--help", "-h", "help":
		usage(os.Stdout)
		return
	case "chat":
		err = runChat(ctx, args[1:])
	case "web":
		err = runWeb(ctx, args[1:])
	case "run":
		err = runRun(ctx, args[1:])
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		exitWithError(err)
	}
}

// exitWithError prints a short diagnostic for the user-visible failure
// paths and picks the process exit code.
func exitWithError(err error) {
	var httpErr *toolloop.HTTPError
	switch {
	case errors.As(err, &httpErr):
		fmt.Fprintf(os.Stderr, "aicli: http_status=%d\n", httpErr.Status)
		if len(httpErr.Body) > 0 {
			body := httpErr.Body
			if len(body) > 2048 {
				body = body[:2048]
			}
			os.Stderr.Write(body)
			fmt.Fprintln(os.Stderr)
			if len(httpErr.Body) > len(body) {
				fmt.Fprintf(os.Stderr, "... (truncated, %d bytes total)\n", len(httpErr.Body))
			}
		}
		os.Exit(1)
	case errors.Is(err, toolloop.ErrTurnBudgetExhausted):
		fmt.Fprintln(os.Stderr, "aicli: turn budget exhausted without a final answer")
		os.Exit(1)
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "aicli: %v\n", err)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "aicli: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

// continueFlag records both the flag's presence and its optarg, since
// `--continue` alone (mode auto, no thread) is meaningful.
type continueFlag struct {
	set bool
	raw string
}

func (c *continueFlag) String() string { return c.raw }
func (c *continueFlag) Set(v string) error {
	c.set = true
	// A bare --continue arrives as "true" (boolean-flag syntax); that
	// means mode auto with no thread, like getopt's optional_argument.
	if v == "true" {
		v = ""
	}
	c.raw = v
	return nil
}
func (c *continueFlag) IsBoolFlag() bool { return true }

// stringList collects a repeatable --file flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	autoSearch := fs.Bool("auto-search", false, "Ask the model whether a web search would help, and prefix its results")
	var files stringList
	fs.Var(&files, "file", "Allowlist a local file for the execute tool (repeatable)")
	var cont continueFlag
	fs.Var(&cont, "continue", "Continue a previous conversation: [MODE][=THREAD], modes auto|both|after|next")
	model := fs.String("model", "", "Model override (default AICLI_MODEL or "+toolloop.DefaultModel+")")
	maxTurns := fs.Int("max-turns", 0, "Max request/response turns (default 4, cap 32)")
	toolCalls := fs.Int("tool-calls", 0, "Max tool calls per turn (default 8, cap 64)")
	threads := fs.Int("threads", 0, "Worker threads for tool calls (default 1, cap 64)")
	toolChoice := fs.String("tool-choice", "", "Tool choice for the initial request: none|auto|required|NAME")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		return fmt.Errorf("%w: run needs a prompt", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	if *model != "" {
		cfg.Model = *model
	}

	list, err := buildAllowlist(files)
	if err != nil {
		return err
	}

	client := httpx.NewClient()
	reg := tools.NewRegistry(list,
		tools.SearchConfig{
			Preferred:    cfg.SearchProvider,
			GoogleAPIKey: cfg.GoogleAPIKey,
			GoogleCX:     cfg.GoogleCX,
			BraveAPIKey:  cfg.BraveAPIKey,
		},
		tools.WebFetchConfig{
			Prefixes:       cfg.WebFetchPrefixes,
			DebugAllowlist: cfg.DebugWebFetchAllowlist,
		},
		client, paging.New(64))

	opts := toolloop.Options{
		APIKey:              cfg.APIKey,
		BaseURL:             cfg.BaseURL,
		Model:               cfg.Model,
		MaxTurns:            *maxTurns,
		MaxToolCallsPerTurn: *toolCalls,
		ToolThreads:         *threads,
		ToolChoice:          *toolChoice,
		DebugAPI:            cfg.DebugAPI,
		DebugFunctionCall:   cfg.DebugFunctionCall,
	}

	var contOpt continuation.Option
	var statePath string
	if cont.set {
		contOpt, err = continuation.ParseOption(cont.raw)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		statePath, err = continuation.StatePath(sessionID(), contOpt)
		if err != nil {
			return err
		}
		if continuationReads(contOpt.Mode) {
			if id, ok, err := continuation.ReadID(statePath); err != nil {
				return err
			} else if ok {
				opts.PreviousResponseID = id
			}
		}
	}

	if *autoSearch {
		if query, ok := toolloop.PlanSearch(ctx, client, prompt, opts); ok {
			if results, ok := runAutoSearch(ctx, client, cfg, query); ok {
				prompt = "Web search results for \"" + query + "\":\n" + results +
					"\n\nUser prompt:\n" + prompt
			}
		}
	}

	res, err := toolloop.Run(ctx, client, reg, prompt, opts)

	// Persist the latest response id even on a failed run, so the
	// conversation can be resumed; last writer wins within a session.
	if cont.set && continuationWrites(contOpt.Mode) {
		if id, ok := toolloop.ExtractResponseID(res.LastResponseJSON); ok {
			if werr := continuation.WriteID(statePath, id); werr != nil {
				fmt.Fprintf(os.Stderr, "aicli: %v\n", werr)
			}
		}
	}
	if err != nil {
		return err
	}

	fmt.Println(res.FinalText)
	return nil
}

// continuationReads/Writes pin down the mode semantics: auto and both read
// the stored id and write the new one; after only reads (continue after a
// prior run, leave the state untouched); next only writes (start fresh,
// persist for the next invocation).
func continuationReads(m continuation.Mode) bool {
	return m == continuation.ModeAuto || m == continuation.ModeBoth || m == continuation.ModeAfter
}

func continuationWrites(m continuation.Mode) bool {
	return m == continuation.ModeAuto || m == continuation.ModeBoth || m == continuation.ModeNext
}

// sessionID keys the continuation state file to the invoking shell
// session. Go has no portable getsid(2); the parent pid gives the same
// rendezvous within one interactive shell.
func sessionID() int64 {
	return int64(os.Getppid())
}

// buildAllowlist canonicalizes and stats each --file argument into the
// immutable triple the executor gates on: canonical absolute path, display
// name as the user typed it, byte size.
func buildAllowlist(paths []string) (*allowlist.List, error) {
	entries := make([]allowlist.File, 0, len(paths))
	for _, p := range paths {
		canonical, err := allowlist.Canonicalize(p)
		if err != nil {
			return nil, fmt.Errorf("--file %s: %w", p, err)
		}
		info, err := os.Stat(canonical)
		if err != nil {
			return nil, fmt.Errorf("--file %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("--file %s: is a directory", p)
		}
		entries = append(entries, allowlist.File{
			CanonicalPath: canonical,
			DisplayName:   p,
			SizeBytes:     info.Size(),
		})
	}
	return allowlist.New(entries), nil
}

func runChat(ctx context.Context, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return fmt.Errorf("%w: chat needs a prompt", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}

	client := httpx.NewClient()
	reg := tools.NewRegistry(allowlist.New(nil), tools.SearchConfig{}, tools.WebFetchConfig{}, client, paging.New(64))
	res, err := toolloop.Run(ctx, client, reg, prompt, toolloop.Options{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		MaxTurns:          1,
		ToolChoice:        "none",
		DebugAPI:          cfg.DebugAPI,
		DebugFunctionCall: cfg.DebugFunctionCall,
	})
	if err != nil {
		return err
	}
	fmt.Println(res.FinalText)
	return nil
}

func runWeb(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "search" {
		return fmt.Errorf("%w: expected `aicli web search <query>`", errUsage)
	}

	fs := flag.NewFlagSet("web search", flag.ExitOnError)
	count := fs.Int("count", 5, "Max results")
	lang := fs.String("lang", "", "Language hint")
	freshness := fs.String("freshness", "", "Freshness: day|week|month")
	raw := fs.Bool("raw", false, "Print the provider's raw JSON")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("%w: web search needs a query", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	search := tools.SearchConfig{
		Preferred:    cfg.SearchProvider,
		GoogleAPIKey: cfg.GoogleAPIKey,
		GoogleCX:     cfg.GoogleCX,
		BraveAPIKey:  cfg.BraveAPIKey,
	}
	provider, missing, ok := search.Resolve("")
	if !ok {
		return fmt.Errorf("web search is not configured: set %s", strings.Join(missing, " or "))
	}

	body, err := provider.Search(ctx, httpx.NewClient(), query, tools.SearchOptions{
		Count:     *count,
		Lang:      *lang,
		Freshness: *freshness,
	})
	if err != nil {
		return err
	}
	if *raw {
		os.Stdout.Write(body)
		fmt.Println()
		return nil
	}
	fmt.Print(formatSearchResults(body, *count))
	return nil
}

// runAutoSearch performs the planner-suggested search and renders it for
// prefixing onto the prompt. Failures are non-fatal; the run proceeds
// without augmentation.
func runAutoSearch(ctx context.Context, client *httpx.Client, cfg config.Config, query string) (string, bool) {
	search := tools.SearchConfig{
		Preferred:    cfg.SearchProvider,
		GoogleAPIKey: cfg.GoogleAPIKey,
		GoogleCX:     cfg.GoogleCX,
		BraveAPIKey:  cfg.BraveAPIKey,
	}
	provider, _, ok := search.Resolve("")
	if !ok {
		return "", false
	}
	body, err := provider.Search(ctx, client, query, tools.SearchOptions{Count: 5})
	if err != nil {
		return "", false
	}
	formatted := formatSearchResults(body, 5)
	if formatted == "" {
		return "", false
	}
	return formatted, true
}

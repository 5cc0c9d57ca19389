package toolloop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aicligo/aicli/internal/httpx"
	"github.com/aicligo/aicli/internal/tools"
	"github.com/aicligo/aicli/internal/workerpool"
)

// DefaultBaseURL is used when the config carries no OPENAI_BASE_URL.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is the fallback when neither flag nor env names one.
const DefaultModel = "gpt-5-mini"

// Limits on the loop inputs: default and cap per knob.
const (
	DefaultMaxTurns            = 4
	MaxTurnsCap                = 32
	DefaultMaxToolCallsPerTurn = 8
	MaxToolCallsPerTurnCap     = 64
	DefaultToolThreads         = 1
	ToolThreadsCap             = 64
)

// Options configures one Run invocation.
type Options struct {
	APIKey  string
	BaseURL string // default DefaultBaseURL
	Model   string // default DefaultModel

	PreviousResponseID  string
	MaxTurns            int    // default 4, cap 32
	MaxToolCallsPerTurn int    // default 8, cap 64
	ToolThreads         int    // default 1, cap 64
	ToolChoice          string // none|auto|required or a tool name; initial request only

	// Debug levels (0 silent, 1 summaries, 2 truncated bodies, 3+
	// verbose), read once from config — never a global.
	DebugAPI          int
	DebugFunctionCall int
	Trace             io.Writer // debug destination; nil means os.Stderr
}

// Result carries the final text (when the model produced one) and the raw
// JSON of the last response observed, so the caller can extract its id
// for continuation regardless of how the run ended.
type Result struct {
	FinalText        string
	LastResponseJSON []byte
}

var (
	// ErrTurnBudgetExhausted is returned when max_turns passes without
	// the model yielding final text.
	ErrTurnBudgetExhausted = errors.New("turn budget exhausted without final text")
	// ErrNoRecognizedCalls is returned when a response carries neither
	// final text nor any schedulable tool call.
	ErrNoRecognizedCalls = errors.New("no recognized tool calls in response")
	// ErrMissingResponseID is returned when a response without final
	// text also lacks the id needed to link the follow-up.
	ErrMissingResponseID = errors.New("response has no id")
)

// HTTPError reports a main-request failure: a non-200 status or a
// transport error, with whatever body arrived so the CLI can print a
// truncated diagnostic.
type HTTPError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("responses api: http_status=%d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("responses api: http_status=%d", e.Status)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// toolCall is one scheduled call: the call id to echo, the tool to run,
// and the deep-copied arguments the worker runs against. Its index in the
// turn's call slice is its scan-order position, which fixes the
// output-item order.
type toolCall struct {
	callID string
	tool   tools.Tool
	args   map[string]any
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	o.MaxTurns = clampOption(o.MaxTurns, DefaultMaxTurns, MaxTurnsCap)
	o.MaxToolCallsPerTurn = clampOption(o.MaxToolCallsPerTurn, DefaultMaxToolCallsPerTurn, MaxToolCallsPerTurnCap)
	o.ToolThreads = clampOption(o.ToolThreads, DefaultToolThreads, ToolThreadsCap)
	if o.Trace == nil {
		o.Trace = os.Stderr
	}
}

func clampOption(v, def, cap int) int {
	if v <= 0 {
		return def
	}
	if v > cap {
		return cap
	}
	return v
}

// Run drives the tool loop to completion. transport performs the POSTs
// (with whatever retry policy it carries); reg supplies the tools and
// their schema document; userPrompt is the single user-text input of the
// initial request.
func Run(ctx context.Context, transport httpx.Transport, reg tools.Registry, userPrompt string, opts Options) (Result, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return Result{}, errors.New("empty prompt")
	}
	opts.applyDefaults()

	toolDefs := BuildToolSchema(reg)

	if opts.DebugAPI >= 1 {
		fmt.Fprintf(opts.Trace, "[debug:api] POST /v1/responses model=%s tool_choice=%s tools=%d\n",
			opts.Model, opts.ToolChoice, len(toolDefs))
	}
	if opts.DebugAPI >= 3 {
		if doc, err := json.Marshal(toolDefs); err == nil {
			debugPrintTrunc(opts.Trace, "[debug:api] tools_json", doc, debugMaxBytesForLevel(opts.DebugAPI))
		}
	}

	initial := request{
		Model:              opts.Model,
		PreviousResponseID: opts.PreviousResponseID,
		Input: []message{{
			Role:    "user",
			Content: []contentPart{{Type: "input_text", Text: userPrompt}},
		}},
		Tools:      toolDefs,
		ToolChoice: opts.ToolChoice,
	}
	body, err := postJSON(ctx, transport, opts, initial)
	if err != nil {
		return Result{}, err
	}

	var lastRaw []byte
	for turn := 0; turn < opts.MaxTurns; turn++ {
		resp, err := parseResponse(body)
		if err != nil {
			return Result{LastResponseJSON: lastRaw}, fmt.Errorf("parse response: %w", err)
		}

		if text, ok := firstOutputText(resp); ok {
			return Result{FinalText: text, LastResponseJSON: body}, nil
		}

		if resp.ID == "" {
			return Result{LastResponseJSON: lastRaw}, ErrMissingResponseID
		}
		// Keep the latest response JSON so callers can persist the id
		// even when the run ends without final text.
		lastRaw = body

		calls, firstInvalid := collectCalls(resp, reg, opts.MaxToolCallsPerTurn)
		if len(calls) == 0 {
			if firstInvalid != "" {
				return Result{LastResponseJSON: lastRaw},
					fmt.Errorf("invalid tool call (call_id=%s): %w", firstInvalid, ErrNoRecognizedCalls)
			}
			return Result{LastResponseJSON: lastRaw}, ErrNoRecognizedCalls
		}

		outputs := runCalls(ctx, calls, opts.ToolThreads)

		if opts.DebugFunctionCall >= 2 {
			for i, c := range calls {
				debugPrintTrunc(opts.Trace, "[debug:function_call] result call_id="+c.callID,
					[]byte(outputs[i]), debugMaxBytesForLevel(opts.DebugFunctionCall))
			}
		}

		// Output items go back in submission order, so call_id mapping
		// holds no matter which worker finished first.
		items := make([]functionCallOutput, len(calls))
		for i, c := range calls {
			items[i] = functionCallOutput{Type: "function_call_output", CallID: c.callID, Output: outputs[i]}
		}

		followUp := request{
			Model:              opts.Model,
			PreviousResponseID: resp.ID,
			Input:              items,
			Tools:              toolDefs,
		}
		body, err = postJSON(ctx, transport, opts, followUp)
		if err != nil {
			return Result{LastResponseJSON: lastRaw}, err
		}
	}

	return Result{LastResponseJSON: body}, ErrTurnBudgetExhausted
}

// collectCalls scans the output array for function_call items and builds
// the turn's working set, capped at maxCalls with overflow dropped in scan
// order. A call with no call id, an unknown tool name, undecodable
// arguments, or arguments the tool's schema rejects is dropped from
// scheduling; the first such call id is reported for the zero-calls
// diagnostic.
func collectCalls(resp *apiResponse, reg tools.Registry, maxCalls int) (calls []toolCall, firstInvalid string) {
	for _, item := range resp.Output {
		if len(calls) >= maxCalls {
			break
		}
		if item.Type != "function_call" || item.CallID == "" {
			continue
		}

		tool, ok := reg.Get(item.Name)
		if !ok {
			if firstInvalid == "" {
				firstInvalid = item.CallID
			}
			continue
		}
		args, err := decodeArguments(item.Arguments)
		if err != nil {
			if firstInvalid == "" {
				firstInvalid = item.CallID
			}
			continue
		}
		if err := tool.ValidateArgs(args); err != nil {
			if firstInvalid == "" {
				firstInvalid = item.CallID
			}
			continue
		}
		calls = append(calls, toolCall{callID: item.CallID, tool: tool, args: args})
	}
	return calls, firstInvalid
}

// runCalls fans the working set out over a fresh pool, drains it, and
// tears it down, exactly as the C loop creates and destroys its
// threadpool per turn. Each worker writes only its own slot, so no
// synchronization beyond the drain barrier is needed.
func runCalls(ctx context.Context, calls []toolCall, threads int) []string {
	pool := workerpool.New(threads)
	outputs := make([]string, len(calls))
	for i, c := range calls {
		i, c := i, c
		pool.Submit(func() {
			outputs[i] = c.tool.Call(ctx, c.args)
		})
	}
	pool.Drain()
	pool.Destroy()
	return outputs
}

func postJSON(ctx context.Context, transport httpx.Transport, opts Options, req request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if opts.DebugAPI >= 2 {
		debugPrintTrunc(opts.Trace, "[debug:api] request payload", payload, debugMaxBytesForLevel(opts.DebugAPI))
	}

	url := strings.TrimRight(opts.BaseURL, "/") + "/responses"
	headers := map[string]string{
		"Authorization": "Bearer " + opts.APIKey,
		"Content-Type":  "application/json",
	}
	status, body, err := transport.Post(ctx, url, headers, payload)

	if opts.DebugAPI >= 1 {
		fmt.Fprintf(opts.Trace, "[debug:api] response http_status=%d body_len=%d\n", status, len(body))
	}
	if opts.DebugAPI >= 2 && len(body) > 0 {
		debugPrintTrunc(opts.Trace, "[debug:api] response body", body, debugMaxBytesForLevel(opts.DebugAPI))
	}

	if err != nil {
		return nil, &HTTPError{Status: status, Body: body, Err: err}
	}
	if status != 200 || len(body) == 0 {
		return nil, &HTTPError{Status: status, Body: body}
	}
	return body, nil
}

// Package tools implements the five built-in tools the Responses API tool
// loop dispatches: execute, list_allowed_files, web_search, web_fetch, and
// cli_help. Each Tool pairs a JSON-schema-validated callable with the
// description/schema the model sees in the tool-schema document. The tool
// set is closed and fixed at five; nothing registers at runtime.
package tools

import (
	"context"
	"fmt"

	"github.com/aicligo/aicli/internal/toolerr"
	"github.com/xeipuuv/gojsonschema"
)

// Func executes one tool call against already-deep-copied arguments and
// returns the JSON text to embed (after double-encoding) as the
// function_call_output's "output" field. Most tools render an Envelope
// (the {ok,exit_code,stdout_text,...} shape); list_allowed_files renders
// its own distinct {ok,total,files,...} object instead.
//
// Tool failures are reported as a failure-shaped JSON body (see
// Envelope.JSON/FromError), not a Go error — the turn loop must keep
// going so the model can read stderr_text and adapt.
type Func func(ctx context.Context, args map[string]any) string

// Tool pairs one callable with the schema document the model sees and the
// JSON schema gojsonschema validates incoming arguments against.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          Func
}

// ValidateArgs checks args against the tool's declared JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("tool %s: schema validation failed: %w", t.Name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &ValidationError{ToolName: t.Name, Errors: msgs}
	}
	return nil
}

// ValidationError reports every schema violation for one tool call.
type ValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s: invalid arguments: %v", e.ToolName, e.Errors)
}

// Registry is the set of built-in tools dispatched by the tool loop, keyed
// by name.
type Registry map[string]Tool

// Get looks up a tool by name.
func (r Registry) Get(name string) (Tool, bool) {
	t, ok := r[name]
	return t, ok
}

// Names returns every registered tool name in map iteration order, which
// is not stable between calls. BuildToolSchema applies its own fixed order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// Call validates args, invokes the tool, and always returns JSON text for
// the output field — a validation failure renders as an invalid_request
// Envelope rather than a Go error, keeping the caller's dispatch loop free
// of error-vs-output branching.
func (t Tool) Call(ctx context.Context, args map[string]any) string {
	if err := t.ValidateArgs(args); err != nil {
		return FromError(toolerr.New(toolerr.CodeInvalidRequest)).JSON()
	}
	return t.Fn(ctx, args)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

package tools

import (
	"fmt"
	"strings"

	"github.com/aicligo/aicli/internal/toolerr"
)

// Envelope is the tool result object fed back to the model for every
// call: {ok, exit_code, stdout_text, stderr_text, total_bytes, truncated,
// cache_hit, next_start}.
//
// Rendering is split across two layers: Envelope.JSON renders this inner
// object, escaping stdout_text/stderr_text with the byte-wise escaper in
// jsonenc.go; internal/toolloop wraps it in the outer function_call_output
// item using encoding/json, which escapes the inner text a second time
// when it lands in a Go string field.
type Envelope struct {
	OK         bool
	ExitCode   int
	StdoutText []byte
	StderrText string
	TotalBytes int
	Truncated  bool
	CacheHit   bool
	// NextStart is nil when there is no further page, matching the
	// original's has_next_start ? next_start : null.
	NextStart *int
}

// JSON renders the inner tool-result object as compact JSON text.
func (e Envelope) JSON() string {
	var b strings.Builder
	b.WriteString(`{"ok":`)
	b.WriteString(boolJSON(e.OK))
	fmt.Fprintf(&b, `,"exit_code":%d`, e.ExitCode)
	b.WriteString(`,"stdout_text":`)
	b.WriteString(jsonString(e.StdoutText))
	b.WriteString(`,"stderr_text":`)
	b.WriteString(jsonString([]byte(e.StderrText)))
	fmt.Fprintf(&b, `,"total_bytes":%d`, e.TotalBytes)
	b.WriteString(`,"truncated":`)
	b.WriteString(boolJSON(e.Truncated))
	b.WriteString(`,"cache_hit":`)
	b.WriteString(boolJSON(e.CacheHit))
	b.WriteString(`,"next_start":`)
	if e.NextStart != nil {
		fmt.Fprintf(&b, "%d", *e.NextStart)
	} else {
		b.WriteString("null")
	}
	b.WriteString("}")
	return b.String()
}

func boolJSON(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// FromError builds the failure-shaped envelope for a *toolerr.Error: no
// stdout, the taxonomy's exit code, and the taxonomy keyword as
// stderr_text.
func FromError(err *toolerr.Error) Envelope {
	return Envelope{ExitCode: err.ExitCode(), StderrText: err.Keyword()}
}

func intPtr(v int) *int { return &v }

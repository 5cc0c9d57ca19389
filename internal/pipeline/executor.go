package pipeline

import (
	"os"

	"github.com/aicligo/aicli/internal/allowlist"
	"github.com/aicligo/aicli/internal/buf"
	"github.com/aicligo/aicli/internal/dsl"
	"github.com/aicligo/aicli/internal/toolerr"
)

// Resource caps enforced around file reads and stage output.
const (
	MaxFileReadBytes = 1 << 20        // 1 MiB: the whole source file, read once by the synthetic/explicit cat stage
	MaxLineInBytes   = 64 * 1024      // 64 KiB: longest line any stage will accept as input
	MaxLineOutBytes  = 256 * 1024     // 256 KiB: longest line any stage may produce
	MaxPageSize      = 4096           // byte window cap applied to the final result before returning
)

// Result is the outcome of a successful Execute call, before paging of the
// final buffer (callers page the returned bytes with Page).
type Result struct {
	Output []byte
}

// Execute reads the file named by pipeline's (possibly normalized) cat
// stage from the allowlist, then runs every remaining stage over the bytes
// in order, enforcing the line-length caps between stages. The pipeline
// must already be parsed (internal/dsl) and normalized (Normalize).
func Execute(list *allowlist.List, p *dsl.Pipeline) (Result, *toolerr.Error) {
	if len(p.Stages) == 0 {
		return Result{}, toolerr.New(toolerr.CodeEmpty)
	}
	if p.Stages[0].Kind != dsl.KindCat {
		return Result{}, toolerr.New(toolerr.CodeMVPRequires)
	}

	data, terr := readAllowlistedFile(list, p.Stages[0].Argv)
	if terr != nil {
		return Result{}, terr
	}

	if terr := checkLineLengths(data, MaxLineInBytes); terr != nil {
		return Result{}, terr
	}

	current := data
	scratchA := buf.New(len(data))
	scratchB := buf.New(len(data))

	for i, st := range p.Stages[1:] {
		out := scratchA
		if i%2 == 1 {
			out = scratchB
		}
		out.Reset()

		if aerr := dsl.Apply(st, current, out); aerr != nil {
			return Result{}, MapParseError(aerr)
		}
		if terr := checkLineLengths(out.Bytes(), MaxLineOutBytes); terr != nil {
			return Result{}, terr
		}
		current = out.Clone()
	}

	return Result{Output: current}, nil
}

func readAllowlistedFile(list *allowlist.List, catArgv []string) ([]byte, *toolerr.Error) {
	if len(catArgv) != 2 {
		return nil, toolerr.New(toolerr.CodeParseError)
	}
	requested := catArgv[1]

	canonical, err := allowlist.Canonicalize(requested)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.CodeInvalidPath, err)
	}

	entry, ok := list.Lookup(canonical)
	if !ok {
		return nil, toolerr.New(toolerr.CodeFileNotAllowed)
	}
	if entry.SizeBytes > MaxFileReadBytes {
		return nil, toolerr.New(toolerr.CodeFileTooLarge)
	}

	data, err := os.ReadFile(entry.CanonicalPath)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.CodeInvalidPath, err)
	}
	if len(data) > MaxFileReadBytes {
		return nil, toolerr.New(toolerr.CodeFileTooLarge)
	}
	return data, nil
}

// checkLineLengths rejects an input if any '\n'-delimited line exceeds
// max, enforcing the stage-to-stage byte caps. An over-cap line fails the
// stage (exit 2, mvp_unsupported_stage), same as any other stage the
// executor can't run.
func checkLineLengths(data []byte, max int) *toolerr.Error {
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			if i-start > max {
				return toolerr.New(toolerr.CodeMVPUnsupportedStage)
			}
			start = i + 1
		}
	}
	return nil
}

// MapParseError translates a dsl.ParseError status into its exit-taxonomy
// Code. Exported so internal/tools can reuse it for dsl.Parse's own parse
// errors (which happen before a Pipeline ever reaches Execute).
func MapParseError(e *dsl.ParseError) *toolerr.Error {
	switch e.Status {
	case dsl.StatusEmpty:
		return toolerr.New(toolerr.CodeEmpty)
	case dsl.StatusForbidden:
		return toolerr.New(toolerr.CodeForbidden)
	case dsl.StatusTooManyStages:
		return toolerr.New(toolerr.CodeTooManyStages)
	case dsl.StatusTooManyArgs:
		return toolerr.New(toolerr.CodeTooManyArgs)
	case dsl.StatusUnsupportedStage:
		return toolerr.New(toolerr.CodeMVPUnsupportedStage)
	default:
		return toolerr.New(toolerr.CodeParseError)
	}
}

// Page returns the [start, start+size) byte window of data, capping size at
// MaxPageSize and reporting whether more bytes remain after the window.
func Page(data []byte, start, size int) (window []byte, total int, truncated bool, nextStart int, hasNext bool) {
	total = len(data)
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	if start < 0 {
		start = 0
	}
	if start >= total {
		return nil, total, false, 0, false
	}
	end := start + size
	if end >= total {
		end = total
		return data[start:end], total, false, 0, false
	}
	return data[start:end], total, true, end, true
}


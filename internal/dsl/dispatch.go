package dsl

import "github.com/aicligo/aicli/internal/buf"

// Apply runs the stage transformer named by st.Kind against in, writing
// the result into out. cat is handled by the caller (internal/pipeline
// owns file reads); Apply only covers the seven byte-transform stages.
//
// A *ParseError with StatusUnsupportedStage is returned when the stage's
// own arguments don't parse (bad flag, non-numeric count, malformed sed
// script) — argv shape was already accepted by Parse, but per-stage
// argument semantics are stage-specific and checked here.
func Apply(st Stage, in []byte, out *buf.Buffer) *ParseError {
	switch st.Kind {
	case KindNl:
		ApplyNl(in, out)
		return nil
	case KindHead:
		opts, ok := ParseHeadN(st.Argv)
		if !ok {
			return NewParseError(StatusUnsupportedStage)
		}
		ApplyHead(in, opts.N, out)
		return nil
	case KindTail:
		opts, ok := ParseTailN(st.Argv)
		if !ok {
			return NewParseError(StatusUnsupportedStage)
		}
		ApplyTail(in, opts.N, out)
		return nil
	case KindWc:
		mode, ok := ParseWcMode(st.Argv)
		if !ok {
			return NewParseError(StatusUnsupportedStage)
		}
		ApplyWc(in, mode, out)
		return nil
	case KindSort:
		reverse, ok := ParseSortReverse(st.Argv)
		if !ok {
			return NewParseError(StatusUnsupportedStage)
		}
		ApplySort(in, reverse, out)
		return nil
	case KindGrep:
		opts, ok := ParseGrepArgs(st.Argv)
		if !ok {
			return NewParseError(StatusUnsupportedStage)
		}
		ApplyGrep(in, opts, out)
		return nil
	case KindSed:
		opts, ok := ParseSedArgs(st.Argv)
		if !ok {
			return NewParseError(StatusUnsupportedStage)
		}
		ApplySed(in, opts, out)
		return nil
	default:
		return NewParseError(StatusUnsupportedStage)
	}
}

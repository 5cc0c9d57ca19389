// Package pipeline executes a parsed dsl.Pipeline against an allowlisted
// file: it normalises a model-proposed pipeline missing its leading `cat`
// stage, gates the target file against the allowlist, applies the stage
// chain under fixed resource caps, and pages the final result.
package pipeline

import "github.com/aicligo/aicli/internal/dsl"

// Normalize rewrites pipelines of the shape `head -n 20 FILE` (or
// `tail`/`nl`/`sed` with a trailing file argument and no explicit `cat`
// stage) into `cat FILE | head -n 20`, matching the convenience form models
// frequently emit. Pipelines that already open with `cat` are returned
// unchanged. Any other stage 0 kind (wc, sort, grep) is left as-is; the
// executor will reject it at read time for having no file source — the
// trailing-file convenience covers only the stages models actually emit
// that way.
func Normalize(p *dsl.Pipeline) *dsl.Pipeline {
	if len(p.Stages) == 0 || p.Stages[0].Kind == dsl.KindCat {
		return p
	}

	first := p.Stages[0]
	file, trimmedArgv, ok := stripTrailingFile(first)
	if !ok {
		return p
	}

	normalized := &dsl.Pipeline{
		Stages: make([]dsl.Stage, 0, len(p.Stages)+1),
	}
	normalized.Stages = append(normalized.Stages, dsl.Stage{
		Kind: dsl.KindCat,
		Argv: []string{"cat", file},
	})
	normalized.Stages = append(normalized.Stages, dsl.Stage{Kind: first.Kind, Argv: trimmedArgv})
	normalized.Stages = append(normalized.Stages, p.Stages[1:]...)
	return normalized
}

// stripTrailingFile checks whether dropping st's last argv entry still
// leaves a validly-shaped stage for its kind; if so, that entry is the
// implicit file argument to hoist into a synthetic `cat`.
func stripTrailingFile(st dsl.Stage) (file string, trimmedArgv []string, ok bool) {
	if len(st.Argv) < 2 {
		return "", nil, false
	}
	file = st.Argv[len(st.Argv)-1]
	trimmedArgv = st.Argv[:len(st.Argv)-1]

	switch st.Kind {
	case dsl.KindNl:
		// nl takes no arguments at all; any single trailing token is the file.
		if len(trimmedArgv) == 1 {
			return file, trimmedArgv, true
		}
		return "", nil, false
	case dsl.KindHead:
		if _, valid := dsl.ParseHeadN(trimmedArgv); valid {
			return file, trimmedArgv, true
		}
		return "", nil, false
	case dsl.KindTail:
		if _, valid := dsl.ParseTailN(trimmedArgv); valid {
			return file, trimmedArgv, true
		}
		return "", nil, false
	case dsl.KindSed:
		if _, valid := dsl.ParseSedArgs(trimmedArgv); valid {
			return file, trimmedArgv, true
		}
		return "", nil, false
	default:
		return "", nil, false
	}
}

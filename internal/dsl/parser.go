package dsl

import "strings"

// isForbiddenChar rejects shell metacharacters outside quotes. '|' is not
// checked here: it's the stage separator and is handled by the caller.
func isForbiddenChar(c byte) bool {
	switch c {
	case ';', '&', '>', '<', '$', '`', '\n', '\r':
		return true
	default:
		return false
	}
}

// isForbiddenCharInQuote is the narrower set checked inside a quoted token:
// spaces and '|' are allowed through as data.
func isForbiddenCharInQuote(c byte) bool {
	switch c {
	case '$', '`', '\n', '\r':
		return true
	default:
		return false
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipWS() {
	for sc.pos < len(sc.s) && isSpace(sc.s[sc.pos]) {
		sc.pos++
	}
}

func (sc *scanner) peek() (byte, bool) {
	if sc.pos >= len(sc.s) {
		return 0, false
	}
	return sc.s[sc.pos], true
}

// readToken consumes one token starting at the current position: a quoted
// run ('...'/"..." with minimal backslash escapes inside double quotes) or
// a bare run terminated by whitespace or '|'. Returns ok=false on any
// malformed input (unterminated quote, forbidden char, token too long,
// trailing backslash).
func (sc *scanner) readToken() (tok string, ok bool) {
	sc.skipWS()
	c, more := sc.peek()
	if !more {
		return "", false
	}

	var b strings.Builder

	if c == '\'' || c == '"' {
		quote := c
		sc.pos++
		for {
			c, more = sc.peek()
			if !more {
				return "", false
			}
			if c == quote {
				break
			}
			if quote == '"' && c == '\\' {
				sc.pos++
				c, more = sc.peek()
				if !more {
					return "", false
				}
			}
			if isForbiddenCharInQuote(c) {
				return "", false
			}
			if b.Len()+1 >= MaxTokenBytes {
				return "", false
			}
			b.WriteByte(c)
			sc.pos++
		}
		c, more = sc.peek()
		if !more || c != quote {
			return "", false
		}
		sc.pos++
	} else {
		for {
			c, more = sc.peek()
			if !more || isSpace(c) || c == '|' {
				break
			}
			if c == '\\' {
				sc.pos++
				c, more = sc.peek()
				if !more {
					return "", false
				}
			}
			if isForbiddenChar(c) {
				return "", false
			}
			if b.Len()+1 >= MaxTokenBytes {
				return "", false
			}
			b.WriteByte(c)
			sc.pos++
		}
	}

	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// Parse tokenises and validates command into a Pipeline: a single
// forbidden-char sweep over the whole string first (so an embedded
// metacharacter is rejected even inside what would otherwise look like a
// later stage), then stage-by-stage tokenising with the stage/arg/token
// caps enforced as they're hit.
func Parse(command string) (*Pipeline, *ParseError) {
	if command == "" {
		return nil, NewParseError(StatusEmpty)
	}

	for i := 0; i < len(command); i++ {
		c := command[i]
		if c == '|' {
			continue
		}
		if isForbiddenChar(c) {
			return nil, NewParseError(StatusForbidden)
		}
	}

	sc := &scanner{s: command}
	pipeline := &Pipeline{}

	for {
		sc.skipWS()
		c, more := sc.peek()
		if !more {
			break
		}
		_ = c

		if len(pipeline.Stages) >= MaxStages {
			return nil, NewParseError(StatusTooManyStages)
		}

		tok, ok := sc.readToken()
		if !ok {
			return nil, NewParseError(StatusParseError)
		}
		kind := kindFromToken(tok)
		if kind == KindUnknown {
			return nil, NewParseError(StatusForbidden)
		}
		stage := Stage{Kind: kind, Argv: []string{tok}}

		for {
			sc.skipWS()
			c, more = sc.peek()
			if !more || c == '|' {
				break
			}
			if len(stage.Argv) >= MaxArgsPerStage {
				return nil, NewParseError(StatusTooManyArgs)
			}
			tok, ok = sc.readToken()
			if !ok {
				return nil, NewParseError(StatusParseError)
			}
			stage.Argv = append(stage.Argv, tok)
		}

		pipeline.Stages = append(pipeline.Stages, stage)

		sc.skipWS()
		c, more = sc.peek()
		if more && c == '|' {
			sc.pos++
			continue
		}
		break
	}

	if len(pipeline.Stages) == 0 {
		return nil, NewParseError(StatusEmpty)
	}
	return pipeline, nil
}

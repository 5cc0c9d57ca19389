package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aicligo/aicli/internal/buf"
)

// stripDoubleDash drops a bare "--" end-of-options marker from argv. It
// does not implement option permutation: flags must appear before
// positional arguments.
func stripDoubleDash(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		if a == "--" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// HeadOptions holds the parsed form of a `head` stage.
type HeadOptions struct {
	N int
}

// ParseHeadN parses `head` / `head -nN` / `head -n N`, defaulting to 10.
func ParseHeadN(argv []string) (HeadOptions, bool) {
	a := stripDoubleDash(argv)
	switch {
	case len(a) == 1:
		return HeadOptions{N: 10}, true
	case len(a) == 2 && strings.HasPrefix(a[1], "-n") && len(a[1]) > 2:
		v, err := strconv.Atoi(a[1][2:])
		if err != nil || v < 0 {
			return HeadOptions{}, false
		}
		return HeadOptions{N: v}, true
	case len(a) == 3 && a[1] == "-n":
		v, err := strconv.Atoi(a[2])
		if err != nil || v < 0 {
			return HeadOptions{}, false
		}
		return HeadOptions{N: v}, true
	default:
		return HeadOptions{}, false
	}
}

// TailOptions holds the parsed form of a `tail` stage.
type TailOptions struct {
	N int
}

// ParseTailN parses `tail` / `tail -nN` / `tail -n N`, defaulting to 10.
func ParseTailN(argv []string) (TailOptions, bool) {
	h, ok := ParseHeadN(argv)
	return TailOptions{N: h.N}, ok
}

// WcMode selects which count(s) `wc` reports.
type WcMode byte

const (
	WcLines WcMode = 'l'
	WcBytes WcMode = 'c'
	WcWords WcMode = 'w'
)

// ParseWcMode parses `wc -l` / `wc -c` / `wc -w`; exactly one mode flag
// is required.
func ParseWcMode(argv []string) (WcMode, bool) {
	a := stripDoubleDash(argv)
	if len(a) != 2 {
		return 0, false
	}
	switch a[1] {
	case "-l":
		return WcLines, true
	case "-c":
		return WcBytes, true
	case "-w":
		return WcWords, true
	default:
		return 0, false
	}
}

// ParseSortReverse parses `sort` / `sort -r`.
func ParseSortReverse(argv []string) (reverse bool, ok bool) {
	a := stripDoubleDash(argv)
	if len(a) == 1 {
		return false, true
	}
	if len(a) == 2 && a[1] == "-r" {
		return true, true
	}
	return false, false
}

// GrepOptions holds the parsed form of a `grep` stage.
type GrepOptions struct {
	Pattern      string
	LineNumbers  bool
	Invert       bool
	FixedStrings bool
	Regexp       *regexp.Regexp // nil when FixedStrings is true
}

// ParseGrepArgs parses `grep [-n] [-v] [-F] PATTERN`. Flags may appear in
// any order before the trailing pattern. Default mode (no -F) compiles
// PATTERN as a Go regexp.
func ParseGrepArgs(argv []string) (GrepOptions, bool) {
	a := stripDoubleDash(argv)
	if len(a) < 2 {
		return GrepOptions{}, false
	}
	opts := GrepOptions{}
	i := 1
	for ; i < len(a)-1; i++ {
		switch a[i] {
		case "-n":
			opts.LineNumbers = true
		case "-v":
			opts.Invert = true
		case "-F":
			opts.FixedStrings = true
		default:
			return GrepOptions{}, false
		}
	}
	opts.Pattern = a[len(a)-1]
	if !opts.FixedStrings {
		re, err := regexp.Compile(opts.Pattern)
		if err != nil {
			return GrepOptions{}, false
		}
		opts.Regexp = re
	}
	return opts, true
}

// SedOptions holds the parsed form of a `sed -n ...` stage.
type SedOptions struct {
	// Numeric-address form.
	StartLine, EndLine int
	Cmd                byte // 'p' or 'd'
	NumericAddress     bool

	// Regex-address form: /RE/[,/RE/](p|d).
	StartRe, EndRe *regexp.Regexp

	// Substitution form: s/RE/REPL/[gp].
	Substitute bool
	SubRe      *regexp.Regexp
	SubRepl    string
	SubGlobal  bool
	SubPrint   bool
}

// ParseSedArgs parses `sed -n SCRIPT`. SCRIPT is one of:
//   - "Np" / "Nd"           (numeric address)
//   - "N,Mp" / "N,Md"       (numeric range)
//   - "/RE/p" / "/RE/d"     (regex address)
//   - "/RE1/,/RE2/p" / "d"  (regex range)
//   - "s/RE/REPL/[gp]"      (substitution)
func ParseSedArgs(argv []string) (SedOptions, bool) {
	a := stripDoubleDash(argv)
	if len(a) != 3 || a[1] != "-n" {
		return SedOptions{}, false
	}
	script := a[2]

	if strings.HasPrefix(script, "s/") {
		return parseSedSubstitute(script)
	}
	if strings.HasPrefix(script, "/") {
		return parseSedRegexAddress(script)
	}
	return parseSedNumericAddress(script)
}

func parseSedNumericAddress(script string) (SedOptions, bool) {
	if script == "" {
		return SedOptions{}, false
	}
	cmd := script[len(script)-1]
	if cmd != 'p' && cmd != 'd' {
		return SedOptions{}, false
	}
	body := script[:len(script)-1]
	var start, end int
	if comma := strings.IndexByte(body, ','); comma >= 0 {
		v1, err1 := strconv.Atoi(body[:comma])
		v2, err2 := strconv.Atoi(body[comma+1:])
		if err1 != nil || err2 != nil || v1 <= 0 || v2 <= 0 || v1 > v2 {
			return SedOptions{}, false
		}
		start, end = v1, v2
	} else {
		v, err := strconv.Atoi(body)
		if err != nil || v <= 0 {
			return SedOptions{}, false
		}
		start, end = v, v
	}
	return SedOptions{StartLine: start, EndLine: end, Cmd: cmd, NumericAddress: true}, true
}

// splitSedSlashField reads one /.../ field starting at s[0]=='/', returning
// the field body and the remaining suffix after the closing slash.
func splitSedSlashField(s string) (body, rest string, ok bool) {
	if len(s) == 0 || s[0] != '/' {
		return "", "", false
	}
	idx := strings.IndexByte(s[1:], '/')
	if idx < 0 {
		return "", "", false
	}
	return s[1 : 1+idx], s[1+idx+1:], true
}

func parseSedRegexAddress(script string) (SedOptions, bool) {
	reBody, rest, ok := splitSedSlashField(script)
	if !ok {
		return SedOptions{}, false
	}
	startRe, err := regexp.Compile(reBody)
	if err != nil {
		return SedOptions{}, false
	}

	opts := SedOptions{StartRe: startRe}

	if strings.HasPrefix(rest, ",") {
		reBody2, rest2, ok2 := splitSedSlashField(rest[1:])
		if !ok2 {
			return SedOptions{}, false
		}
		endRe, err2 := regexp.Compile(reBody2)
		if err2 != nil {
			return SedOptions{}, false
		}
		opts.EndRe = endRe
		rest = rest2
	}

	if rest != "p" && rest != "d" {
		return SedOptions{}, false
	}
	opts.Cmd = rest[0]
	return opts, true
}

func parseSedSubstitute(script string) (SedOptions, bool) {
	body := script[1:] // drop leading 's'
	if len(body) == 0 || body[0] != '/' {
		return SedOptions{}, false
	}
	parts := splitUnescapedSlash(body[1:], 2)
	if len(parts) != 3 {
		return SedOptions{}, false
	}
	reBody, repl, flags := parts[0], parts[1], parts[2]
	re, err := regexp.Compile(reBody)
	if err != nil {
		return SedOptions{}, false
	}
	opts := SedOptions{Substitute: true, SubRe: re, SubRepl: repl}
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case 'g':
			opts.SubGlobal = true
		case 'p':
			opts.SubPrint = true
		default:
			return SedOptions{}, false
		}
	}
	return opts, true
}

// splitUnescapedSlash splits s on '/' into exactly n+1 parts, honoring
// backslash-escaped slashes within a field as literal.
func splitUnescapedSlash(s string, n int) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '/' {
			cur.WriteByte('/')
			i++
			continue
		}
		if s[i] == '/' && len(parts) < n {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(s[i])
	}
	parts = append(parts, cur.String())
	return parts
}

// forEachLine invokes fn(line, lineNo, isLast) for each line in in,
// splitting on '\n' without including it. The final call (i==len(in)) is
// flagged isLast; for a '\n'-terminated input this is an empty trailing
// segment, which every stage must tolerate.
func forEachLine(in []byte, fn func(line []byte, lineNo int, isLast bool)) {
	lineNo := 1
	start := 0
	for i := 0; i <= len(in); i++ {
		if i == len(in) || in[i] == '\n' {
			fn(in[start:i], lineNo, i == len(in))
			lineNo++
			start = i + 1
		}
	}
}

// ApplyNl numbers every line "%6d\t<line>". The empty segment after a
// final '\n' is not a line and is not numbered; a non-empty final segment
// gets no trailing newline, so the output ends in '\n' exactly when the
// input did.
func ApplyNl(in []byte, out *buf.Buffer) {
	forEachLine(in, func(line []byte, lineNo int, isLast bool) {
		if isLast && len(line) == 0 {
			return
		}
		out.AppendString(fmt.Sprintf("%6d\t", lineNo))
		out.Append(line)
		if !isLast {
			out.AppendByte('\n')
		}
	})
}

// ApplyHead copies the first n lines of in, byte-for-byte including
// whatever trailing newline state the input had.
func ApplyHead(in []byte, n int, out *buf.Buffer) {
	if n == 0 {
		return
	}
	lines := 0
	for i := 0; i < len(in); i++ {
		out.AppendByte(in[i])
		if in[i] == '\n' {
			lines++
			if lines >= n {
				return
			}
		}
	}
}

// ApplyTail copies the last n lines of in.
func ApplyTail(in []byte, n int, out *buf.Buffer) {
	if n == 0 {
		return
	}
	// A final line without '\n' is a line of its own, so one fewer
	// separator has to be passed to reach the start of the last n lines.
	target := n + 1
	if len(in) > 0 && in[len(in)-1] != '\n' {
		target = n
	}
	lines := 0
	for i := len(in); i > 0; i-- {
		if in[i-1] == '\n' {
			lines++
			if lines == target {
				out.Append(in[i:])
				return
			}
		}
	}
	out.Append(in)
}

// ApplyWc reports a single count. -w counts POSIX whitespace-delimited
// word runs.
func ApplyWc(in []byte, mode WcMode, out *buf.Buffer) {
	var v int
	switch mode {
	case WcBytes:
		v = len(in)
	case WcLines:
		for _, c := range in {
			if c == '\n' {
				v++
			}
		}
	case WcWords:
		inWord := false
		for _, c := range in {
			isSp := c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
			if !isSp && !inWord {
				v++
				inWord = true
			} else if isSp {
				inWord = false
			}
		}
	}
	out.AppendString(strconv.Itoa(v))
	out.AppendByte('\n')
}

// ApplySort splits on '\n', sorts lines lexicographically (byte order)
// and rejoins with a trailing '\n' per line. The sort is stable so equal
// lines keep their input order deterministically.
func ApplySort(in []byte, reverse bool, out *buf.Buffer) {
	if len(in) == 0 {
		return
	}
	var lines [][]byte
	start := 0
	for i := 0; i <= len(in); i++ {
		if i == len(in) || in[i] == '\n' {
			if i == len(in) && start == i {
				break // no trailing empty line when input ends in '\n'
			}
			lines = append(lines, in[start:i])
			start = i + 1
		}
	}
	stableSortLines(lines, reverse)
	for _, l := range lines {
		out.Append(l)
		out.AppendByte('\n')
	}
}

func stableSortLines(lines [][]byte, reverse bool) {
	less := func(i, j int) bool {
		c := compareBytes(lines[i], lines[j])
		if reverse {
			return c > 0
		}
		return c < 0
	}
	insertionSortStable(lines, less)
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// insertionSortStable is a simple stable sort; pipeline inputs are paged and
// bounded (resource caps in internal/pipeline), so O(n^2) is acceptable and
// keeps this free of any extra dependency.
func insertionSortStable(lines [][]byte, less func(i, j int) bool) {
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}

// ApplyGrep filters lines by substring or regexp match. An empty pattern
// matches nothing; that is the documented contract, not an accident.
func ApplyGrep(in []byte, opts GrepOptions, out *buf.Buffer) {
	if opts.Pattern == "" {
		return
	}
	forEachLine(in, func(line []byte, lineNo int, isLast bool) {
		if isLast && len(line) == 0 {
			return
		}
		var match bool
		if opts.FixedStrings {
			match = strings.Contains(string(line), opts.Pattern)
		} else {
			match = opts.Regexp.Match(line)
		}
		if opts.Invert {
			match = !match
		}
		if !match {
			return
		}
		if opts.LineNumbers {
			out.AppendString(strconv.Itoa(lineNo))
			out.AppendByte(':')
		}
		out.Append(line)
		out.AppendByte('\n')
	})
}

// ApplySed runs a sed -n script: numeric/regex address p|d, or a
// substitute form.
func ApplySed(in []byte, opts SedOptions, out *buf.Buffer) {
	if opts.Substitute {
		applySedSubstitute(in, opts, out)
		return
	}

	var activeRegexRange bool
	forEachLine(in, func(line []byte, lineNo int, isLast bool) {
		if isLast && len(line) == 0 {
			return
		}
		var inRange bool
		switch {
		case opts.NumericAddress:
			inRange = lineNo >= opts.StartLine && lineNo <= opts.EndLine
		case opts.EndRe == nil:
			inRange = opts.StartRe.Match(line)
		default:
			if !activeRegexRange && opts.StartRe.Match(line) {
				activeRegexRange = true
			}
			inRange = activeRegexRange
			if activeRegexRange && opts.EndRe.Match(line) {
				activeRegexRange = false
			}
		}

		emit := inRange
		if opts.Cmd == 'd' {
			emit = !inRange
		}
		if emit {
			out.Append(line)
			out.AppendByte('\n')
		}
	})
}

// MaxSubstitutionsPerLine bounds how many matches a global `s///g`
// substitution will rewrite on a single line; matches beyond the cap are
// left untouched rather than rewritten, a defensive limit against a
// pathological pattern/line combination rather than a realistic case.
const MaxSubstitutionsPerLine = 4096

func applySedSubstitute(in []byte, opts SedOptions, out *buf.Buffer) {
	forEachLine(in, func(line []byte, lineNo int, _ bool) {
		replaced := line
		substituted := false
		if opts.SubGlobal {
			count := 0
			replaced = opts.SubRe.ReplaceAllFunc(line, func(m []byte) []byte {
				count++
				if count > MaxSubstitutionsPerLine {
					return m
				}
				substituted = true
				return opts.SubRe.ReplaceAll(m, []byte(opts.SubRepl))
			})
		} else {
			loc := opts.SubRe.FindIndex(line)
			if loc != nil {
				substituted = true
				var b strings.Builder
				b.Write(line[:loc[0]])
				b.WriteString(string(opts.SubRe.ExpandString(nil, opts.SubRepl, string(line), loc)))
				b.Write(line[loc[1]:])
				replaced = []byte(b.String())
			}
		}
		// Under "-n", auto-print is suppressed; a substitution's result is
		// only emitted when the trailing "p" flag is present and a match
		// actually occurred, matching sed -n's "s///p" semantics.
		if opts.SubPrint && substituted {
			out.Append(replaced)
			out.AppendByte('\n')
		}
	})
}

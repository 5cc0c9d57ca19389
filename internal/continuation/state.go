// Package continuation persists the previous-turn response id so a later
// CLI invocation can resume the same Responses API conversation via
// previous_response_id: one tiny state file per shell session, written
// atomically.
package continuation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mode selects whether a run reads the stored id, writes the new one, or
// both.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeBoth  Mode = "both"
	ModeAfter Mode = "after"
	ModeNext  Mode = "next"
)

// Option is the parsed form of a `--continue[=MODE[=THREAD]]` flag.
type Option struct {
	Mode       Mode
	ThreadName string
	HasThread  bool
}

// sanitizeThreadName keeps alnum/-/_ as-is, maps space/./:// to '_', and
// drops everything else. Truncated to 63 bytes so the name stays a safe
// filename component.
func sanitizeThreadName(in string) (name string, ok bool) {
	if in == "" {
		return "", false
	}
	var b strings.Builder
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '.', r == ':', r == '/':
			b.WriteByte('_')
		default:
			// dropped
		}
		if b.Len() >= 63 {
			break
		}
	}
	name = b.String()
	return name, name != ""
}

// ParseOption parses the optarg of a `--continue` flag: "", a bare mode,
// "MODE=THREAD", or a bare thread name (when the token isn't a recognized
// mode).
func ParseOption(optarg string) (Option, error) {
	opt := Option{Mode: ModeAuto}
	if optarg == "" {
		return opt, nil
	}

	if eq := strings.IndexByte(optarg, '='); eq >= 0 {
		modeStr, threadStr := optarg[:eq], optarg[eq+1:]
		mode, ok := parseMode(modeStr)
		if !ok {
			return Option{}, fmt.Errorf("continuation: unknown mode %q", modeStr)
		}
		opt.Mode = mode
		opt.ThreadName, opt.HasThread = sanitizeThreadName(threadStr)
		return opt, nil
	}

	if mode, ok := parseMode(optarg); ok {
		opt.Mode = mode
		return opt, nil
	}

	opt.ThreadName, opt.HasThread = sanitizeThreadName(optarg)
	return opt, nil
}

func parseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeAuto, ModeBoth, ModeAfter, ModeNext:
		return Mode(s), true
	default:
		return "", false
	}
}

// StatePath returns the continuation-state file path for sid, preferring
// XDG_RUNTIME_DIR, then TMPDIR, then /tmp, and creating the aicli
// subdirectory (mode 0700) if needed.
func StatePath(sid int64, opt Option) (string, error) {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.Getenv("TMPDIR")
	}
	if base == "" {
		base = "/tmp"
	}

	dir := filepath.Join(base, "aicli")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("continuation: create state dir: %w", err)
	}

	if opt.HasThread {
		return filepath.Join(dir, fmt.Sprintf(".previous_response_id_s%d_%s", sid, opt.ThreadName)), nil
	}
	return filepath.Join(dir, fmt.Sprintf(".previous_response_id_s%d", sid)), nil
}

// ReadID reads and trims the stored response id. ok is false (with a nil
// error) when the state file doesn't exist yet; not-found is not an
// error.
func ReadID(path string) (id string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimRight(string(data), "\r\n"), true, nil
}

// WriteID atomically persists id to path: write to path+".tmp" (mode
// 0600), then rename over path, so a crash leaves either the old content
// or the new — never a torn mix.
func WriteID(path, id string) error {
	if id == "" {
		return fmt.Errorf("continuation: empty response id")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(id+"\n"), 0o600); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("continuation: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("continuation: rename temp file: %w", err)
	}
	return nil
}

package toolloop

import (
	"fmt"
	"io"
)

// debugMaxBytesForLevel picks the preview cap per debug level:
// 1 = summary previews, 2 = normal, 3+ = verbose.
func debugMaxBytesForLevel(level int) int {
	switch {
	case level <= 0:
		return 0
	case level == 1:
		return 512
	case level == 2:
		return 2048
	default:
		return 8192
	}
}

// debugPrintTrunc writes a labelled, size-capped preview of b, noting
// truncation so a cut-off dump can't be mistaken for the whole body.
func debugPrintTrunc(w io.Writer, label string, b []byte, maxBytes int) {
	if w == nil {
		return
	}
	if maxBytes == 0 {
		fmt.Fprintf(w, "%s: (suppressed)\n", label)
		return
	}
	n := len(b)
	if n > maxBytes {
		n = maxBytes
	}
	truncNote := ""
	if len(b) > n {
		truncNote = ", truncated"
	}
	fmt.Fprintf(w, "%s (%d bytes%s):\n", label, n, truncNote)
	w.Write(b[:n])
	if len(b) > n {
		io.WriteString(w, "\n...\n")
	} else {
		io.WriteString(w, "\n")
	}
}

// Package ansi provides ANSI escape code constants and helpers for terminal output.
// All colored/styled terminal output should reference these constants to avoid duplication.
package ansi

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI SGR (Select Graphic Rendition) codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Gray    = "\033[90m"
	Blue    = "\033[34m"
	Yellow  = "\033[33m"
	Green   = "\033[32m"
	Red     = "\033[31m"
	Cyan    = "\033[36m"
	Magenta = "\033[35m"
)

// Wrap surrounds s with code and a trailing Reset. An empty code returns s
// unchanged, which lets callers disable color by passing "".
func Wrap(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + Reset
}

// ForStrength picks a color for a 0..100 strength score: green for strong,
// yellow for moderate, dim for weak.
func ForStrength(strength float64) string {
	switch {
	case strength >= 75:
		return Green
	case strength >= 40:
		return Yellow
	default:
		return Dim
	}
}

// IsTerminal reports whether w is a terminal (including Cygwin and MSYS
// ptys), which is when callers should emit color.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

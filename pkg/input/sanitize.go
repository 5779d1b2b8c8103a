// Package input validates free text entering a run from the CLI, HTTP or MCP.
package input

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxSize bounds a query in bytes.
const DefaultMaxSize = 4096

// EnvMaxSize overrides DefaultMaxSize.
const EnvMaxSize = "FOREMAN_MAX_INPUT_SIZE"

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
	ErrEmpty       = errors.New("input is empty")
)

// Sanitize rejects oversized or malformed input, strips control characters
// other than newline, tab and carriage return, and trims surrounding space.
// Oversized input is rejected rather than truncated.
func Sanitize(s string) (string, error) {
	if limit := MaxSize(); len(s) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	out := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !keep(r) {
			return -1
		}
		return r
	}, s))
	if out == "" {
		return "", ErrEmpty
	}
	return out, nil
}

func keep(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxSize returns the active size limit.
func MaxSize() int {
	if v := os.Getenv(EnvMaxSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxSize
}

package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is the answer limit in bytes when nothing overrides it.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "STEPWISE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer cleans raw answers before they reach a session.
// Oversized or malformed input is rejected, never truncated, so a journal
// replays exactly what the user sent.
type Sanitizer struct {
	// MaxSize is the limit in bytes. Zero means MaxInputSize().
	MaxSize int
	// SingleLine folds line breaks and tabs into single spaces and trims the
	// result. Menu choices match by exact name, so remote clients get this mode.
	SingleLine bool
}

// Sanitize applies the size limit, checks UTF-8 and drops control characters.
// \n, \t and \r survive unless SingleLine is set.
func (s Sanitizer) Sanitize(input string) (string, error) {
	limit := s.MaxSize
	if limit <= 0 {
		limit = MaxInputSize()
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if s.SingleLine {
		return strings.Join(strings.Fields(stripControls(input)), " "), nil
	}
	return stripControls(input), nil
}

func stripControls(input string) string {
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// SanitizeInput is Sanitizer{}.Sanitize: line breaks kept, default limit.
func SanitizeInput(input string) (string, error) {
	return Sanitizer{}.Sanitize(input)
}

// SanitizeAnswer is the single-line variant used by the HTTP and MCP hosts.
func SanitizeAnswer(input string) (string, error) {
	return Sanitizer{SingleLine: true}.Sanitize(input)
}

// MaxInputSize returns the effective input limit in bytes.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

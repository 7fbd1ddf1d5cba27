package text

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownInputFormat is returned by ParseInputFormat for unsupported names.
var ErrUnknownInputFormat = errors.New("unknown input format")

// InputFormat selects how raw input is turned into plain text.
type InputFormat string

const (
	FormatPlain    InputFormat = "plain"
	FormatMarkdown InputFormat = "markdown"
)

// ParseInputFormat validates a case-insensitive input format name.
// An empty name selects FormatPlain.
func ParseInputFormat(raw string) (InputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "plain", "text":
		return FormatPlain, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w %q (expected plain|markdown)", ErrUnknownInputFormat, raw)
	}
}

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	// NFC composes decomposed accents so both spellings tokenize alike.
	NFC bool
}

// Normalize prepares raw input text for analysis.
// It normalizes line endings to \n and optionally applies Unicode NFC.
// Empty input is returned as is.
func Normalize(s string, opts NormalizeOptions) string {
	// CRLF → LF, then bare CR → LF.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if opts.NFC {
		s = norm.NFC.String(s)
	}
	return s
}

// Prepare converts raw input in the given format into normalized plain text.
// Line endings are normalized before Markdown is parsed.
func Prepare(raw []byte, format InputFormat, opts NormalizeOptions) string {
	s := Normalize(string(raw), opts)
	if format == FormatMarkdown {
		s = MarkdownToPlain([]byte(s))
	}
	return s
}

// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

// EncodingASCII is the default keyword encoding: 7-bit ASCII.
const EncodingASCII = "ascii"

// singleByteCharsets maps accepted encoding names to their x/text charmaps.
var singleByteCharsets = map[string]*charmap.Charmap{
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
}

// Query is one normalized keyword taken from an inbound message.
type Query struct {
	ID      string // correlates the log lines of one pipeline run
	Tag     string // message path without separators
	Raw     string // first message argument as received
	Keyword string // normalized search term
	Source  string // sender address
}

// NewQuery normalizes the raw keyword of msg. It does not validate the encoding.
func NewQuery(msg Message, raw string) Query {
	return Query{
		ID:      uuid.NewString(),
		Tag:     PathTag(msg.Path),
		Raw:     raw,
		Keyword: NormalizeKeyword(raw),
		Source:  msg.Source,
	}
}

// PathTag removes the path separators from an address: "/query" -> "query".
func PathTag(path string) string {
	return strings.ReplaceAll(path, "/", "")
}

// NormalizeKeyword reduces free text to the first whitespace-delimited token
// of its first non-blank line.
//
// Lines are trimmed and joined with single spaces before the first token is
// taken, so "  rain\nstorm" and "rain storm" both yield "rain".
func NormalizeKeyword(raw string) string {
	lines := strings.FieldsFunc(strings.TrimSpace(raw), isLineBreak)
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	joined := strings.Join(lines, " ")

	fields := strings.Fields(joined)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeftFunc(fields[0], unicode.IsSpace)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// ValidateEncoding reports whether keyword can be represented in the named
// single-byte encoding. Empty keywords are rejected too.
func ValidateEncoding(keyword, encoding string) error {
	if keyword == "" {
		return ErrEmptyKeyword
	}
	if !utf8.ValidString(keyword) {
		return fmt.Errorf("%w: invalid UTF-8", ErrEncoding)
	}

	name := strings.ToLower(strings.TrimSpace(encoding))
	if name == "" || name == EncodingASCII || name == "us-ascii" {
		for i, r := range keyword {
			if r > unicode.MaxASCII {
				return fmt.Errorf("%w: %q at byte %d is not ascii", ErrEncoding, r, i)
			}
		}
		return nil
	}

	cm, ok := singleByteCharsets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
	if _, err := cm.NewEncoder().String(keyword); err != nil {
		return fmt.Errorf("%w: not representable in %s: %w", ErrEncoding, cm, err)
	}
	return nil
}

// KnownEncoding reports whether ValidateEncoding accepts the name.
func KnownEncoding(encoding string) bool {
	name := strings.ToLower(strings.TrimSpace(encoding))
	if name == "" || name == EncodingASCII || name == "us-ascii" {
		return true
	}
	_, ok := singleByteCharsets[name]
	return ok
}

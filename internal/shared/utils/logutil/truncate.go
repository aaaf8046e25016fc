// Package logutil holds helpers for putting remote payloads into logs and
// error messages.
package logutil

import (
	"io"
	"strings"
	"unicode/utf8"
)

// MaxBodyBytes bounds how much of an error response body is read.
const MaxBodyBytes = 1024

// TruncateForLog shortens s to at most maxLen runes, appending "..." when
// anything was cut.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}

// ReadBody reads up to MaxBodyBytes of r for an error message, collapsing
// whitespace so multi-line bodies stay on one log line.
func ReadBody(r io.Reader, maxLen int) string {
	body, _ := io.ReadAll(io.LimitReader(r, MaxBodyBytes))
	return TruncateForLog(strings.Join(strings.Fields(string(body)), " "), maxLen)
}

// Package textutil provides text normalization helpers for bot response content.
package textutil

import "strings"

// FormatNewlines normalizes line endings in response content before storage.
// Editors submit CRLF or lone CR depending on platform; stored content is
// always LF so that YAML payloads round-trip and diffs stay stable.
func FormatNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

package api

import (
	"regexp"
	"strconv"
)

var escapedCodePoint = regexp.MustCompile(`\\+u([0-9a-fA-F]{4})`)

// UnicodeEscape decodes \uXXXX escapes, collapsing any number of backslashes
// before the u. "\\\\u03b1" and "α" both become "α".
func UnicodeEscape(s string) string {
	return decodeEscapes(s, func(rune) bool { return true })
}

// unescapeJSONText decodes only non-ASCII escapes, which keeps JSON documents
// valid.
func unescapeJSONText(s string) string {
	return decodeEscapes(s, func(r rune) bool { return r >= 0x80 })
}

func decodeEscapes(s string, keep func(rune) bool) string {
	return escapedCodePoint.ReplaceAllStringFunc(s, func(m string) string {
		hex := m[len(m)-4:]
		code, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !keep(rune(code)) {
			return m
		}
		return string(rune(code))
	})
}

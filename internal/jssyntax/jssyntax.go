// Package jssyntax renders names for use in generated JavaScript and
// TypeScript.
package jssyntax

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var safeIDPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z_$0-9]*$`)

// RenderFieldName returns name as a bare property name when it is a plain
// identifier, and as a quoted string otherwise.
func RenderFieldName(name string) string {
	if safeIDPattern.MatchString(name) {
		return name
	}
	return Quote(name)
}

// Quote renders s as a string literal. HTML characters are left unescaped
// so the output reads the same as the stylesheet.
//
// A JavaScript string holds UTF-16 text, not bytes, so bytes of s that are
// not valid UTF-8 become U+FFFD, the same as decoding the file as UTF-8.
func Quote(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	// Encode appends a newline
	return strings.TrimSuffix(buf.String(), "\n")
}

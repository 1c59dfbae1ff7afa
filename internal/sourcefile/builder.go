// Package sourcefile provides an append-only text buffer that knows the line
// and column of its end while text is written to it.
package sourcefile

import (
	"strings"

	"bennypowers.dev/tcm/internal/linemap"
	"bennypowers.dev/tcm/internal/position"
)

// Options configures a Builder. Zero fields take the defaults.
type Options struct {
	// NewLine is appended by WriteLine (default "\r\n")
	NewLine string
	// LineBase is the number of the first line (default 1)
	LineBase *int
	// ColumnBase is the number of the first column (default 1)
	ColumnBase *int
}

// Base is a helper for setting LineBase and ColumnBase
func Base(n int) *int {
	return &n
}

// Builder accumulates text. Position counts bytes; Column counts UTF-16
// code units, matching source-map columns.
type Builder struct {
	newLine    string
	columnBase int

	buf      strings.Builder
	position int
	line     int
	column   int
	// lastCR is set when the output ends in "\r", so a "\n" at the start of
	// the next write completes that break instead of starting a line
	lastCR bool
}

// New creates a Builder
func New(opts Options) *Builder {
	b := &Builder{
		newLine:    "\r\n",
		columnBase: 1,
		line:       1,
	}
	if opts.NewLine != "" {
		b.newLine = opts.NewLine
	}
	if opts.LineBase != nil {
		b.line = *opts.LineBase
	}
	if opts.ColumnBase != nil {
		b.columnBase = *opts.ColumnBase
	}
	b.column = b.columnBase
	return b
}

// Position returns the byte length written so far
func (b *Builder) Position() int { return b.position }

// Line returns the current line
func (b *Builder) Line() int { return b.line }

// Column returns the current column
func (b *Builder) Column() int { return b.column }

// Write appends text. Line breaks inside text ("\r\n", "\r", "\n", U+2028,
// U+2029) advance the line the same way the line index of the output counts
// them. Calling Write with no arguments changes nothing.
func (b *Builder) Write(text ...string) *Builder {
	for _, t := range text {
		b.advance(t)
	}
	return b
}

func (b *Builder) advance(t string) {
	if t == "" {
		return
	}
	b.buf.WriteString(t)
	b.position += len(t)

	rest := t
	if b.lastCR && rest[0] == '\n' {
		rest = rest[1:]
	}
	b.lastCR = t[len(t)-1] == '\r'

	starts := linemap.ComputeLineStarts(rest)
	if breaks := len(starts) - 1; breaks > 0 {
		b.line += breaks
		b.column = b.columnBase
		rest = rest[starts[breaks]:]
	}
	b.column += position.StringLengthUTF16(rest)
}

// WriteLine appends text followed by the newline sequence
func (b *Builder) WriteLine(text ...string) *Builder {
	return b.Write(text...).Write(b.newLine)
}

// String returns everything written, in order
func (b *Builder) String() string {
	return b.buf.String()
}

// Package linemap converts absolute offsets in a text buffer into zero-based
// line and character pairs using a sorted table of line starts.
//
// Offsets are byte offsets into a Go string. Characters are counted in UTF-16
// code units, which is what source maps and editors expect.
package linemap

import (
	"cmp"

	"bennypowers.dev/tcm/internal/position"
)

// LineAndCharacter is a zero-based line and UTF-16 character position
type LineAndCharacter struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// ComputeLineStarts returns the byte offset of the start of every line in
// text. "\r\n", "\r", "\n", U+2028 and U+2029 each end a line. The result
// always begins with 0 and ends with the start of the last (possibly empty)
// line.
func ComputeLineStarts(text string) []int {
	result := []int{}
	lineStart := 0
	for pos := 0; pos < len(text); {
		ch := text[pos]
		pos++
		switch ch {
		case '\r':
			if pos < len(text) && text[pos] == '\n' {
				pos++
			}
			result = append(result, lineStart)
			lineStart = pos
		case '\n':
			result = append(result, lineStart)
			lineStart = pos
		case 0xE2:
			// U+2028 and U+2029 encode as E2 80 A8 and E2 80 A9
			if pos+1 < len(text) && text[pos] == 0x80 && (text[pos+1] == 0xA8 || text[pos+1] == 0xA9) {
				pos += 2
				result = append(result, lineStart)
				lineStart = pos
			}
		}
	}
	return append(result, lineStart)
}

// BinarySearch returns the index of key in the ascending slice, or the
// bitwise complement of the index at which key would be inserted.
func BinarySearch[T cmp.Ordered](sorted []T, key T) int {
	low, high := 0, len(sorted)-1
	for low <= high {
		middle := low + (high-low)/2
		switch c := cmp.Compare(sorted[middle], key); {
		case c < 0:
			low = middle + 1
		case c == 0:
			return middle
		default:
			high = middle - 1
		}
	}
	return ^low
}

// ComputeLineOfPosition returns the index of the line containing position
func ComputeLineOfPosition(lineStarts []int, position int) int {
	line := BinarySearch(lineStarts, position)
	if line < 0 {
		line = ^line - 1
	}
	return max(line, 0)
}

// ComputeLineAndCharacterOfPosition converts a byte offset in text into a
// line and character. lineStarts must come from ComputeLineStarts(text).
// Offsets outside the text clamp to its start or end.
func ComputeLineAndCharacterOfPosition(lineStarts []int, text string, pos int) LineAndCharacter {
	pos = min(max(pos, 0), len(text))
	if len(lineStarts) == 0 {
		return LineAndCharacter{Character: position.ByteOffsetToUTF16(text, pos)}
	}
	line := ComputeLineOfPosition(lineStarts, pos)
	start := lineStarts[line]
	return LineAndCharacter{
		Line:      line,
		Character: position.ByteOffsetToUTF16(text[start:], pos-start),
	}
}

// LineIndex lazily builds and memoizes the line starts of one text.
// It belongs to a single invocation and must not be shared across texts.
type LineIndex struct {
	text       string
	lineStarts []int
}

// NewLineIndex creates a LineIndex for text. No work happens until the first
// lookup.
func NewLineIndex(text string) *LineIndex {
	return &LineIndex{text: text}
}

// LineStarts returns the memoized line-start table
func (idx *LineIndex) LineStarts() []int {
	if idx.lineStarts == nil {
		idx.lineStarts = ComputeLineStarts(idx.text)
	}
	return idx.lineStarts
}

// LineCount returns the number of lines in the text
func (idx *LineIndex) LineCount() int {
	return len(idx.LineStarts())
}

// LineAndCharacter converts a byte offset into a line and character
func (idx *LineIndex) LineAndCharacter(pos int) LineAndCharacter {
	return ComputeLineAndCharacterOfPosition(idx.LineStarts(), idx.text, pos)
}

// Offset converts a line and character back into a byte offset. Lines past
// the end clamp to the last line, and characters past the end of a line
// clamp to the start of the next line.
func (idx *LineIndex) Offset(lc LineAndCharacter) int {
	starts := idx.LineStarts()
	line := min(max(lc.Line, 0), len(starts)-1)
	start := starts[line]
	end := len(idx.text)
	if line+1 < len(starts) {
		end = starts[line+1]
	}
	return start + position.UTF16ToByteOffset(idx.text[start:end], lc.Character)
}

// Line returns the text of a line without its line break
func (idx *LineIndex) Line(line int) string {
	starts := idx.LineStarts()
	if line < 0 || line >= len(starts) {
		return ""
	}
	end := len(idx.text)
	if line+1 < len(starts) {
		end = starts[line+1]
	}
	text := idx.text[starts[line]:end]
	for len(text) > 0 {
		switch {
		case text[len(text)-1] == '\n' || text[len(text)-1] == '\r':
			text = text[:len(text)-1]
		case len(text) >= 3 && text[len(text)-3] == 0xE2 && text[len(text)-2] == 0x80 &&
			(text[len(text)-1] == 0xA8 || text[len(text)-1] == 0xA9):
			text = text[:len(text)-3]
		default:
			return text
		}
	}
	return text
}

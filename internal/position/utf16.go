// Package position converts between Go byte offsets and the UTF-16 code unit
// columns used by source maps and by the editors that consume them.
package position

import (
	"unicode/utf16"
	"unicode/utf8"
)

// UTF16ToByteOffset returns the byte offset in s of the given UTF-16 column.
// Columns inside a surrogate pair clamp to the start of the rune, and columns
// past the end clamp to len(s).
func UTF16ToByteOffset(s string, utf16Col int) int {
	if utf16Col <= 0 {
		return 0
	}

	units := 0
	byteOffset := 0

	for byteOffset < len(s) && units < utf16Col {
		r, size := utf8.DecodeRuneInString(s[byteOffset:])
		if r == utf8.RuneError && size == 1 {
			// Invalid UTF-8 byte; counts as one unit
			byteOffset++
			units++
			continue
		}

		runeUTF16Len := utf16.RuneLen(r)
		if runeUTF16Len == 2 && units+1 == utf16Col {
			break
		}

		units += runeUTF16Len
		byteOffset += size
	}

	return byteOffset
}

// ByteOffsetToUTF16 returns the number of UTF-16 code units in s[:byteOffset].
// A byteOffset that splits a rune counts only the whole runes before it.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(s) {
		byteOffset = len(s)
	}

	utf16Count := 0
	currentOffset := 0
	for currentOffset < byteOffset {
		r, size := utf8.DecodeRuneInString(s[currentOffset:])
		if r == utf8.RuneError && size == 0 {
			break
		}
		if currentOffset+size > byteOffset {
			break
		}
		if r == utf8.RuneError && size == 1 {
			utf16Count++
		} else {
			utf16Count += utf16.RuneLen(r)
		}
		currentOffset += size
	}
	return utf16Count
}

// StringLengthUTF16 returns the length of s in UTF-16 code units.
func StringLengthUTF16(s string) int {
	return ByteOffsetToUTF16(s, len(s))
}

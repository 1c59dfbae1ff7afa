package position_test

import (
	"testing"

	"bennypowers.dev/tcm/internal/position"
	"github.com/stretchr/testify/assert"
)

func TestUTF16ToByteOffset(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		utf16Col   int
		expectByte int
	}{
		{"empty string", "", 0, 0},
		{"ASCII only", ".article {", 5, 5},
		{"beyond end", ".a", 100, 2},
		{"negative column", ".a", -3, 0},
		{"emoji (surrogate pair)", "👍 .a", 2, 4},
		{"inside surrogate pair clamps to rune start", "👍 .a", 1, 0},
		{"CJK characters", "颜色", 2, 6},
		{"comment with emoji before a variable", "/* 🎨 */ --main", 9, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectByte, position.UTF16ToByteOffset(tt.s, tt.utf16Col))
		})
	}
}

func TestByteOffsetToUTF16(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		byteOffset int
		expect     int
	}{
		{"zero", ".a", 0, 0},
		{"ASCII", ".article", 8, 8},
		{"past end clamps", ".a", 10, 2},
		{"emoji", "👍.a", 5, 3},
		{"split rune counts whole runes only", "颜色", 4, 1},
		{"CJK", "颜色.a", 8, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, position.ByteOffsetToUTF16(tt.s, tt.byteOffset))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	s := ".🎨 { --色: red; }"
	for col := 0; col <= position.StringLengthUTF16(s); col++ {
		b := position.UTF16ToByteOffset(s, col)
		got := position.ByteOffsetToUTF16(s, b)
		assert.LessOrEqual(t, got, col, "column %d", col)
	}
	assert.Equal(t, 17, position.StringLengthUTF16(s))
}

package linemap_test

import (
	"testing"

	"bennypowers.dev/tcm/internal/linemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLineStarts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{"empty", "", []int{0}},
		{"single line", ".a {}", []int{0}},
		{"LF", "a\nb\n", []int{0, 2, 4}},
		{"CRLF counts once", "a\r\nb", []int{0, 3}},
		{"lone CR", "a\rb", []int{0, 2}},
		{"CR CR LF", "a\r\r\nb", []int{0, 2, 4}},
		{"line separator", "a\u2028b", []int{0, 4}},
		{"paragraph separator", "a\u2029b\nc", []int{0, 4, 6}},
		{"other E2 sequences are not breaks", "a\u2026b", []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linemap.ComputeLineStarts(tt.text))
		})
	}
}

func TestBinarySearch(t *testing.T) {
	sorted := []int{0, 4, 9, 15}
	assert.Equal(t, 0, linemap.BinarySearch(sorted, 0))
	assert.Equal(t, 2, linemap.BinarySearch(sorted, 9))
	assert.Equal(t, ^1, linemap.BinarySearch(sorted, 3))
	assert.Equal(t, ^4, linemap.BinarySearch(sorted, 100))
	assert.Equal(t, ^0, linemap.BinarySearch([]int{}, 1))
}

func TestComputeLineAndCharacterOfPosition(t *testing.T) {
	text := ".article {\n  color: red;\r\n}\n"
	starts := linemap.ComputeLineStarts(text)

	tests := []struct {
		name string
		pos  int
		want linemap.LineAndCharacter
	}{
		{"start", 0, linemap.LineAndCharacter{Line: 0, Character: 0}},
		{"after dot", 1, linemap.LineAndCharacter{Line: 0, Character: 1}},
		{"exact line start", 11, linemap.LineAndCharacter{Line: 1, Character: 0}},
		{"inside second line", 13, linemap.LineAndCharacter{Line: 1, Character: 2}},
		{"on the CR", 24, linemap.LineAndCharacter{Line: 1, Character: 13}},
		{"third line", 26, linemap.LineAndCharacter{Line: 2, Character: 0}},
		{"end of text", len(text), linemap.LineAndCharacter{Line: 3, Character: 0}},
		{"past end clamps", len(text) + 10, linemap.LineAndCharacter{Line: 3, Character: 0}},
		{"negative clamps", -5, linemap.LineAndCharacter{Line: 0, Character: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linemap.ComputeLineAndCharacterOfPosition(starts, text, tt.pos))
		})
	}
}

func TestCharactersAreUTF16(t *testing.T) {
	text := "/* 🎨 */ .a"
	idx := linemap.NewLineIndex(text)
	// "/* " = 3, emoji = 2 units (4 bytes), " */ " = 4, "." = 1
	lc := idx.LineAndCharacter(12)
	assert.Equal(t, linemap.LineAndCharacter{Line: 0, Character: 10}, lc)
	assert.Equal(t, 12, idx.Offset(lc))
}

func TestLineIndexRoundTrip(t *testing.T) {
	texts := []string{
		"",
		".a{}",
		"\n\n\n",
		".a {\r\n  --x: 1;\r}\n.b .c ",
		"颜色 {\n}\n👍",
	}
	for _, text := range texts {
		starts := linemap.ComputeLineStarts(text)
		require.Equal(t, 0, starts[0])
		for p := 0; p <= len(text); p++ {
			line := linemap.ComputeLineOfPosition(starts, p)
			assert.LessOrEqual(t, starts[line], p, "text %q offset %d", text, p)
			if line+1 < len(starts) {
				assert.Greater(t, starts[line+1], p, "text %q offset %d", text, p)
			}
		}
	}
}

func TestLineIndex(t *testing.T) {
	text := ".a {\r\n  --x: 1;\n}"
	idx := linemap.NewLineIndex(text)

	assert.Equal(t, 3, idx.LineCount())
	assert.Equal(t, ".a {", idx.Line(0))
	assert.Equal(t, "  --x: 1;", idx.Line(1))
	assert.Equal(t, "}", idx.Line(2))
	assert.Equal(t, "", idx.Line(3))

	assert.Equal(t, 8, idx.Offset(linemap.LineAndCharacter{Line: 1, Character: 2}))
	assert.Equal(t, len(text), idx.Offset(linemap.LineAndCharacter{Line: 9, Character: 9}))
}

// Package sourcemap writes version 3 source maps.
package sourcemap

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
)

// Position is a location in a file. Lines are 1-based, columns 0-based.
type Position struct {
	Line   int
	Column int
}

// Mapping ties a generated position to an original one
type Mapping struct {
	Generated Position
	Original  Position
	Source    string
	// Name is optional
	Name string
}

// RawSourceMap is the serialized form of a version 3 source map
type RawSourceMap struct {
	Version  int      `json:"version"`
	File     string   `json:"file"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// Generator collects mappings for one generated file
type Generator struct {
	file     string
	mappings []Mapping
	sources  []string
	names    []string
}

// NewGenerator creates a Generator for the generated file at path file
func NewGenerator(file string) *Generator {
	return &Generator{file: file}
}

// AddMapping records a mapping. Sources and names are indexed in the order
// they are first added.
func (g *Generator) AddMapping(m Mapping) {
	if !slices.Contains(g.sources, m.Source) {
		g.sources = append(g.sources, m.Source)
	}
	if m.Name != "" && !slices.Contains(g.names, m.Name) {
		g.names = append(g.names, m.Name)
	}
	g.mappings = append(g.mappings, m)
}

// Len returns the number of recorded mappings
func (g *Generator) Len() int {
	return len(g.mappings)
}

// Raw builds the serializable source map
func (g *Generator) Raw() RawSourceMap {
	return RawSourceMap{
		Version:  3,
		File:     g.file,
		Sources:  nonNil(g.sources),
		Names:    nonNil(g.names),
		Mappings: g.encodeMappings(),
	}
}

// String serializes the source map as compact JSON
func (g *Generator) String() string {
	data, err := json.Marshal(g.Raw())
	if err != nil {
		// RawSourceMap holds only strings and ints
		panic(err)
	}
	return string(data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func compareMappings(a, b Mapping) int {
	return cmp.Or(
		cmp.Compare(a.Generated.Line, b.Generated.Line),
		cmp.Compare(a.Generated.Column, b.Generated.Column),
		cmp.Compare(a.Source, b.Source),
		cmp.Compare(a.Original.Line, b.Original.Line),
		cmp.Compare(a.Original.Column, b.Original.Column),
		cmp.Compare(a.Name, b.Name),
	)
}

// encodeMappings sorts the mappings by generated position, drops exact
// duplicates and encodes them as Base64 VLQ segments.
func (g *Generator) encodeMappings() string {
	sorted := slices.Clone(g.mappings)
	slices.SortStableFunc(sorted, compareMappings)

	var b strings.Builder
	line := 1
	var prevGenColumn, prevSource, prevOrigLine, prevOrigColumn, prevName int
	for i, m := range sorted {
		if i > 0 && compareMappings(sorted[i-1], m) == 0 {
			continue
		}
		if m.Generated.Line != line {
			prevGenColumn = 0
			for line < m.Generated.Line {
				b.WriteByte(';')
				line++
			}
		} else if i > 0 {
			b.WriteByte(',')
		}

		writeVLQ(&b, m.Generated.Column-prevGenColumn)
		prevGenColumn = m.Generated.Column

		source := slices.Index(g.sources, m.Source)
		writeVLQ(&b, source-prevSource)
		prevSource = source

		writeVLQ(&b, m.Original.Line-1-prevOrigLine)
		prevOrigLine = m.Original.Line - 1

		writeVLQ(&b, m.Original.Column-prevOrigColumn)
		prevOrigColumn = m.Original.Column

		if m.Name != "" {
			name := slices.Index(g.names, m.Name)
			writeVLQ(&b, name-prevName)
			prevName = name
		}
	}
	return b.String()
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// writeVLQ appends value in Base64 VLQ: the sign goes in the lowest bit and
// each digit carries 5 bits plus a continuation bit.
func writeVLQ(b *strings.Builder, value int) {
	if value < 0 {
		value = (-value << 1) | 1
	} else {
		value <<= 1
	}
	for {
		digit := value & 0x1f
		value >>= 5
		if value > 0 {
			digit |= 0x20
		}
		b.WriteByte(base64Chars[digit])
		if value == 0 {
			return
		}
	}
}

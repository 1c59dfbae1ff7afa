package modularize

import (
	"bennypowers.dev/tcm/internal/collections"
	"bennypowers.dev/tcm/internal/linemap"
)

// NameKind tells whether a rewritten name is a class selector or a custom
// property
type NameKind string

const (
	// KindClass is a name written as ".name"
	KindClass NameKind = "class"
	// KindVariable is a dashed identifier written as "--name"
	KindVariable NameKind = "variable"
)

// TokenLocation is the half-open source span of one occurrence of a name
type TokenLocation struct {
	Start linemap.LineAndCharacter `json:"start"`
	End   linemap.LineAndCharacter `json:"end"`
}

// NameSymbol collects every occurrence of one name in a stylesheet
type NameSymbol struct {
	// UniqueID replaces the name in the rewritten stylesheet
	UniqueID string
	// NameKind is the kind the name had when first seen
	NameKind NameKind
	// Declarations lists occurrences in source order
	Declarations []TokenLocation
}

// Result is the output of Modularize
type Result struct {
	// NewCSSText is the stylesheet with every classified name replaced by its
	// unique id
	NewCSSText string
	// NameToSymbol maps name text to its symbol in first-seen order
	NameToSymbol *collections.OrderedMap[string, *NameSymbol]
}

// Names returns the names of the given kind in first-seen order
func (r *Result) Names(kind NameKind) []string {
	var names []string
	for name, symbol := range r.NameToSymbol.All() {
		if symbol.NameKind == kind {
			names = append(names, name)
		}
	}
	return names
}

// Symbol returns the symbol recorded for name
func (r *Result) Symbol(name string) (*NameSymbol, bool) {
	return r.NameToSymbol.Get(name)
}

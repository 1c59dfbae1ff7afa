// Package modularize rewrites the class names and custom properties of a
// stylesheet into identifiers unique to that stylesheet's content, and
// records where each name was written.
package modularize

import (
	"fmt"
	"strings"

	"bennypowers.dev/tcm/internal/collections"
	"bennypowers.dev/tcm/internal/linemap"
	"bennypowers.dev/tcm/internal/tokenizer"
)

// Modularize scans the tokens of source once, left to right, replacing each
// class name and custom property with its unique id. Text that is not a
// classified name is copied through unchanged.
//
// Tokenizer failures are wrapped and no partial result is produced.
func Modularize(source string, tok tokenizer.Tokenizer) (*Result, error) {
	tokens, err := tok.Tokenize(source)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize stylesheet: %w", err)
	}

	if len(tokens) == 0 {
		return &Result{
			NewCSSText:   source,
			NameToSymbol: &collections.OrderedMap[string, *NameSymbol]{},
		}, nil
	}

	m := &modularizer{
		source:     source,
		sourceHash: Hash(source),
		lines:      linemap.NewLineIndex(source),
		symbols:    &collections.OrderedMap[string, *NameSymbol]{},
	}

	var prev, current *tokenizer.Token
	for i := range tokens {
		next := &tokens[i]
		if current != nil {
			m.copyToken(prev, current, next)
		}
		prev, current = current, next
	}
	if current != nil {
		m.copyToken(prev, current, nil)
	}
	m.flush()

	return &Result{
		NewCSSText:   m.out.String(),
		NameToSymbol: m.symbols,
	}, nil
}

type modularizer struct {
	source     string
	sourceHash string
	lines      *linemap.LineIndex
	symbols    *collections.OrderedMap[string, *NameSymbol]

	out        strings.Builder
	sliceStart int
	sliceEnd   int
}

// classify applies the naming rules: a word right after a "." symbol is a
// class, a word starting with "--" is a variable.
func classify(prev, token *tokenizer.Token) (NameKind, bool) {
	if token.Type != tokenizer.Word {
		return "", false
	}
	if prev != nil && prev.Type == tokenizer.Symbol && prev.Data == "." {
		return KindClass, true
	}
	if strings.HasPrefix(token.Data, "--") {
		return KindVariable, true
	}
	return "", false
}

func (m *modularizer) copyToken(prev, token, next *tokenizer.Token) {
	tokenStart := token.Tick
	tokenEnd := len(m.source)
	if next != nil {
		tokenEnd = next.Tick
	}

	kind, ok := classify(prev, token)
	if !ok {
		m.sliceEnd = tokenEnd
		return
	}

	symbol := m.addDeclaration(kind, token.Data, TokenLocation{
		Start: m.lines.LineAndCharacter(tokenStart),
		End:   m.lines.LineAndCharacter(tokenEnd),
	})
	m.flush()
	m.out.WriteString(symbol.UniqueID)
	m.sliceStart, m.sliceEnd = tokenEnd, tokenEnd
}

// addDeclaration records an occurrence of name. The kind of an existing
// symbol is never changed.
func (m *modularizer) addDeclaration(kind NameKind, name string, declaration TokenLocation) *NameSymbol {
	symbol, ok := m.symbols.Get(name)
	if !ok {
		symbol = &NameSymbol{
			UniqueID: UniqueID(m.sourceHash, name),
			NameKind: kind,
		}
		m.symbols.Set(name, symbol)
	}
	symbol.Declarations = append(symbol.Declarations, declaration)
	return symbol
}

// flush copies the pending unclassified slice to the output
func (m *modularizer) flush() {
	if m.sliceStart != m.sliceEnd {
		m.out.WriteString(m.source[m.sliceStart:m.sliceEnd])
	}
	m.sliceStart = m.sliceEnd
}

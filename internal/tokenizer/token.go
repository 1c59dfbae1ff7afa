// Package tokenizer adapts third-party CSS tokenizers to a single lossless
// token stream: every byte of the source belongs to exactly one token, so the
// end of a token is always the start of the next one.
package tokenizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Type classifies a token
type Type int

const (
	// Other is any token the modularizer has no interest in
	Other Type = iota
	// Symbol is punctuation or a delimiter such as ".", "{" or ":"
	Symbol
	// Word is an identifier, including dashed identifiers like "--main-color"
	Word
	// Space is a run of whitespace
	Space
	// Comment is a /* ... */ comment
	Comment
)

func (t Type) String() string {
	switch t {
	case Symbol:
		return "symbol"
	case Word:
		return "word"
	case Space:
		return "space"
	case Comment:
		return "comment"
	default:
		return "other"
	}
}

// Token is one lexical token of a stylesheet
type Token struct {
	Type Type
	// Data is the literal source text of the token
	Data string
	// Tick is the byte offset at which the token starts
	Tick int
}

// Tokenizer produces the token stream of a stylesheet. Each call starts
// over from the beginning of source.
type Tokenizer interface {
	Tokenize(source string) ([]Token, error)
}

// Backend names accepted by New
const (
	NameLexer      = "lexer"
	NameTreeSitter = "tree-sitter"
)

// ErrTokenize is the sentinel wrapped by every tokenizer failure
var ErrTokenize = errors.New("tokenize failed")

// ErrUnknownTokenizer is returned by New for an unrecognized backend name
var ErrUnknownTokenizer = errors.New("unknown tokenizer")

// TokenizeError reports where a backend gave up
type TokenizeError struct {
	Backend string
	Offset  int
	Err     error
}

func (e *TokenizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s tokenizer failed at offset %d: %v", e.Backend, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s tokenizer failed at offset %d", e.Backend, e.Offset)
}

func (e *TokenizeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTokenize}
	}
	return []error{ErrTokenize, e.Err}
}

// Names lists the available backends
func Names() []string {
	return []string{NameLexer, NameTreeSitter}
}

// New returns the backend registered under name
func New(name string) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameLexer:
		return Lexer{}, nil
	case NameTreeSitter:
		return TreeSitter{}, nil
	}
	return nil, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownTokenizer, name, strings.Join(Names(), ", "))
}

// IsKnown reports whether New accepts name
func IsKnown(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	return name == "" || slices.Contains(Names(), name)
}

func isSpace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n\f") == ""
}

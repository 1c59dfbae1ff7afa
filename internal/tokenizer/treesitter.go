package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

var cssLang = sitter.NewLanguage(tree_sitter_css.Language())

// parserPool holds idle CSS parsers. It has no New func so that ClosePool
// can drain it.
var parserPool sync.Pool

func acquireParser() *sitter.Parser {
	if p, ok := parserPool.Get().(*sitter.Parser); ok {
		p.Reset()
		return p
	}
	parser := sitter.NewParser()
	if err := parser.SetLanguage(cssLang); err != nil {
		panic(fmt.Sprintf("failed to set CSS language: %v", err))
	}
	return parser
}

func releaseParser(p *sitter.Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// ClosePool closes the idle tree-sitter parsers. Tokenize still works
// afterwards; it creates parsers as needed.
func ClosePool() {
	for {
		p, ok := parserPool.Get().(*sitter.Parser)
		if !ok {
			return
		}
		p.Close()
	}
}

// TreeSitter tokenizes by parsing with tree-sitter-css and reading the leaves
// of the tree in order. Text between leaves (whitespace, and pieces the
// grammar keeps in hidden nodes) becomes a synthesized token.
//
// The grammar has no CSS escapes, so the parser sees a copy of the source in
// which every escape is replaced by identifier characters of the same byte
// length. Token data is always sliced from the real source.
type TreeSitter struct{}

// Tokenize implements Tokenizer
func (TreeSitter) Tokenize(source string) ([]Token, error) {
	parser := acquireParser()
	defer releaseParser(parser)

	tree := parser.Parse(maskEscapes(source), nil)
	if tree == nil {
		return nil, &TokenizeError{Backend: NameTreeSitter, Err: errors.New("parser returned no tree")}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		offset := firstErrorOffset(root)
		return nil, &TokenizeError{
			Backend: NameTreeSitter,
			Offset:  offset,
			Err:     fmt.Errorf("syntax error near %q", excerpt(source, offset)),
		}
	}

	w := &leafWalker{source: source}
	w.walk(root)
	w.gap(len(source))
	return w.tokens, nil
}

type leafWalker struct {
	source string
	cursor int
	tokens []Token
}

func (w *leafWalker) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	if node.ChildCount() == 0 || node.Kind() == "comment" {
		w.leaf(node)
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

func (w *leafWalker) leaf(node *sitter.Node) {
	start, end := int(node.StartByte()), int(node.EndByte())
	if end <= start || start < w.cursor {
		return
	}
	w.gap(start)

	typ := Symbol
	switch {
	case node.Kind() == "comment":
		typ = Comment
	case node.IsNamed():
		typ = Word
	}
	w.tokens = append(w.tokens, Token{Type: typ, Data: w.source[start:end], Tick: start})
	w.cursor = end
}

// gap emits the uncovered text between the cursor and until
func (w *leafWalker) gap(until int) {
	if until <= w.cursor {
		return
	}
	text := w.source[w.cursor:until]
	typ := Other
	if isSpace(text) {
		typ = Space
	}
	w.tokens = append(w.tokens, Token{Type: typ, Data: text, Tick: w.cursor})
	w.cursor = until
}

func firstErrorOffset(node *sitter.Node) int {
	if node.IsError() || node.IsMissing() {
		return int(node.StartByte())
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.HasError() {
			return firstErrorOffset(child)
		}
	}
	return int(node.StartByte())
}

func excerpt(source string, offset int) string {
	offset = min(max(offset, 0), len(source))
	end := min(offset+16, len(source))
	return source[offset:end]
}

// maskEscapes returns source with each CSS escape (a backslash followed by
// up to six hex digits and one optional whitespace, or by any other
// character except a line break) overwritten with underscores.
func maskEscapes(source string) []byte {
	src := []byte(source)
	for i := 0; i < len(src); i++ {
		if src[i] != '\\' || i+1 >= len(src) {
			continue
		}
		end := escapeEnd(source, i)
		if end == i {
			continue
		}
		for j := i; j < end; j++ {
			src[j] = '_'
		}
		i = end - 1
	}
	return src
}

// escapeEnd returns the end of the escape starting at the backslash at i,
// or i when the backslash does not start one
func escapeEnd(source string, i int) int {
	j := i + 1
	switch c := source[j]; {
	case c == '\n' || c == '\r' || c == '\f':
		return i
	case isHexDigit(c):
		for j < len(source) && j-i <= 6 && isHexDigit(source[j]) {
			j++
		}
		if strings.HasPrefix(source[j:], "\r\n") {
			return j + 2
		}
		if j < len(source) && strings.IndexByte(" \t\n\r\f", source[j]) >= 0 {
			j++
		}
		return j
	default:
		_, size := utf8.DecodeRuneInString(source[j:])
		return j + size
	}
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// Package loader emits the JavaScript module a bundler ships for a
// stylesheet: the stylesheet text, the variable mapping and the class
// mapping.
package loader

import (
	"fmt"
	"sync"

	"bennypowers.dev/tcm/internal/jssyntax"
	"bennypowers.dev/tcm/internal/modularize"
	"bennypowers.dev/tcm/internal/sourcefile"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// Emit renders the module. cssText is exported verbatim as the cssText
// string; callers decide whether that is the original or rewritten text.
func Emit(result *modularize.Result, cssText string) string {
	f := sourcefile.New(sourcefile.Options{NewLine: "\n"})

	writeNamesExpression := func(kind modularize.NameKind) {
		names := result.Names(kind)
		if len(names) == 0 {
			f.Write("{}")
			return
		}
		f.WriteLine("{")
		for _, name := range names {
			symbol, _ := result.Symbol(name)
			f.Write("    ", jssyntax.RenderFieldName(name), ": ", jssyntax.Quote(symbol.UniqueID)).WriteLine(",")
		}
		f.Write("}")
	}

	f.Write("export const cssText = ", jssyntax.Quote(cssText)).WriteLine(";")

	f.Write("export const variables = ")
	writeNamesExpression(modularize.KindVariable)
	f.WriteLine(";")

	f.Write("export default ")
	writeNamesExpression(modularize.KindClass)
	f.WriteLine(";")
	return f.String()
}

var jsLang = sitter.NewLanguage(tree_sitter_javascript.Language())

var parserPool sync.Pool

func acquireParser() *sitter.Parser {
	if p, ok := parserPool.Get().(*sitter.Parser); ok {
		p.Reset()
		return p
	}
	parser := sitter.NewParser()
	if err := parser.SetLanguage(jsLang); err != nil {
		panic(fmt.Sprintf("failed to set JS language: %v", err))
	}
	return parser
}

// ClosePool closes the idle JavaScript parsers
func ClosePool() {
	for {
		p, ok := parserPool.Get().(*sitter.Parser)
		if !ok {
			return
		}
		p.Close()
	}
}

// Verify parses an emitted module and fails if it is not valid JavaScript
func Verify(module string) error {
	parser := acquireParser()
	defer parserPool.Put(parser)

	tree := parser.Parse([]byte(module), nil)
	if tree == nil {
		return fmt.Errorf("failed to parse emitted module")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		pos := root.StartPosition()
		for i := uint(0); i < root.ChildCount(); i++ {
			if child := root.Child(i); child != nil && child.HasError() {
				pos = child.StartPosition()
				break
			}
		}
		return fmt.Errorf("emitted module has a syntax error at line %d, column %d", pos.Row+1, pos.Column)
	}
	return nil
}

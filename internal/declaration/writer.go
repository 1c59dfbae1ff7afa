// Package declaration renders the typed declaration file and source map of a
// modularized stylesheet and writes them next to it.
package declaration

import (
	"context"
	"errors"

	"bennypowers.dev/tcm/internal/jssyntax"
	"bennypowers.dev/tcm/internal/log"
	"bennypowers.dev/tcm/internal/modularize"
	"bennypowers.dev/tcm/internal/sourcefile"
	"bennypowers.dev/tcm/internal/sourcemap"
	"bennypowers.dev/tcm/internal/tokenizer"
	"golang.org/x/sync/errgroup"
)

// Output holds the rendered companion files of one stylesheet
type Output struct {
	DeclarationPath string
	MapPath         string
	Declaration     string
	Map             string
}

// Paths returns the declaration and map paths for a stylesheet
func Paths(cssPath string) (declarationPath, mapPath string) {
	declarationPath = cssPath + ".d.ts"
	return declarationPath, declarationPath + ".map"
}

// Render builds the declaration file and its source map. Only the name
// table of result is used.
func Render(cssPath string, result *modularize.Result) *Output {
	declarationPath, mapPath := Paths(cssPath)

	declarationMap := sourcemap.NewGenerator(declarationPath)
	declarationMap.AddMapping(sourcemap.Mapping{
		Generated: sourcemap.Position{Line: 1, Column: 0},
		Original:  sourcemap.Position{Line: 1, Column: 0},
		Source:    cssPath,
	})

	d := sourcefile.New(sourcefile.Options{
		LineBase:   sourcefile.Base(1),
		ColumnBase: sourcefile.Base(0),
	})

	writeNamesType := func(kind modularize.NameKind) {
		count := 0
		for name, symbol := range result.NameToSymbol.All() {
			if symbol.NameKind != kind {
				continue
			}
			count++

			d.WriteLine().Write("    & { readonly ")
			start := sourcemap.Position{Line: d.Line(), Column: d.Column()}
			d.Write(jssyntax.RenderFieldName(name))
			end := sourcemap.Position{Line: d.Line(), Column: d.Column()}
			d.Write(": string; }")

			// Each occurrence in the stylesheet maps onto the same member
			for _, declaration := range symbol.Declarations {
				declarationMap.AddMapping(sourcemap.Mapping{
					Generated: start,
					Original: sourcemap.Position{
						Line:   declaration.Start.Line + 1,
						Column: declaration.Start.Character,
					},
					Source: cssPath,
					Name:   name,
				})
				declarationMap.AddMapping(sourcemap.Mapping{
					Generated: end,
					Original: sourcemap.Position{
						Line:   declaration.End.Line + 1,
						Column: declaration.End.Character,
					},
					Source: cssPath,
					Name:   name,
				})
			}
		}
		if count == 0 {
			d.Write(" Record<string, never>")
		}
	}

	d.WriteLine("export const cssText: string;")

	d.Write("export const variables:")
	writeNamesType(modularize.KindVariable)
	d.WriteLine(";")

	d.Write("declare const styles:")
	writeNamesType(modularize.KindClass)
	d.WriteLine(";")
	d.WriteLine("export default styles;")

	return &Output{
		DeclarationPath: declarationPath,
		MapPath:         mapPath,
		Declaration:     d.String(),
		Map:             declarationMap.String(),
	}
}

// WriteResult reports which companion files were rewritten
type WriteResult struct {
	DeclarationWritten bool
	MapWritten         bool
	// Output is what the companion files should contain
	Output *Output
}

// WriteDeclarationAndMapFile modularizes a stylesheet and writes its
// declaration file and source map. Both writes are change-gated and issued
// concurrently; a failure of one does not undo the other.
func WriteDeclarationAndMapFile(ctx context.Context, fsys FileSystem, cssPath, cssContents string, tok tokenizer.Tokenizer) (*WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := modularize.Modularize(cssContents, tok)
	if err != nil {
		return nil, &FileError{Path: cssPath, Op: "modularize", Err: err}
	}
	out := Render(cssPath, result)

	res := WriteResult{Output: out}
	var declarationErr, mapErr error
	var g errgroup.Group
	g.Go(func() error {
		res.DeclarationWritten, declarationErr = WriteIfChanged(fsys, out.DeclarationPath, out.Declaration)
		return declarationErr
	})
	g.Go(func() error {
		res.MapWritten, mapErr = WriteIfChanged(fsys, out.MapPath, out.Map)
		return mapErr
	})
	_ = g.Wait()

	if res.DeclarationWritten {
		log.Debug("wrote %s", out.DeclarationPath)
	}
	if res.MapWritten {
		log.Debug("wrote %s", out.MapPath)
	}
	if err := errors.Join(declarationErr, mapErr); err != nil {
		return &res, err
	}
	return &res, nil
}

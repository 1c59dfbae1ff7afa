package loader_test

import (
	"testing"

	"bennypowers.dev/tcm/internal/loader"
	"bennypowers.dev/tcm/internal/modularize"
	"bennypowers.dev/tcm/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit(t *testing.T) {
	css := ":root { --main-color: #fff; }\n.article .card-title { color: var(--main-color); }\n"
	result, err := modularize.Modularize(css, tokenizer.Lexer{})
	require.NoError(t, err)

	mainColor, _ := result.Symbol("--main-color")
	article, _ := result.Symbol("article")
	title, _ := result.Symbol("card-title")

	module := loader.Emit(result, css)
	assert.Equal(t, ""+
		"export const cssText = \":root { --main-color: #fff; }\\n.article .card-title { color: var(--main-color); }\\n\";\n"+
		"export const variables = {\n"+
		"    \"--main-color\": \""+mainColor.UniqueID+"\",\n"+
		"};\n"+
		"export default {\n"+
		"    article: \""+article.UniqueID+"\",\n"+
		"    \"card-title\": \""+title.UniqueID+"\",\n"+
		"};\n", module)
	assert.NoError(t, loader.Verify(module))
}

func TestEmitEmpty(t *testing.T) {
	result, err := modularize.Modularize("", tokenizer.Lexer{})
	require.NoError(t, err)

	module := loader.Emit(result, "")
	assert.Equal(t, "export const cssText = \"\";\nexport const variables = {};\nexport default {};\n", module)
	assert.NoError(t, loader.Verify(module))
}

func TestEmitRewrittenText(t *testing.T) {
	result, err := modularize.Modularize(".a {}", tokenizer.Lexer{})
	require.NoError(t, err)

	a, _ := result.Symbol("a")
	module := loader.Emit(result, result.NewCSSText)
	assert.Contains(t, module, `export const cssText = ".`+a.UniqueID+` {}";`)
}

func TestVerifyRejectsBrokenModules(t *testing.T) {
	err := loader.Verify("export const cssText = ;\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestVerifyAfterClosePool(t *testing.T) {
	require.NoError(t, loader.Verify("export default {};\n"))
	loader.ClosePool()
	require.NoError(t, loader.Verify("export const variables = {};\n"))
	assert.Error(t, loader.Verify("export default {;\n"))
}

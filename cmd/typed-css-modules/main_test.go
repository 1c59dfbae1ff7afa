package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/tcm/internal/generator"
	"bennypowers.dev/tcm/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func project(t *testing.T) (root, css string) {
	t.Helper()
	root = t.TempDir()
	css = filepath.Join(root, "a.module.css")
	require.NoError(t, os.WriteFile(css, []byte(".article { color: red; }\n:root { --gap: 1px; }\n"), 0o644))
	return root, css
}

func TestNoArguments(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: typed-css-modules")
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "typed-css-modules ")
}

func TestGenerate(t *testing.T) {
	root, css := project(t)

	code, stdout, _ := runCLI(t, "generate", "-root", root)
	require.Equal(t, 0, code)
	assert.Equal(t, "1 stylesheets: 1 written, 0 unchanged, 0 failed\n", stdout)
	assert.FileExists(t, css+".d.ts")
	assert.FileExists(t, css+".d.ts.map")

	code, stdout, _ = runCLI(t, "generate", "-root", root)
	require.Equal(t, 0, code)
	assert.Equal(t, "1 stylesheets: 0 written, 1 unchanged, 0 failed\n", stdout)
}

func TestGenerateInvalidFlagValue(t *testing.T) {
	root, _ := project(t)
	code, _, _ := runCLI(t, "generate", "-root", root, "-tokenizer", "regex")
	assert.Equal(t, 1, code)
}

func TestLoader(t *testing.T) {
	root, css := project(t)

	code, stdout, _ := runCLI(t, "loader", "-root", root, css)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `export const cssText = ".article { color: red; }\n:root { --gap: 1px; }\n";`)
	assert.Contains(t, stdout, `"--gap": "--gap-`)
	assert.Contains(t, stdout, `article: "article-`)
}

func TestLoaderRewrittenText(t *testing.T) {
	root, css := project(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".typed-css-modules.yaml"), []byte("loaderCssText: rewritten\n"), 0o644))

	code, stdout, _ := runCLI(t, "loader", "-root", root, css)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `export const cssText = ".article-`)
}

func TestLoaderUsage(t *testing.T) {
	code, _, stderr := runCLI(t, "loader")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: typed-css-modules loader")
}

func TestLookup(t *testing.T) {
	root, css := project(t)
	code, _, _ := runCLI(t, "generate", "-root", root)
	require.Equal(t, 0, code)

	// "    & { readonly article" puts the member at line 4, column 17
	code, stdout, _ := runCLI(t, "lookup", css+".d.ts.map", "4", "17")
	require.Equal(t, 0, code)
	assert.Equal(t, css+":1:1 (article)\n    1 | .article { color: red; }\n", stdout)
}

func TestLookupErrors(t *testing.T) {
	root, css := project(t)
	code, _, _ := runCLI(t, "generate", "-root", root)
	require.Equal(t, 0, code)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing arguments", []string{"lookup", css + ".d.ts.map"}, 2},
		{"bad line", []string{"lookup", css + ".d.ts.map", "zero", "0"}, 1},
		{"zero line", []string{"lookup", css + ".d.ts.map", "0", "0"}, 1},
		{"missing map", []string{"lookup", filepath.Join(root, "nope.map"), "1", "0"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name  string
		stats generator.Stats
		want  string
	}{
		{"complete", generator.Stats{Files: 4, Written: 1, Unchanged: 1, Skipped: 1, Failed: 1}, "4 stylesheets: 1 written, 2 unchanged, 1 failed\n"},
		{"cancelled", generator.Stats{Files: 5, Written: 1, Unchanged: 1}, "5 stylesheets: 1 written, 1 unchanged, 0 failed, 3 not processed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			printStats(&out, tt.stats)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"bennypowers.dev/tcm/internal/config"
	"bennypowers.dev/tcm/internal/declaration"
	"bennypowers.dev/tcm/internal/generator"
	"bennypowers.dev/tcm/internal/linemap"
	"bennypowers.dev/tcm/internal/loader"
	"bennypowers.dev/tcm/internal/log"
	"bennypowers.dev/tcm/internal/modularize"
	"bennypowers.dev/tcm/internal/tokenizer"
	"bennypowers.dev/tcm/internal/version"
	gosourcemap "github.com/go-sourcemap/sourcemap"
)

const usage = `Usage: typed-css-modules <command> [flags] [args]

Commands:
  generate                   write .d.ts and .d.ts.map files for every stylesheet
  watch                      like generate, repeated until interrupted
  loader <file>              print the JavaScript module for a stylesheet
  lookup <map> <line> <col>  resolve a declaration position to its stylesheet
  version                    print version information

Run 'typed-css-modules <command> -h' for the flags of a command.
`

func main() {
	os.Exit(runMain())
}

// runMain holds the deferred cleanup, which os.Exit would skip
func runMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer tokenizer.ClosePool()
	defer loader.ClosePool()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// run executes a command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "generate":
		err = runGenerate(ctx, rest, stdout, stderr, false)
	case "watch":
		err = runGenerate(ctx, rest, stdout, stderr, true)
	case "loader":
		err = runLoader(rest, stdout, stderr)
	case "lookup":
		err = runLookup(rest, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.Current())
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		log.Error("%v", err)
		return 1
	}
}

var errUsage = errors.New("usage error")

// configFlags registers the flags that override the loaded configuration
type configFlags struct {
	root        string
	pattern     string
	tokenizer   string
	concurrency int
	logLevel    string
}

func (f *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.root, "root", ".", "directory searched for stylesheets")
	fs.StringVar(&f.pattern, "pattern", "", "glob selecting stylesheets, relative to root")
	fs.StringVar(&f.tokenizer, "tokenizer", "", "tokenizer backend: lexer or tree-sitter")
	fs.IntVar(&f.concurrency, "concurrency", 0, "files processed at once (0 uses the configured value)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
}

// load reads the configuration for the root and applies flag overrides
func (f *configFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.root)
	if err != nil {
		return nil, err
	}
	if f.pattern != "" {
		cfg.Pattern = f.pattern
	}
	if f.tokenizer != "" {
		cfg.Tokenizer = f.tokenizer
	}
	if f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	return cfg, nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runGenerate(ctx context.Context, args []string, stdout, stderr io.Writer, watch bool) error {
	name := "generate"
	if watch {
		name = "watch"
	}
	fs := newFlagSet(name, stderr)
	var flags configFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}
	g, err := generator.New(cfg, declaration.OSFileSystem{})
	if err != nil {
		return err
	}

	if watch {
		log.Info("watching %s for changes, debounce %s", cfg.Root, cfg.WatchInterval)
		return g.Watch(ctx, func(stats generator.Stats, err error) {
			if stats.Written > 0 || stats.Failed > 0 {
				printStats(stdout, stats)
			}
		})
	}

	stats, err := g.Run(ctx)
	printStats(stdout, stats)
	return err
}

func printStats(w io.Writer, stats generator.Stats) {
	fmt.Fprintf(w, "%d stylesheets: %d written, %d unchanged, %d failed",
		stats.Files, stats.Written, stats.Unchanged+stats.Skipped, stats.Failed)
	if pending := stats.Pending(); pending > 0 {
		fmt.Fprintf(w, ", %d not processed", pending)
	}
	fmt.Fprintln(w)
}

func runLoader(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("loader", stderr)
	var flags configFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: typed-css-modules loader [flags] <file>")
		return errUsage
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}
	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return &declaration.FileError{Path: path, Op: "read", Err: err}
	}
	source := string(data)
	result, err := modularize.Modularize(source, tok)
	if err != nil {
		return &declaration.FileError{Path: path, Op: "modularize", Err: err}
	}

	cssText := source
	if cfg.LoaderCSSText == config.LoaderCSSTextRewritten {
		cssText = result.NewCSSText
	}
	module := loader.Emit(result, cssText)
	if err := loader.Verify(module); err != nil {
		return fmt.Errorf("emitted module for %s is invalid: %w", path, err)
	}
	_, err = io.WriteString(stdout, module)
	return err
}

func runLookup(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("lookup", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(stderr, "usage: typed-css-modules lookup <map> <line> <column>")
		return errUsage
	}

	mapPath := fs.Arg(0)
	line, err := strconv.Atoi(fs.Arg(1))
	if err != nil || line < 1 {
		return fmt.Errorf("invalid line %q: lines are 1-based", fs.Arg(1))
	}
	column, err := strconv.Atoi(fs.Arg(2))
	if err != nil || column < 0 {
		return fmt.Errorf("invalid column %q: columns are 0-based", fs.Arg(2))
	}

	data, err := os.ReadFile(mapPath)
	if err != nil {
		return &declaration.FileError{Path: mapPath, Op: "read", Err: err}
	}
	consumer, err := gosourcemap.Parse("", data)
	if err != nil {
		return fmt.Errorf("failed to parse source map %s: %w", mapPath, err)
	}

	source, name, origLine, origColumn, ok := consumer.Source(line, column)
	if !ok {
		return fmt.Errorf("no mapping for %s:%d:%d", mapPath, line, column)
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(filepath.Dir(mapPath), source)
	}

	fmt.Fprintf(stdout, "%s:%d:%d", source, origLine, origColumn)
	if name != "" {
		fmt.Fprintf(stdout, " (%s)", name)
	}
	fmt.Fprintln(stdout)

	if stylesheet, err := os.ReadFile(source); err == nil {
		idx := linemap.NewLineIndex(string(stylesheet))
		fmt.Fprintf(stdout, "%5d | %s\n", origLine, idx.Line(origLine-1))
	} else {
		log.Debug("could not read %s: %v", source, err)
	}
	return nil
}

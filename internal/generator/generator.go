// Package generator runs the declaration pipeline over every stylesheet in
// a project, once or repeatedly in watch mode.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bennypowers.dev/tcm/internal/config"
	"bennypowers.dev/tcm/internal/declaration"
	"bennypowers.dev/tcm/internal/log"
	"bennypowers.dev/tcm/internal/modularize"
	"bennypowers.dev/tcm/internal/tokenizer"
	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// cacheSize bounds the number of stylesheets remembered between watch-mode
// builds
const cacheSize = 4096

// Stats summarizes one build. Files not counted by any other field were
// never processed, which happens when the build is cancelled.
type Stats struct {
	Files int
	// Written files had at least one companion file rewritten
	Written int
	// Unchanged files were processed but both companion files were current
	Unchanged int
	// Skipped files were unchanged since the previous watch-mode build
	Skipped int
	Failed  int
}

// Pending returns the number of files the build never reached
func (s Stats) Pending() int {
	return s.Files - s.Written - s.Unchanged - s.Skipped - s.Failed
}

// outcome is the result of processing one stylesheet
type outcome int

const (
	outcomeWritten outcome = iota
	outcomeUnchanged
	outcomeSkipped
)

// generated remembers what a stylesheet and its companion files held after
// its last successful build
type generated struct {
	source      string
	declaration string
	sourceMap   string
}

// Generator writes declaration files for the stylesheets of one project
type Generator struct {
	cfg       *config.Config
	fsys      declaration.FileSystem
	tokenizer tokenizer.Tokenizer

	// cache is nil outside watch mode
	cache *lru.Cache[string, generated]
}

// New creates a Generator. The configuration must already be validated.
func New(cfg *config.Config, fsys declaration.FileSystem) (*Generator, error) {
	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return nil, config.NewInvalidConfigError("configuration", "tokenizer", err.Error())
	}
	return &Generator{
		cfg:       cfg,
		fsys:      fsys,
		tokenizer: tok,
	}, nil
}

// Run discovers the stylesheets and generates their declaration files.
// Every file is attempted; failures are attributed to their path and
// returned together.
func (g *Generator) Run(ctx context.Context) (Stats, error) {
	log.Info("resolving css modules. pattern: '%s', root: '%s'", g.cfg.Pattern, g.cfg.Root)
	paths, err := Discover(g.cfg.Root, g.cfg.Pattern)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to discover stylesheets: %w", err)
	}
	log.Debug("found %d stylesheets", len(paths))

	var (
		mu    sync.Mutex
		stats = Stats{Files: len(paths)}
		errs  []error
	)

	var group errgroup.Group
	group.SetLimit(g.cfg.Workers())
	for _, path := range paths {
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			result, err := g.processFile(ctx, path)
			if err != nil {
				log.Error("%v", err)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failed++
				errs = append(errs, err)
			case result == outcomeWritten:
				stats.Written++
			case result == outcomeUnchanged:
				stats.Unchanged++
			case result == outcomeSkipped:
				stats.Skipped++
			}
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, errors.Join(errs...)
}

// processFile reads one stylesheet and writes its companion files
func (g *Generator) processFile(ctx context.Context, path string) (outcome, error) {
	data, err := g.fsys.ReadFile(path)
	if err != nil {
		return 0, &declaration.FileError{Path: path, Op: "read", Err: err}
	}
	contents := string(data)

	var sourceHash string
	if g.cache != nil {
		sourceHash = modularize.Hash(contents)
		if prev, ok := g.cache.Get(path); ok && prev.source == sourceHash && g.companionsCurrent(path, prev) {
			return outcomeSkipped, nil
		}
	}

	log.Info("generating declaration file for '%s'", path)
	res, err := declaration.WriteDeclarationAndMapFile(ctx, g.fsys, path, contents, g.tokenizer)
	if err != nil {
		if g.cache != nil {
			g.cache.Remove(path)
		}
		return 0, err
	}
	if g.cache != nil {
		g.cache.Add(path, generated{
			source:      sourceHash,
			declaration: modularize.Hash(res.Output.Declaration),
			sourceMap:   modularize.Hash(res.Output.Map),
		})
	}
	if res.DeclarationWritten || res.MapWritten {
		return outcomeWritten, nil
	}
	return outcomeUnchanged, nil
}

// companionsCurrent reports whether the companion files on disk still hold
// what the last build wrote, so rewriting them would change nothing
func (g *Generator) companionsCurrent(path string, prev generated) bool {
	declarationPath, mapPath := declaration.Paths(path)
	for _, want := range []struct{ path, hash string }{
		{declarationPath, prev.declaration},
		{mapPath, prev.sourceMap},
	} {
		data, err := g.fsys.ReadFile(want.path)
		if err != nil || modularize.Hash(string(data)) != want.hash {
			return false
		}
	}
	return true
}

// Watch runs a build immediately, then watches the project directories and
// builds again once file system events for matching stylesheets have been
// quiet for WatchInterval. Stylesheets whose content and companion files
// have not changed since their last successful build are skipped. Build
// failures are logged and do not stop watching.
func (g *Generator) Watch(ctx context.Context, onBuild func(Stats, error)) error {
	cache, err := lru.New[string, generated](cacheSize)
	if err != nil {
		return err
	}
	g.cache = cache
	defer func() { g.cache = nil }()

	root, err := filepath.Abs(g.cfg.Root)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := g.addWatches(watcher, root, root); err != nil {
		return err
	}

	build := func() {
		stats, err := g.Run(ctx)
		if err != nil && ctx.Err() == nil {
			log.Warn("build finished with errors")
		}
		if onBuild != nil {
			onBuild(stats, err)
		}
	}

	build()
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if g.handleEvent(watcher, root, event) {
				debounce = time.After(g.cfg.WatchInterval.Std())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error: %v", err)
		case <-debounce:
			debounce = nil
			build()
		}
	}
}

// addWatches watches dir and every directory below it that discovery
// descends into
func (g *Generator) addWatches(watcher *fsnotify.Watcher, root, dir string) error {
	if dir != root {
		if rel, err := filepath.Rel(root, dir); err == nil && skipsPath(rel, g.cfg.Pattern) {
			return nil
		}
	}
	return walk(dir, g.cfg.Pattern, func(path string) error {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		log.Debug("watching %s", path)
		return nil
	}, func(string, string) error { return nil })
}

// skipsPath reports whether any directory of rel is one discovery skips
func skipsPath(rel, pattern string) bool {
	for _, name := range strings.Split(filepath.ToSlash(rel), "/") {
		if skipDirectoryName(name, pattern) {
			return true
		}
	}
	return false
}

// handleEvent watches newly created directories and reports whether the
// event can change the set or content of the stylesheets
func (g *Generator) handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	log.Debug("file system event: %s", event)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := g.addWatches(watcher, root, event.Name); err != nil {
				log.Warn("%v", err)
			}
			// files may have been moved in along with the directory
			return true
		}
	}

	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return false
	}
	matched, err := matchGlobPattern(g.cfg.Pattern, rel)
	return err == nil && matched
}

// Package config loads the generator configuration from package.json, a
// YAML file, the environment and .env files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"bennypowers.dev/tcm/internal/log"
	"bennypowers.dev/tcm/internal/tokenizer"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	// PackageJSONKey is the package.json field holding the configuration
	PackageJSONKey = "typedCssModules"
	// FileName is the optional YAML configuration file in the project root
	FileName = ".typed-css-modules.yaml"
	// EnvFileName is the optional dotenv file in the project root
	EnvFileName = ".env"
)

// Values accepted by LoaderCSSText
const (
	LoaderCSSTextOriginal  = "original"
	LoaderCSSTextRewritten = "rewritten"
)

// Config is the generator configuration
type Config struct {
	// Root is the directory searched for stylesheets
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// Pattern selects stylesheets, relative to Root
	// Default: "**/*.module.css"
	Pattern string `json:"pattern" yaml:"pattern"`

	// Tokenizer names the tokenizer backend ("lexer" or "tree-sitter")
	Tokenizer string `json:"tokenizer" yaml:"tokenizer"`

	// Concurrency bounds the number of files processed at once.
	// Zero means one per CPU.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// WatchInterval is how long watch mode waits for file events to settle
	// before rebuilding
	WatchInterval Duration `json:"watchInterval" yaml:"watchInterval"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	// LoaderCSSText chooses which text the emitted module exports as cssText
	LoaderCSSText string `json:"loaderCssText" yaml:"loaderCssText"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Root:          ".",
		Pattern:       "**/*.module.css",
		Tokenizer:     tokenizer.NameLexer,
		WatchInterval: Duration(500 * time.Millisecond),
		LogLevel:      "info",
		LoaderCSSText: LoaderCSSTextOriginal,
	}
}

// Workers returns the effective concurrency
func (c *Config) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return runtime.NumCPU()
}

// Load reads the configuration for the project at root, layering in order
// the defaults, package.json, the YAML file, .env and the process
// environment. The result is validated.
func Load(root string) (*Config, error) {
	return LoadWithEnv(root, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup
func LoadWithEnv(root string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Root = root

	if err := cfg.applyPackageJSON(filepath.Join(root, "package.json")); err != nil {
		return nil, err
	}
	if err := cfg.applyYAML(filepath.Join(root, FileName)); err != nil {
		return nil, err
	}
	dotenv, err := readDotEnv(filepath.Join(root, EnvFileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyPackageJSON(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: project package.json
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return NewInvalidConfigError(path, "", fmt.Sprintf("failed to parse: %v", err))
	}
	raw, ok := pkg[PackageJSONKey]
	if !ok {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return NewInvalidConfigError(path, PackageJSONKey, err.Error())
	}
	log.Debug("loaded configuration from %s", path)
	return nil
}

func (c *Config) applyYAML(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: project config file
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return NewInvalidConfigError(path, "", err.Error())
	}
	log.Debug("loaded configuration from %s", path)
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, NewInvalidConfigError(path, "", err.Error())
	}
	return values, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	const source = "environment"
	if v, ok := lookup("TCM_PATTERN"); ok {
		c.Pattern = v
	}
	if v, ok := lookup("TCM_TOKENIZER"); ok {
		c.Tokenizer = v
	}
	if v, ok := lookup("TCM_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("TCM_LOADER_CSS_TEXT"); ok {
		c.LoaderCSSText = v
	}
	if v, ok := lookup("TCM_CONCURRENCY"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return NewInvalidConfigError(source, "TCM_CONCURRENCY", "must be an integer")
		}
		c.Concurrency = n
	}
	if v, ok := lookup("TCM_WATCH_INTERVAL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return NewInvalidConfigError(source, "TCM_WATCH_INTERVAL", err.Error())
		}
		c.WatchInterval = Duration(d)
	}
	return nil
}

// Validate rejects configurations the generator cannot run with
func (c *Config) Validate() error {
	const source = "configuration"
	if c.Root == "" {
		return NewInvalidConfigError(source, "root", "must not be empty")
	}
	if c.Pattern == "" {
		return NewInvalidConfigError(source, "pattern", "must not be empty")
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		return NewInvalidConfigError(source, "pattern", fmt.Sprintf("%q is not a valid glob pattern", c.Pattern))
	}
	if !tokenizer.IsKnown(c.Tokenizer) {
		return NewInvalidConfigError(source, "tokenizer",
			fmt.Sprintf("%q is not one of %s", c.Tokenizer, strings.Join(tokenizer.Names(), ", ")))
	}
	if c.Concurrency < 0 {
		return NewInvalidConfigError(source, "concurrency", "must not be negative")
	}
	if c.WatchInterval <= 0 {
		return NewInvalidConfigError(source, "watchInterval", "must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return NewInvalidConfigError(source, "logLevel", err.Error())
	}
	switch c.LoaderCSSText {
	case LoaderCSSTextOriginal, LoaderCSSTextRewritten:
	default:
		return NewInvalidConfigError(source, "loaderCssText",
			fmt.Sprintf("%q is not one of %s, %s", c.LoaderCSSText, LoaderCSSTextOriginal, LoaderCSSTextRewritten))
	}
	return nil
}

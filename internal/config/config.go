// Package config loads forget.toml (or forget.yaml) and applies its
// declarations to the shape registry.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"forget/internal/hir"
	"forget/internal/trace"
)

// FileNames are the config file names searched for, in order.
var FileNames = []string{"forget.toml", "forget.yaml", "forget.yml"}

type Config struct {
	Compiler Compiler     `toml:"compiler" yaml:"compiler"`
	Trace    Trace        `toml:"trace" yaml:"trace"`
	Cache    Cache        `toml:"cache" yaml:"cache"`
	Hooks    []HookDecl   `toml:"hooks" yaml:"hooks"`
	Shapes   []ShapeDecl  `toml:"shapes" yaml:"shapes"`
	Globals  []GlobalDecl `toml:"globals" yaml:"globals"`

	// Path is the file the config was read from; empty for defaults.
	Path   string `toml:"-" yaml:"-"`
	// Digest is the SHA-256 of the file content; empty for defaults.
	Digest string `toml:"-" yaml:"-"`
}

type Compiler struct {
	BailOnTodo          bool `toml:"bail_on_todo" yaml:"bail_on_todo"`
	MaxDiagnostics      int  `toml:"max_diagnostics" yaml:"max_diagnostics"`
	ConstantPropagation bool `toml:"constant_propagation" yaml:"constant_propagation"`
	InlineUseMemo       bool `toml:"inline_use_memo" yaml:"inline_use_memo"`
	Validate            bool `toml:"validate" yaml:"validate"`
}

type Trace struct {
	Level  string `toml:"level" yaml:"level"`
	Mode   string `toml:"mode" yaml:"mode"` // stream or ring
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"`
}

type Cache struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Dir     string `toml:"dir" yaml:"dir"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Compiler: Compiler{ConstantPropagation: true, InlineUseMemo: true, Validate: true},
		Trace:    Trace{Level: "off", Mode: "stream", Format: "text", Output: "stderr"},
		Cache:    Cache{Dir: ".forget-cache"},
	}
}

// Features maps the compiler section onto pipeline feature toggles.
func (c *Config) Features() hir.Features {
	return hir.Features{
		ConstantPropagation: c.Compiler.ConstantPropagation,
		InlineUseMemo:       c.Compiler.InlineUseMemo,
		ValidateHIR:         c.Compiler.Validate,
	}
}

// Find walks up from startDir looking for a config file.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads path, choosing the decoder by extension. Keys missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes config content. path selects the format and is used in
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}
	cfg.Path = path
	sum := sha256.Sum256(data)
	cfg.Digest = hex.EncodeToString(sum[:])
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads explicit when set, otherwise the nearest config file
// above startDir, otherwise the defaults.
func Resolve(explicit, startDir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated values and declarations.
func (c *Config) Validate() error {
	var errs []error
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("trace.level: %w", err))
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		errs = append(errs, fmt.Errorf("trace.format: %w", err))
	}
	switch c.Trace.Mode {
	case "stream", "ring":
	default:
		errs = append(errs, fmt.Errorf("trace.mode: unknown mode %q", c.Trace.Mode))
	}
	if c.Compiler.MaxDiagnostics < 0 {
		errs = append(errs, fmt.Errorf("compiler.max_diagnostics: must be >= 0, got %d", c.Compiler.MaxDiagnostics))
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Dir) == "" {
		errs = append(errs, errors.New("cache.dir: required when the cache is enabled"))
	}
	errs = append(errs, c.validateDecls()...)
	return errors.Join(errs...)
}

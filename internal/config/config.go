// Package config loads probe settings from a YAML file.
//
// Files are decoded strictly (unknown keys are errors) and validated against
// an embedded CUE schema before use. Command-line flags override file values.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/probe/internal/harness"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = ".probe.yaml"

//go:embed schema.cue
var schemaSource string

// Config is the resolved configuration of a run.
type Config struct {
	Format  string
	Timeout time.Duration
	Filter  string
	Verbose bool
	Record  string
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Format:  "text",
		Timeout: harness.DefaultTimeout,
	}
}

// Options converts c into runner options.
func (c Config) Options() []harness.Option {
	return []harness.Option{
		harness.WithDefaultTimeout(c.Timeout),
		harness.WithFilter(c.Filter),
	}
}

// file is the on-disk form. The json tags name the fields for CUE.
type file struct {
	Format  string `yaml:"format" json:"format,omitempty"`
	Timeout string `yaml:"timeout" json:"timeout,omitempty"`
	Filter  string `yaml:"filter" json:"filter,omitempty"`
	Verbose bool   `yaml:"verbose" json:"verbose,omitempty"`
	Record  string `yaml:"record" json:"record,omitempty"`
}

// ValidationError is a config value rejected by the schema.
type ValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
}

// Load reads, validates and resolves the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, data)
}

// LoadOptional is Load, except a missing file yields Default.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes data as a config file; name is used in error messages.
func Parse(name string, data []byte) (Config, error) {
	var f file
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(name, &f); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if f.Format != "" {
		cfg.Format = f.Format
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return Config{}, &ValidationError{Path: name, Field: "timeout", Message: err.Error()}
		}
		if d > 0 {
			cfg.Timeout = d
		}
	}
	cfg.Filter = f.Filter
	cfg.Verbose = f.Verbose
	cfg.Record = f.Record
	return cfg, nil
}

func validate(name string, f *file) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(f))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(name, err)
	}
	return nil
}

// formatCUEError reduces a CUE error list to its first error.
func formatCUEError(name string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Path: name, Message: err.Error()}
	}

	first := errs[0]
	path := first.Path()
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	format, args := first.Msg()
	return &ValidationError{
		Path:    name,
		Field:   strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
	}
}

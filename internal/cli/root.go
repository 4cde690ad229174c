package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/probe/internal/config"
	"github.com/roach88/probe/internal/harness"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	NoColor    bool

	// Config is the file configuration with flag overrides applied. It is
	// resolved before any subcommand runs.
	Config config.Config

	catalog []harness.RegisterFunc
	logger  *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the probe CLI. catalog
// declares the cases that test and list operate on.
func NewRootCommand(catalog ...harness.RegisterFunc) *cobra.Command {
	opts := &RootOptions{catalog: catalog}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "probe - declarative assertion harness",
		Long: `probe runs a catalog of named cases grouped into suites, with
lifecycle hooks, deferred results and per-frame timeouts, and reports
a pass/fail status for every case.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultPath+" when present)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	// Add subcommands
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// resolve loads the config file and applies global flag overrides.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		cfg, err = config.LoadOptional(config.DefaultPath)
	}
	if err != nil {
		if o.Format == "json" {
			out := &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
			_ = out.Error(ErrCodeConfig, err.Error(), configDetails(err))
		}
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.Verbose
	}
	o.Format = cfg.Format
	o.Verbose = cfg.Verbose
	o.Config = cfg

	// Validate format flag
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	if o.NoColor {
		color.NoColor = true
	}

	logLevel := slog.LevelWarn
	if o.Verbose {
		logLevel = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	return nil
}

// configDetails exposes the rejected field of a schema violation.
func configDetails(err error) any {
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return map[string]string{"path": ve.Path, "field": ve.Field}
	}
	return nil
}

// Logger returns the diagnostics logger configured for this invocation.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

// Registry builds a fresh run context holding the catalog.
func (o *RootOptions) Registry() *harness.Registry {
	return harness.NewRegistry().Load(o.catalog...)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

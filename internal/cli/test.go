package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/probe/internal/config"
	"github.com/roach88/probe/internal/harness"
	"github.com/roach88/probe/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter  string        // case filter (glob or substring over full names)
	Timeout time.Duration // default frame timeout
	Record  string        // sqlite database receiving the run
	Timings bool          // show case durations

	ids store.IDGenerator
}

// TestResult is the JSON payload of the test command.
type TestResult struct {
	Cases         []harness.CaseResult   `json:"cases"`
	SuiteFailures []harness.SuiteFailure `json:"suite_failures,omitempty"`
	Passed        int                    `json:"passed"`
	Failed        int                    `json:"failed"`
	Total         int                    `json:"total"`
	Duration      time.Duration          `json:"duration_ns"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts, ids: store.UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the case catalog",
		Long: `Run every registered case and report a status per case.

Cases run one at a time in declaration order. Lifecycle hooks run
around them, and every hook and case body is bounded by a timeout.

Exit codes:
  0 - All cases passed
  1 - One or more cases, or an after-all hook, failed
  2 - Command error (invalid filter, unreadable config, database error)

Examples:
  probe test
  probe test --filter "Combine promise tests > *"
  probe test --filter heading --timeout 500ms
  probe test --record runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only cases whose full name matches (glob or substring)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", harness.DefaultTimeout, "maximum wait of each hook and case body")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record the run in this sqlite database")
	cmd.Flags().BoolVar(&opts.Timings, "timings", false, "show case durations")

	return cmd
}

// applyConfig merges the test flags into the resolved config. Flags the user
// set win; the others take the config file value when it has one.
func (o *TestOptions) applyConfig(cmd *cobra.Command) config.Config {
	flags := cmd.Flags()
	if !flags.Changed("filter") && o.Config.Filter != "" {
		o.Filter = o.Config.Filter
	}
	if !flags.Changed("timeout") && o.Config.Timeout > 0 {
		o.Timeout = o.Config.Timeout
	}
	if !flags.Changed("record") && o.Config.Record != "" {
		o.Record = o.Config.Record
	}

	cfg := o.Config
	cfg.Filter = o.Filter
	cfg.Timeout = o.Timeout
	cfg.Record = o.Record
	return cfg
}

func runTests(opts *TestOptions, cmd *cobra.Command) error {
	cfg := opts.applyConfig(cmd)
	logger := opts.Logger()
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Case console output must not corrupt the JSON document.
	var console io.Writer = cmd.OutOrStdout()
	if opts.Format == "json" {
		console = cmd.ErrOrStderr()
	}

	startedAt := time.Now()
	runOpts := append(cfg.Options(),
		harness.WithLogger(logger),
		harness.WithConsole(console),
	)
	rep, err := harness.Run(commandContext(cmd), opts.Registry(), runOpts...)
	if err != nil {
		if opts.Format == "json" {
			_ = out.Error(ErrCodeFilter, err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "cannot run cases", err)
	}
	out.VerboseLog("Ran %d case(s) in %s", rep.Total(), rep.Duration.Round(time.Millisecond))

	var runID string
	if opts.Record != "" {
		runID, err = recordRun(commandContext(cmd), opts.Record, opts.ids, startedAt, opts.Filter, rep)
		if err != nil {
			if opts.Format == "json" {
				_ = out.Error(ErrCodeStore, err.Error(), nil)
			}
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		logger.Info("run recorded", "id", runID, "db", opts.Record)
		out.VerboseLog("Recorded run %s in %s", runID, opts.Record)
	}

	if opts.Format == "json" {
		return outputTestJSON(out, rep, runID)
	}
	return outputTestText(cmd, opts, rep, runID)
}

// recordRun writes rep to the history at path under an id drawn from ids.
func recordRun(ctx context.Context, path string, ids store.IDGenerator, startedAt time.Time, filter string, rep *harness.Report) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := st.WriteRun(ctx, ids.Generate(), startedAt, filter, rep)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(out *OutputFormatter, rep *harness.Report, runID string) error {
	result := TestResult{
		Cases:         rep.Cases,
		SuiteFailures: rep.SuiteFailures,
		Passed:        rep.Passed,
		Failed:        rep.Failed,
		Total:         rep.Total(),
		Duration:      rep.Duration,
	}
	if result.Cases == nil {
		result.Cases = []harness.CaseResult{}
	}

	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  runID,
	}
	exitErr := failureExit(rep)
	if exitErr != nil {
		response.Status = "error"
		code := ErrCodeTestFailed
		if rep.Failed == 0 {
			code = ErrCodeSuiteFailure
		}
		response.Error = &CLIError{Code: code, Message: exitErr.Message}
	}

	if err := out.Respond(response); err != nil {
		return err
	}
	if exitErr != nil {
		return exitErr
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, opts *TestOptions, rep *harness.Report, runID string) error {
	w := cmd.OutOrStdout()

	if rep.Total() == 0 {
		fmt.Fprintln(w, "No cases matched.")
	}
	WriteTextReport(w, rep, TextReportOptions{Timings: opts.Timings})
	if runID != "" {
		fmt.Fprintf(w, "Run recorded: %s\n", runID)
	}

	if exitErr := failureExit(rep); exitErr != nil {
		return exitErr
	}
	return nil
}

// failureExit returns the exit error for a report with failures, or nil.
func failureExit(rep *harness.Report) *ExitError {
	switch {
	case rep.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", rep.Failed))
	case len(rep.SuiteFailures) > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d after-all hook(s) failed", len(rep.SuiteFailures)))
	}
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/probe/internal/harness"
	"github.com/roach88/probe/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Run      string // show the cases of one run
	Delete   string // remove one run
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded with test --record",
		Long: `List recorded runs, most recent first, or the case results of one run.

Examples:
  probe history --db runs.db
  probe history --db runs.db --limit 5 --format json
  probe history --db runs.db --run 0190f1c2-...
  probe history --db runs.db --delete 0190f1c2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "run history database (defaults to the configured record path)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the case results of this run id")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "remove this run id and its results")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Database == "" {
		opts.Database = opts.Config.Record
	}
	if opts.Database == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set record in the config file")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	out.VerboseLog("Reading run history from %s", opts.Database)
	ctx := commandContext(cmd)

	switch {
	case opts.Run != "":
		return showRun(cmd, out, st, opts.Run)
	case opts.Delete != "":
		if err := st.DeleteRun(ctx, opts.Delete); err != nil {
			return WrapExitError(ExitCommandError, "failed to delete run", err)
		}
		if opts.Format == "json" {
			return out.Success(map[string]string{"deleted": opts.Delete})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", opts.Delete)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if opts.Format == "json" {
		return out.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		writeRunLine(cmd, run)
	}
	return nil
}

// RunDetail is the JSON payload of history --run.
type RunDetail struct {
	Run           store.Run              `json:"run"`
	Cases         []harness.CaseResult   `json:"cases"`
	SuiteFailures []harness.SuiteFailure `json:"suite_failures"`
}

func showRun(cmd *cobra.Command, out *OutputFormatter, st *store.Store, id string) error {
	ctx := commandContext(cmd)
	run, err := st.ReadRun(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	cases, err := st.ReadCases(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	failures, err := st.ReadSuiteFailures(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if out.Format == "json" {
		return out.Success(RunDetail{Run: run, Cases: cases, SuiteFailures: failures})
	}

	w := cmd.OutOrStdout()
	writeRunLine(cmd, run)
	fmt.Fprintln(w)
	for _, c := range cases {
		mark := passMark("✓")
		if c.Status != harness.StatusPassed {
			mark = failMark("✗")
		}
		fmt.Fprintf(w, "%s %s\n", mark, c.FullName())
	}
	writeSuiteFailures(w, failures)
	return nil
}

func writeRunLine(cmd *cobra.Command, run store.Run) {
	mark := passMark("✓")
	if !run.OK() {
		mark = failMark("✗")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s  %d passed, %d failed, %d total  %s\n",
		mark,
		run.ID,
		run.StartedAt.Format(time.RFC3339),
		run.Passed,
		run.Failed,
		run.Total(),
		dim(run.Duration.Round(time.Millisecond).String()),
	)
}

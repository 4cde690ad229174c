package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/roach88/probe/internal/harness"
)

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
	bold     = color.New(color.Bold).SprintFunc()
)

// TextReportOptions controls the human-readable report.
type TextReportOptions struct {
	Timings bool // append each case duration
}

// WriteTextReport writes one line per case, the details of every failure,
// after-all failures, and the summary line.
func WriteTextReport(w io.Writer, rep *harness.Report, opts TextReportOptions) {
	for _, c := range rep.Cases {
		line := c.FullName()
		if opts.Timings {
			line += " " + dim(fmt.Sprintf("(%s)", c.Duration.Round(time.Millisecond)))
		}

		if c.Status == harness.StatusPassed {
			fmt.Fprintf(w, "%s %s\n", passMark("✓"), line)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", failMark("✗"), line)
		fmt.Fprintf(w, "  %s\n", dim("["+string(c.Kind)+"]"))
		writeIndented(w, c.Message, "  ")
	}

	writeSuiteFailures(w, rep.SuiteFailures)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", rep.Passed, rep.Failed, rep.Total())
	if opts.Timings {
		fmt.Fprintf(w, "Time: %s\n", rep.Duration.Round(time.Millisecond))
	}

	if rep.OK() {
		fmt.Fprintln(w, passMark("✓")+" All cases passed")
	}
}

// writeSuiteFailures lists after-all failures; the root suite shows as
// (global).
func writeSuiteFailures(w io.Writer, failures []harness.SuiteFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Suite failures:"))
	for _, f := range failures {
		name := strings.Join(f.Suite, harness.PathSeparator)
		if name == "" {
			name = "(global)"
		}
		fmt.Fprintf(w, "%s %s %s\n", failMark("✗"), name, dim("["+f.Timing+"]"))
		writeIndented(w, f.Message, "  ")
	}
}

func writeIndented(w io.Writer, text, indent string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if line == "" {
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintln(w, indent+line)
	}
}

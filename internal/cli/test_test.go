package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/probe/internal/demo"
	"github.com/roach88/probe/internal/harness"
	"github.com/roach88/probe/internal/store"
	"github.com/roach88/probe/internal/testutil"
)

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestTestCommand_AllPass(t *testing.T) {
	stdout, _, err := execute(t, passingCatalog, "test")
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ adds")
	assert.Contains(t, stdout, "✓ strings > contains")
	assert.Contains(t, stdout, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, stdout, "✓ All cases passed")
}

func TestTestCommand_FailureExitCode(t *testing.T) {
	stdout, _, err := execute(t, failingCatalog, "test")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1 case(s) failed", err.Error())

	assert.Contains(t, stdout, "✓ passes")
	assert.Contains(t, stdout, "✗ math > fails")
	assert.Contains(t, stdout, "[assertion]")
	assert.Contains(t, stdout, "Assertion failed: ToBe")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
	assert.NotContains(t, stdout, "All cases passed")
}

func TestTestCommand_JSON(t *testing.T) {
	stdout, _, err := execute(t, failingCatalog, "test", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["passed"])
	assert.Equal(t, float64(1), data["failed"])
	assert.Equal(t, float64(2), data["total"])

	cases := data["cases"].([]any)
	require.Len(t, cases, 2)
	failed := cases[1].(map[string]any)
	assert.Equal(t, "fails", failed["name"])
	assert.Equal(t, "failed", failed["status"])
	assert.Equal(t, "assertion", failed["kind"])
	assert.Equal(t, "5", failed["expected"])
	assert.Equal(t, "4", failed["actual"])
}

func TestTestCommand_JSONKeepsConsoleOffStdout(t *testing.T) {
	logging := func(s *harness.Suite) {
		s.BeforeAll(func(t *harness.T) { t.Log("hello from a hook") })
		s.It("quiet", func(*harness.T) {})
	}

	stdout, stderr, err := execute(t, logging, "test", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "ok", decodeResponse(t, stdout).Status)
	assert.Contains(t, stderr, "hello from a hook")
}

func TestTestCommand_Filter(t *testing.T) {
	stdout, _, err := execute(t, failingCatalog, "test", "--filter", "pass*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_FilterMatchesNothing(t *testing.T) {
	stdout, _, err := execute(t, passingCatalog, "test", "--filter", "nothing here")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No cases matched.")
	assert.Contains(t, stdout, "0 total")
}

func TestTestCommand_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, passingCatalog, "test", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommand_Timeout(t *testing.T) {
	slow := func(s *harness.Suite) {
		s.It("waits", func(t *harness.T) {
			<-t.Context().Done()
		})
	}

	stdout, _, err := execute(t, slow, "test", "--timeout", "20ms")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "[timeout]")
	assert.Contains(t, stdout, "exceeded timeout of 20ms")
}

func TestTestCommand_AfterAllFailure(t *testing.T) {
	catalog := func(s *harness.Suite) {
		s.Describe("cleanup", func(s *harness.Suite) {
			s.AfterAll(func(t *harness.T) { t.Failf("teardown broke") })
			s.It("runs", func(*harness.T) {})
		})
	}

	stdout, _, err := execute(t, catalog, "test", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSuiteFailure, resp.Error.Code)
}

func TestTestCommand_Record(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, failingCatalog, "test", "--record", db, "--format", "json")
	require.Error(t, err)

	resp := decodeResponse(t, stdout)
	require.NotEmpty(t, resp.RunID)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Failed)
	assert.WithinDuration(t, time.Now(), run.StartedAt, time.Minute)

	cases, err := st.ReadCases(context.Background(), resp.RunID)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "math > fails", cases[1].FullName())
}

func TestRecordRun_UsesIDGenerator(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := testutil.NewSequenceIDGenerator("run")
	rep := harness.NewReport()
	rep.AddCase(harness.CaseResult{Name: "adds", Status: harness.StatusPassed})

	first, err := recordRun(context.Background(), db, ids, testutil.Epoch, "", rep)
	require.NoError(t, err)
	second, err := recordRun(context.Background(), db, ids, testutil.Epoch, "adds", rep)
	require.NoError(t, err)
	assert.Equal(t, "run-1", first)
	assert.Equal(t, "run-2", second)

	stdout, _, err := execute(t, passingCatalog, "history", "--db", db, "--run", "run-2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ adds")
}

func TestTestCommand_VerboseLog(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, stderr, err := execute(t, passingCatalog, "test", "-v", "--record", db)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Ran 2 case(s) in")
	assert.Contains(t, stderr, "Recorded run ")
	assert.NotContains(t, stdout, "Ran 2 case(s)")

	_, quiet, err := execute(t, passingCatalog, "test")
	require.NoError(t, err)
	assert.NotContains(t, quiet, "Ran 2 case(s)")
}

func TestTestCommand_RecordBadPath(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing", "dir", "runs.db")

	_, _, err := execute(t, passingCatalog, "test", "--record", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_DemoCatalog(t *testing.T) {
	stdout, _, err := execute(t, demo.Register, "test")
	require.NoError(t, err)

	assert.Contains(t, stdout, "This is before all tests")
	assert.Contains(t, stdout, "✓ Combine promise tests > async function returns Hello test")
	assert.Contains(t, stdout, "✓ Testing Home component > renders a heading inside h1")
	assert.Contains(t, stdout, "Test Summary: 9 passed, 0 failed, 9 total")
}

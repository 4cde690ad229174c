package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/probe/internal/harness"
	"github.com/roach88/probe/internal/testutil"
)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() *harness.Report {
	rep := harness.NewReport()
	rep.AddCase(harness.CaseResult{
		Name:     "add 2+3 should be equal to 5",
		Status:   harness.StatusPassed,
		Duration: time.Millisecond,
	})
	rep.AddCase(harness.CaseResult{
		Suite:    []string{"Combine promise tests"},
		Name:     "async function returns abcd",
		Status:   harness.StatusFailed,
		Kind:     harness.KindAssertion,
		Message:  "Assertion failed: ToEqual",
		Expected: `demo.Response{Value:"abcd"}`,
		Actual:   `demo.Response{Value:"hello test"}`,
		Duration: 101 * time.Millisecond,
	})
	rep.AddSuiteFailure(harness.SuiteFailure{
		Suite:   []string{"Combine promise tests"},
		Timing:  "after_all",
		Kind:    harness.KindHook,
		Message: "after_all hook failed (Combine promise tests): boom",
	})
	rep.Duration = 150 * time.Millisecond
	return rep
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.WriteRun(ctx, "run-1", testutil.Epoch, "", sampleReport())
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	runs, err := s2.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion+1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rep := sampleReport()

	run, err := s.WriteRun(ctx, "run-1", testutil.Epoch, "promise", rep)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 1, run.SuiteFailures)
	assert.Equal(t, 2, run.Total())
	assert.False(t, run.OK())

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.True(t, got.StartedAt.Equal(testutil.Epoch))
	assert.Equal(t, 150*time.Millisecond, got.Duration)
	assert.Equal(t, "promise", got.Filter)

	cases, err := s.ReadCases(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rep.Cases, cases)

	failures, err := s.ReadSuiteFailures(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rep.SuiteFailures, failures)
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, "run-1", testutil.Epoch, "", sampleReport())
	require.NoError(t, err)

	_, err = s.WriteRun(ctx, "run-1", testutil.Epoch, "", sampleReport())
	require.Error(t, err)

	// The failed transaction left no partial rows behind.
	cases, err := s.ReadCases(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, cases, 2)
}

func TestWriteRun_EmptyReport(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.WriteRun(ctx, "empty", testutil.Epoch, "", harness.NewReport())
	require.NoError(t, err)
	assert.True(t, run.OK())

	cases, err := s.ReadCases(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}

func TestListRuns_MostRecentFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	clock := testutil.NewStepClock(time.Minute)
	ids := testutil.NewSequenceIDGenerator("run")

	for i := 0; i < 3; i++ {
		_, err := s.WriteRun(ctx, ids.Generate(), clock.Now(), "", harness.NewReport())
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, "run-1", runs[2].ID)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestDeleteRun_CascadesToResults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, "run-1", testutil.Epoch, "", sampleReport())
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(ctx, "run-1"))

	cases, err := s.ReadCases(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, cases)

	failures, err := s.ReadSuiteFailures(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, failures)

	assert.ErrorIs(t, s.DeleteRun(ctx, "run-1"), ErrRunNotFound)
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}

	a := gen.Generate()
	b := gen.Generate()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a run: the lifecycle trace plus
// each case's status. Durations and messages are left out so the snapshot
// only changes when ordering or outcomes change.
type TraceSnapshot struct {
	Name  string         `json:"name"`
	Cases []CaseSnapshot `json:"cases"`
	Trace []TraceEvent   `json:"trace"`
}

// CaseSnapshot is the stable subset of a CaseResult.
type CaseSnapshot struct {
	Name   string      `json:"name"`
	Status Status      `json:"status"`
	Kind   FailureKind `json:"kind,omitempty"`
}

// Snapshot builds the golden-file form of rep.
func Snapshot(name string, rep *Report) TraceSnapshot {
	s := TraceSnapshot{
		Name:  name,
		Cases: make([]CaseSnapshot, len(rep.Cases)),
		Trace: rep.Trace,
	}
	for i, c := range rep.Cases {
		s.Cases[i] = CaseSnapshot{Name: c.FullName(), Status: c.Status, Kind: c.Kind}
	}
	return s
}

// AssertGolden compares the snapshot of rep against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run the package tests with -update.
func AssertGolden(t *testing.T, name string, rep *Report) error {
	t.Helper()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Snapshot(name, rep)); err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())

	return nil
}

package harness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferred_SettlesOnce(t *testing.T) {
	d := NewDeferred[int]()
	assert.NoError(t, d.Err())

	assert.True(t, d.Resolve(1))
	assert.False(t, d.Resolve(2))
	assert.False(t, d.Reject(errors.New("late")))

	v, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDeferred_ConcurrentSettle(t *testing.T) {
	d := NewDeferred[int]()

	var wg sync.WaitGroup
	wins := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if d.Resolve(i) {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
	winner := <-wins
	v, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, winner, v)
}

func TestDeferred_RejectNilUsesErrRejected(t *testing.T) {
	d := Rejected[string](nil)
	assert.ErrorIs(t, d.Err(), ErrRejected)

	_, err := d.Await(context.Background())
	assert.ErrorIs(t, err, ErrRejected)
}

func TestDeferred_Resolved(t *testing.T) {
	d := Resolved("done")
	select {
	case <-d.Done():
	default:
		t.Fatal("Resolved should be settled")
	}
	assert.NoError(t, d.Err())
}

func TestDeferred_After(t *testing.T) {
	start := time.Now()
	v, err := After(20*time.Millisecond, "late").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", v)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDeferred_Go(t *testing.T) {
	v, err := Go(func() (int, error) { return 42, nil }).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	_, err = Go(func() (int, error) { return 0, boom }).Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDeferred_GoPanicRejects(t *testing.T) {
	_, err := Go(func() (int, error) { panic("boom") }).Await(context.Background())

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestDeferred_AwaitContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDeferred[int]().Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

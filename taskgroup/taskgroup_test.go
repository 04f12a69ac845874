package taskgroup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunPreservesOrder(t *testing.T) {
	for _, limit := range []int{0, 1, 3} {
		tasks := make([]Task[int], 10)
		for i := range tasks {
			tasks[i] = func(context.Context) (int, error) {
				// later tasks finish first
				time.Sleep(time.Duration(10-i) * time.Millisecond)
				return i * i, nil
			}
		}
		results := Run(context.Background(), limit, tasks)
		require.Len(t, results, 10)
		for i, r := range results {
			assert.NoError(t, r.Err)
			assert.Equal(t, i*i, r.Value, "limit %d", limit)
		}
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task[string]{
		func(context.Context) (string, error) { return "a", nil },
		func(context.Context) (string, error) { return "", boom },
		func(context.Context) (string, error) { panic("bad candidate") },
		func(context.Context) (string, error) { return "d", nil },
	}
	results := Run(context.Background(), 2, tasks)

	assert.Equal(t, "a", results[0].Value)
	assert.True(t, errors.Is(results[1].Err, boom))
	assert.ErrorContains(t, results[2].Err, "bad candidate")
	assert.NoError(t, results[3].Err)
	assert.Equal(t, "d", results[3].Value)
}

func TestRunRespectsLimit(t *testing.T) {
	var running, peak int32
	tasks := make([]Task[struct{}], 12)
	for i := range tasks {
		tasks[i] = func(context.Context) (struct{}, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}, nil
		}
	}
	Run(context.Background(), 3, tasks)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int32
	tasks := []Task[int]{
		func(context.Context) (int, error) { atomic.AddInt32(&calls, 1); return 1, nil },
	}
	results := Run(ctx, 1, tasks)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

package async

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCollectsAllResults(t *testing.T) {
	pool := NewPool(3)

	var tasks []Task
	for i := 0; i < 10; i++ {
		n := i
		tasks = append(tasks, Task{
			Name: fmt.Sprintf("task-%d", n),
			Execute: func(ctx context.Context) (any, error) {
				if n == 7 {
					return nil, errors.New("boom")
				}
				return n * n, nil
			},
		})
	}

	results := pool.Execute(context.Background(), tasks)
	require.Len(t, results, 10)
	assert.Equal(t, 9, results["task-3"].Data)
	assert.EqualError(t, results["task-7"].Err, "boom")

	// The pool can be reused.
	again := pool.Execute(context.Background(), tasks[:2])
	assert.Len(t, again, 2)
}

func TestExecuteBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)

	var running, peak int32
	task := func(name string) Task {
		return Task{Name: name, Execute: func(ctx context.Context) (any, error) {
			cur := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil, nil
		}}
	}

	pool.Execute(context.Background(), []Task{task("a"), task("b"), task("c"), task("d"), task("e")})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestExecuteWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	results := NewPool(2).Execute(ctx, []Task{
		{Name: "a", Execute: func(ctx context.Context) (any, error) { atomic.AddInt32(&ran, 1); return nil, nil }},
		{Name: "b", Execute: func(ctx context.Context) (any, error) { atomic.AddInt32(&ran, 1); return nil, nil }},
	})

	require.Len(t, results, 2)
	assert.ErrorIs(t, results["a"].Err, context.Canceled)
	assert.ErrorIs(t, results["b"].Err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

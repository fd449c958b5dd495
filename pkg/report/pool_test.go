package report

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachJobPreservesOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1}
	results, errs := forEachJob(context.Background(), 3, items,
		func(ctx context.Context, n int) (string, error) {
			return fmt.Sprintf("item-%d", n), nil
		})
	require.Len(t, results, len(items))
	for i, n := range items {
		assert.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("item-%d", n), results[i])
	}
}

func TestForEachJobBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int64
	items := make([]int, 20)
	_, errs := forEachJob(context.Background(), 4, items,
		func(ctx context.Context, _ int) (struct{}, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			active.Add(-1)
			return struct{}{}, nil
		})
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, peak.Load(), int64(4))
}

func TestForEachJobCapturesPanic(t *testing.T) {
	items := []int{1, 2, 3}
	results, errs := forEachJob(context.Background(), 2, items,
		func(ctx context.Context, n int) (int, error) {
			if n == 2 {
				panic("boom")
			}
			return n * 10, nil
		})
	assert.NoError(t, errs[0])
	assert.Equal(t, 10, results[0])
	require.Error(t, errs[1])
	assert.Contains(t, errs[1].Error(), "boom")
	assert.NoError(t, errs[2])
	assert.Equal(t, 30, results[2])
}

func TestForEachJobMinimumOneWorker(t *testing.T) {
	results, errs := forEachJob(context.Background(), 0, []int{1, 2},
		func(ctx context.Context, n int) (int, error) { return n, nil })
	require.Len(t, results, 2)
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunBatchSequentialStopsAtFirstFailure(t *testing.T) {
	var attempted []int
	res := runBatch(context.Background(), []int{1, 2, 3, 4}, Sequential, func(ctx context.Context, n int) (int, error) {
		attempted = append(attempted, n)
		if n == 3 {
			return 0, errors.New("boom")
		}
		return n * 10, nil
	})
	require.Equal(t, []int{1, 2, 3}, attempted)
	require.Equal(t, []int{10, 20}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	require.Equal(t, 3, res.Failed[0].Item)
}

func TestRunBatchParallelRunsToCompletion(t *testing.T) {
	var mu sync.Mutex
	attempted := map[int]bool{}
	res := runBatch(context.Background(), []int{1, 2, 3, 4}, Parallel, func(ctx context.Context, n int) (int, error) {
		mu.Lock()
		attempted[n] = true
		mu.Unlock()
		if n%2 == 0 {
			return 0, errors.New("boom")
		}
		return n, nil
	})
	// failures do not cancel the rest
	require.Len(t, attempted, 4)
	require.ElementsMatch(t, []int{1, 3}, res.Succeeded)
	require.Len(t, res.Failed, 2)
}

func TestBatchResultErr(t *testing.T) {
	ok := BatchResult[string, string]{Succeeded: []string{"a"}}
	require.NoError(t, ok.Err("op"))

	bad := BatchResult[string, string]{
		Succeeded: []string{"a"},
		Failed:    []BatchFailure[string]{{Item: "b", Err: errors.New("boom")}},
	}
	err := bad.Err("delete logs")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "delete logs: 1 of 2"))
}

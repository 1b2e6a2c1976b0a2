package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchMode selects how runBatch issues its sub-operations.
type BatchMode int

const (
	// Sequential issues one operation at a time and stops at the first
	// failure, leaving a well-defined committed prefix.
	Sequential BatchMode = iota
	// Parallel issues all operations concurrently and always runs them
	// to completion, collecting every failure.
	Parallel
)

// BatchFailure pairs a failed item with its error.
type BatchFailure[T any] struct {
	Item T
	Err  error
}

// BatchResult is the uniform partial-result type for batch loops.
type BatchResult[T, R any] struct {
	Succeeded []R
	Failed    []BatchFailure[T]
}

// Err summarizes the batch as a single error naming the operation, or
// nil if everything succeeded. Sub-item detail stays in Failed.
func (r BatchResult[T, R]) Err(op string) error {
	if len(r.Failed) == 0 {
		return nil
	}
	total := len(r.Succeeded) + len(r.Failed)
	return fmt.Errorf("%s: %d of %d operations failed; refresh the deployment to resynchronize", op, len(r.Failed), total)
}

// runBatch applies op to every item in the requested mode. There is no
// rollback: succeeded results are returned even when others failed.
func runBatch[T, R any](ctx context.Context, items []T, mode BatchMode, op func(context.Context, T) (R, error)) BatchResult[T, R] {
	var res BatchResult[T, R]
	switch mode {
	case Sequential:
		for _, item := range items {
			out, err := op(ctx, item)
			if err != nil {
				res.Failed = append(res.Failed, BatchFailure[T]{Item: item, Err: err})
				return res
			}
			res.Succeeded = append(res.Succeeded, out)
		}
	case Parallel:
		outs := make([]R, len(items))
		errs := make([]error, len(items))
		g, gctx := errgroup.WithContext(ctx)
		for i, item := range items {
			g.Go(func() error {
				outs[i], errs[i] = op(gctx, item)
				return nil
			})
		}
		_ = g.Wait()
		for i, item := range items {
			if errs[i] != nil {
				res.Failed = append(res.Failed, BatchFailure[T]{Item: item, Err: errs[i]})
				continue
			}
			res.Succeeded = append(res.Succeeded, outs[i])
		}
	}
	return res
}

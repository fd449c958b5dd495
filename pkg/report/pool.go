package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// forEachJob fans work out over items with at most workers goroutines
// and slots results back into the original order. A panic inside fn is
// captured as that item's error; one item's failure never aborts the
// batch.
func forEachJob[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, []error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]R, len(items))
	errs := make([]error, len(items))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					logrus.Errorf("worker panic: %v", r)
					errs[i] = fmt.Errorf("panic during extraction: %v", r)
				}
			}()
			results[i], errs[i] = fn(ctx, items[i])
		}(i)
	}
	wg.Wait()
	return results, errs
}

package dagbuild

import (
	"context"
	"sync"
	"time"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/internal/spendstore"
)

// fetchResult pairs a requested address with the outcome of fetching it.
type fetchResult struct {
	addr  spendmodel.Address
	spend spendmodel.SignedSpend
	err   error
}

// fetchAll fetches every address in addrs from store, with at most
// maxParallelism requests in flight at once. Each individual Get is bounded
// by requestTimeout (no bound if requestTimeout is zero or negative).
// Results are returned in no particular order; callers match them back up
// by addr. Once ctx is canceled, every job not yet started gets ctx's error
// as its result without a Get call; in-flight Get calls are responsible for
// honoring ctx themselves.
func fetchAll(ctx context.Context, store spendstore.Store, addrs []spendmodel.Address, maxParallelism int, requestTimeout time.Duration) []fetchResult {
	if maxParallelism <= 0 {
		maxParallelism = 1
	}
	if len(addrs) == 0 {
		return nil
	}

	jobs := make(chan spendmodel.Address, len(addrs))
	results := make(chan fetchResult, len(addrs))

	workers := maxParallelism
	if workers > len(addrs) {
		workers = len(addrs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range jobs {
				if err := ctx.Err(); err != nil {
					results <- fetchResult{addr: addr, err: err}
					continue
				}
				fetchCtx := ctx
				var cancel context.CancelFunc
				if requestTimeout > 0 {
					fetchCtx, cancel = context.WithTimeout(ctx, requestTimeout)
				}
				spend, err := store.Get(fetchCtx, addr)
				if cancel != nil {
					cancel()
				}
				results <- fetchResult{addr: addr, spend: spend, err: err}
			}
		}()
	}

	for _, addr := range addrs {
		jobs <- addr
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]fetchResult, 0, len(addrs))
	for res := range results {
		out = append(out, res)
	}
	return out
}

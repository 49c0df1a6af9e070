package dagbuild

import (
	"context"
	"errors"
	"sync"

	"github.com/klingon-exchange/spenddag/internal/buildsession"
	"github.com/klingon-exchange/spenddag/internal/spenddag"
	"github.com/klingon-exchange/spenddag/internal/spendstore"
)

// ContinueFromUTXOs launches a BuildFrom for every current UTXO in dag and
// merges each resulting sub-DAG back in. If dag was originally built from
// Genesis, this covers every spend that exists on the network at the time
// of the call. Sub-builds run concurrently, bounded by sess.MaxParallelism;
// a failure in one sub-build is collected and joined into the returned
// error, it does not cancel the others.
func ContinueFromUTXOs(ctx context.Context, sess *buildsession.Session, store spendstore.Store, dag *spenddag.DAG) error {
	log := sess.Logger.Component("dagbuild")
	utxos := dag.GetUTXOs()
	log.Info("gathering spend DAG from utxos", "count", len(utxos))

	sem := make(chan struct{}, sess.MaxParallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for utxo := range utxos {
		utxo := utxo
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			log.Debug("launching task to gather utxo", "addr", utxo)
			sub, err := BuildFrom(ctx, sess, store, utxo)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			dag.Merge(sub)
		}()
	}
	wg.Wait()

	log.Info("done gathering spend DAG from utxos")
	return errors.Join(errs...)
}

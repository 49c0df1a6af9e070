package dagbuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/klingon-exchange/spenddag/internal/buildsession"
	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/internal/spenddag"
	"github.com/klingon-exchange/spenddag/internal/spendstore"
)

// BuildFrom builds a SpendDAG rooted at addr by following descendants,
// generation by generation, until every branch bottoms out at a UTXO. Each
// generation's fetches run concurrently, bounded by sess.MaxParallelism.
// Once the graph is fully gathered, it is verified against addr and the
// issues (if any) are logged; BuildFrom itself never fails because a
// verification issue was found.
func BuildFrom(ctx context.Context, sess *buildsession.Session, store spendstore.Store, addr spendmodel.Address) (*spenddag.DAG, error) {
	log := sess.Logger.Component("dagbuild")
	log.Info("building spend DAG", "root", addr)
	dag := spenddag.New()

	rootCtx := ctx
	if sess.RequestTimeout > 0 {
		var cancel context.CancelFunc
		rootCtx, cancel = context.WithTimeout(ctx, sess.RequestTimeout)
		defer cancel()
	}
	first, err := store.Get(rootCtx, addr)
	switch {
	case errors.Is(err, spendstore.ErrMissing):
		log.Info("root is a UTXO, nothing to build", "addr", addr)
		return dag, nil
	case err != nil:
		return nil, fmt.Errorf("%w: root %s: %v", ErrFailedToGetSpend, addr, err)
	}
	dag.SetRoot(addr)
	dag.Insert(addr, first)

	txsToFollow := map[spendmodel.Address]spendmodel.Transaction{first.SpentTx.Hash(): first.SpentTx}
	knownTx := make(map[spendmodel.Address]struct{})

	for gen := 0; len(txsToFollow) > 0; gen++ {
		var addrs []spendmodel.Address
		for _, tx := range txsToFollow {
			for _, out := range tx.Outputs {
				addrs = append(addrs, spendmodel.AddressOf(out.PubKey))
			}
		}

		log.Debug("following descendants", "generation", gen, "txs", len(txsToFollow), "addrs", len(addrs))
		results := fetchAll(ctx, store, addrs, sess.MaxParallelism, sess.RequestTimeout)

		nextGenTx := make(map[spendmodel.Address]spendmodel.Transaction)
		for _, res := range results {
			switch {
			case res.err == nil:
				dag.Insert(res.addr, res.spend)
				nextGenTx[res.spend.SpentTx.Hash()] = res.spend.SpentTx
			case errors.Is(res.err, spendstore.ErrMissing):
				log.Debug("reached UTXO", "addr", res.addr)
			default:
				log.Warn("could not verify transfer", "addr", res.addr, "error", res.err)
			}
		}

		for hash := range txsToFollow {
			knownTx[hash] = struct{}{}
		}
		txsToFollow = make(map[spendmodel.Address]spendmodel.Transaction)
		for hash, tx := range nextGenTx {
			if _, seen := knownTx[hash]; !seen {
				txsToFollow[hash] = tx
			}
		}
	}

	log.Info("finished building spend DAG", "root", addr, "entries", dag.Len())

	issues := dag.Verify(addr)
	if len(issues) > 0 {
		log.Warn("spend DAG verification recorded issues", "root", addr, "count", len(issues))
		for _, iss := range issues {
			log.Warn("verification issue", "kind", iss.Kind, "addr", iss.Address, "detail", iss.Detail)
		}
	}

	return dag, nil
}

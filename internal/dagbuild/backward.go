package dagbuild

import (
	"context"
	"fmt"

	"github.com/klingon-exchange/spenddag/internal/buildsession"
	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/internal/spenddag"
	"github.com/klingon-exchange/spenddag/internal/spendstore"
)

// ExtendUntil traces newSpend's ancestors backward, depth by depth, until
// every branch either reaches a spend already recorded in dag or bottoms
// out at sess.Genesis. Unlike BuildFrom, every parent transaction is
// cryptographically verified against its input spends before being
// trusted; a failure aborts the whole extension rather than being logged
// and skipped, since a caller extending a DAG is asking "can I trust this
// new spend", not "what does the network currently look like".
func ExtendUntil(ctx context.Context, sess *buildsession.Session, store spendstore.Store, dag *spenddag.DAG, addr spendmodel.Address, newSpend spendmodel.SignedSpend) error {
	log := sess.Logger.Component("dagbuild")

	if isNew := dag.CheckAndInsert(addr, newSpend); !isNew {
		return nil
	}

	txsToVerify := map[spendmodel.Address]spendmodel.Transaction{newSpend.ParentTx.Hash(): newSpend.ParentTx}
	verifiedTx := make(map[spendmodel.Address]struct{})

	for depth := 0; len(txsToVerify) > 0; depth++ {
		nextGenTx := make(map[spendmodel.Address]spendmodel.Transaction)

		for hash, parentTx := range txsToVerify {
			log.Debug("verifying parent tx", "depth", depth, "tx", hash)

			if parentTx.Hash() == sess.Genesis.SrcTx.Hash() && len(parentTx.Inputs) == 1 && sess.IsGenesis(parentTx.Inputs[0].PubKey) {
				log.Debug("reached genesis", "depth", depth, "tx", hash)
				verifiedTx[hash] = struct{}{}
				continue
			}

			var addrs []spendmodel.Address
			for _, in := range parentTx.Inputs {
				addrs = append(addrs, spendmodel.AddressOf(in.PubKey))
			}

			results := fetchAll(ctx, store, addrs, sess.MaxParallelism, sess.RequestTimeout)
			spends := make(map[spendmodel.PublicKey]spendmodel.SignedSpend, len(parentTx.Inputs))
			for _, res := range results {
				if res.err != nil {
					return fmt.Errorf("%w: at depth %d, failed to get spends for parent tx %s: %v", ErrCouldNotVerifyTransfer, depth, hash, res.err)
				}
				spends[res.spend.PubKey] = res.spend
			}

			if err := parentTx.VerifyAgainstInputsSpent(spends); err != nil {
				return fmt.Errorf("%w: at depth %d, failed to verify parent tx %s: %v", ErrCouldNotVerifyTransfer, depth, hash, err)
			}
			verifiedTx[hash] = struct{}{}
			log.Debug("verified parent tx", "depth", depth, "tx", hash)

			for _, res := range results {
				isNew := dag.CheckAndInsert(res.addr, res.spend)
				if isNew {
					nextGenTx[res.spend.ParentTx.Hash()] = res.spend.ParentTx
				}
			}
		}

		txsToVerify = make(map[spendmodel.Address]spendmodel.Transaction)
		for hash, tx := range nextGenTx {
			if _, done := verifiedTx[hash]; !done {
				txsToVerify[hash] = tx
			}
		}
	}

	log.Info("extended DAG to known spends or genesis", "addr", addr, "verified_txs", len(verifiedTx))
	return nil
}

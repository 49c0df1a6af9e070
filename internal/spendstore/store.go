// Package spendstore defines the abstract capability to fetch a signed
// spend by address from the content-addressed overlay. It deliberately
// says nothing about closeness, replication or transport: those are the
// overlay client's concern (see internal/overlay for one concrete
// adapter).
package spendstore

import (
	"context"
	"errors"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
)

// ErrMissing is the semantically meaningful outcome that an address has
// never been spent: it is a UTXO, not a failure.
var ErrMissing = errors.New("spend not found: address is unspent")

// ErrTransient covers network, timeout and peer errors. It carries no
// information about whether the address is actually spent.
var ErrTransient = errors.New("transient store error")

// Store fetches a signed spend by address. It may be called concurrently;
// it makes no ordering guarantees between independent gets.
type Store interface {
	Get(ctx context.Context, addr spendmodel.Address) (spendmodel.SignedSpend, error)
}

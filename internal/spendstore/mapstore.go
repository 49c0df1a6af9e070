package spendstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
)

// MapStore is an in-memory Store backed by a mutex-guarded map. It is used
// by tests and by local development tooling; production deployments fetch
// from the overlay instead (see internal/overlay).
type MapStore struct {
	mu     sync.RWMutex
	spends map[spendmodel.Address]spendmodel.SignedSpend
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{spends: make(map[spendmodel.Address]spendmodel.SignedSpend)}
}

// Put records a spend at addr, as if it had just been accepted by the
// overlay. It overwrites any existing record unconditionally: MapStore
// models the network, not the DAG, so it has no double-spend semantics of
// its own.
func (m *MapStore) Put(addr spendmodel.Address, spend spendmodel.SignedSpend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spends[addr] = spend
}

// PutSpend is a convenience wrapper that stores spend at its own address.
func (m *MapStore) PutSpend(spend spendmodel.SignedSpend) {
	m.Put(spend.Address(), spend)
}

// Get implements Store.
func (m *MapStore) Get(ctx context.Context, addr spendmodel.Address) (spendmodel.SignedSpend, error) {
	if err := ctx.Err(); err != nil {
		return spendmodel.SignedSpend{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	spend, ok := m.spends[addr]
	if !ok {
		return spendmodel.SignedSpend{}, ErrMissing
	}
	return spend, nil
}

// FlakyStore wraps a Store and forces ErrTransient for a configured set of
// addresses, regardless of what the wrapped store would return. It exists
// to exercise the forward/backward asymmetry under partial network failure
// without standing up a real flaky peer.
type FlakyStore struct {
	inner Store
	mu    sync.RWMutex
	flaky map[spendmodel.Address]struct{}
}

// NewFlakyStore wraps inner, initially with no flaky addresses.
func NewFlakyStore(inner Store) *FlakyStore {
	return &FlakyStore{inner: inner, flaky: make(map[spendmodel.Address]struct{})}
}

// FailAt marks addr so that Get always returns ErrTransient for it.
func (f *FlakyStore) FailAt(addr spendmodel.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flaky[addr] = struct{}{}
}

// Get implements Store.
func (f *FlakyStore) Get(ctx context.Context, addr spendmodel.Address) (spendmodel.SignedSpend, error) {
	f.mu.RLock()
	_, fail := f.flaky[addr]
	f.mu.RUnlock()
	if fail {
		return spendmodel.SignedSpend{}, fmt.Errorf("%w: simulated peer timeout for %s", ErrTransient, addr)
	}
	return f.inner.Get(ctx, addr)
}

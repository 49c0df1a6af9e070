// Package spenddag implements the in-memory SpendDAG: the graph of token
// spends keyed by address, populated exclusively by the forward builder and
// backward extender in internal/dagbuild. It is not persisted; a DAG is an
// artifact of a single build session.
package spenddag

import (
	"fmt"
	"sync"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
)

// Entry is everything the DAG knows about one address. A single recorded
// spend is the common case; two or more distinct spends at the same
// address is a double-spend, and both (or all) are kept for diagnostics.
type Entry struct {
	Variants []spendmodel.SignedSpend
}

// IsDoubleSpend reports whether this address has conflicting spends.
func (e Entry) IsDoubleSpend() bool {
	return len(e.Variants) > 1
}

// Canonical returns the first-recorded spend at this address. GetUTXOs,
// Merge and Verify inspect all Variants instead.
func (e Entry) Canonical() spendmodel.SignedSpend {
	return e.Variants[0]
}

// DAG is the in-memory SpendDAG. All operations are synchronous and
// non-suspending (§5). The mutex makes every method safe to call from
// several goroutines at once; ContinueFromUTXOs relies on this when
// concurrent sub-builds merge their results into one DAG.
type DAG struct {
	mu      sync.RWMutex
	root    *spendmodel.Address
	entries map[spendmodel.Address]Entry
}

// New returns an empty DAG with no root set yet.
func New() *DAG {
	return &DAG{entries: make(map[spendmodel.Address]Entry)}
}

// SetRoot designates the DAG's root address. It is idempotent: once a root
// is set, further calls are no-ops. Root is set explicitly by whichever
// builder creates the DAG (BuildFrom), not implicitly by the first insert,
// so that merges and extensions can't accidentally reassign it.
func (d *DAG) SetRoot(addr spendmodel.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		root := addr
		d.root = &root
	}
}

// Root returns the DAG's declared root, if one has been set.
func (d *DAG) Root() (spendmodel.Address, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.root == nil {
		return spendmodel.Address{}, false
	}
	return *d.root, true
}

// Len returns the number of distinct addresses recorded.
func (d *DAG) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Get returns the entry recorded at addr, if any.
func (d *DAG) Get(addr spendmodel.Address) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[addr]
	return e, ok
}

// insertLocked records spend at addr and reports whether it was new to
// that address (including the double-spend case). Callers must hold mu.
func (d *DAG) insertLocked(addr spendmodel.Address, spend spendmodel.SignedSpend) bool {
	entry, exists := d.entries[addr]
	if !exists {
		d.entries[addr] = Entry{Variants: []spendmodel.SignedSpend{spend}}
		return true
	}
	for _, v := range entry.Variants {
		if v.Equal(spend) {
			return false
		}
	}
	entry.Variants = append(entry.Variants, spend)
	d.entries[addr] = entry
	return true
}

// Insert unconditionally records spend at addr. If an entry already exists
// and differs, addr is demoted to a double-spend marker; both spends are
// kept. Insert never removes information (monotonic growth).
func (d *DAG) Insert(addr spendmodel.Address, spend spendmodel.SignedSpend) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.insertLocked(addr, spend)
}

// CheckAndInsert records spend at addr and reports whether it was new:
// false if spend is byte-equal to an already-stored record at addr, true
// otherwise (including the first insert and the double-spend case). The
// backward extender uses the return value to decide whether to keep
// ascending.
func (d *DAG) CheckAndInsert(addr spendmodel.Address, spend spendmodel.SignedSpend) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insertLocked(addr, spend)
}

// GetUTXOs computes the frontier of unspent outputs: every output key
// referenced by a spent-transaction of a contained spend, that does not
// itself resolve to a contained spend.
func (d *DAG) GetUTXOs() map[spendmodel.Address]struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	utxos := make(map[spendmodel.Address]struct{})
	for _, entry := range d.entries {
		for _, spend := range entry.Variants {
			for _, out := range spend.SpentTx.Outputs {
				addr := spendmodel.AddressOf(out.PubKey)
				if _, ok := d.entries[addr]; !ok {
					utxos[addr] = struct{}{}
				}
			}
		}
	}
	return utxos
}

// Merge unions other's entries into d. Conflicting identical addresses run
// the same insert rule as Insert, so a merge can create double-spend
// markers. If d has no root yet, it adopts other's root.
func (d *DAG) Merge(other *DAG) {
	if other == nil {
		return
	}

	other.mu.RLock()
	snapshot := make(map[spendmodel.Address]Entry, len(other.entries))
	for addr, entry := range other.entries {
		snapshot[addr] = entry
	}
	otherRoot := other.root
	other.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == nil {
		d.root = otherRoot
	}
	for addr, entry := range snapshot {
		for _, spend := range entry.Variants {
			d.insertLocked(addr, spend)
		}
	}
}

// Verify performs whole-DAG validation against the declared root. It never
// mutates the DAG and never aborts on the first problem: every finding is
// appended to the returned list. An empty result means verification found
// nothing to report.
func (d *DAG) Verify(root spendmodel.Address) []Issue {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var issues []Issue

	if _, ok := d.entries[root]; !ok {
		issues = append(issues, Issue{Kind: IssueMissingRoot, Address: root, Detail: "root address has no entry in the DAG"})
	}

	// Index every spend by the key it consumes, and collect every
	// transaction referenced as either a parent or a spent transaction.
	byPubKey := make(map[spendmodel.PublicKey][]spendmodel.SignedSpend)
	txs := make(map[spendmodel.Address]spendmodel.Transaction)
	for _, entry := range d.entries {
		for _, spend := range entry.Variants {
			byPubKey[spend.PubKey] = append(byPubKey[spend.PubKey], spend)
			txs[spend.ParentTx.Hash()] = spend.ParentTx
			txs[spend.SpentTx.Hash()] = spend.SpentTx
		}
	}

	for _, tx := range txs {
		spends := make(map[spendmodel.PublicKey]spendmodel.SignedSpend, len(tx.Inputs))
		missing := 0
		for _, in := range tx.Inputs {
			candidates := byPubKey[in.PubKey]
			matched := false
			for _, c := range candidates {
				if c.SpentTx.Hash() == tx.Hash() {
					spends[in.PubKey] = c
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			missing++
			if len(candidates) > 0 {
				// The key is known in the DAG but none of its
				// recorded spends authorize this transaction:
				// that is a genuine inconsistency, not a
				// Genesis or unreachable-ancestor gap.
				issues = append(issues, Issue{
					Kind:    IssueIncompleteInputs,
					Address: spendmodel.AddressOf(in.PubKey),
					Detail:  fmt.Sprintf("input for tx %s has recorded spends but none authorize it", tx.Hash()),
				})
			}
		}
		if missing > 0 {
			// Can't run verify_against_inputs_spent with an
			// incomplete set; inputs that are simply absent from
			// the DAG are Genesis or unreachable by construction
			// and are not themselves reported.
			continue
		}
		if err := tx.VerifyAgainstInputsSpent(spends); err != nil {
			issues = append(issues, Issue{
				Kind:    IssueInvalidTransaction,
				Address: tx.Hash(),
				Detail:  err.Error(),
			})
		}
	}

	for addr, entry := range d.entries {
		if entry.IsDoubleSpend() {
			issues = append(issues, Issue{
				Kind:    IssueDoubleSpend,
				Address: addr,
				Detail:  fmt.Sprintf("%d conflicting spends recorded", len(entry.Variants)),
			})
		}
	}

	issues = append(issues, d.walkFromRootLocked(root)...)
	return issues
}

// walkFromRootLocked walks forward edges (spent-tx output addresses) from
// root, reporting cycles (back-edges) and addresses unreachable from root.
// Callers must hold at least a read lock.
func (d *DAG) walkFromRootLocked(root spendmodel.Address) []Issue {
	if _, ok := d.entries[root]; !ok {
		return nil
	}

	var issues []Issue
	visiting := make(map[spendmodel.Address]bool)
	visited := make(map[spendmodel.Address]bool)

	var dfs func(addr spendmodel.Address)
	dfs = func(addr spendmodel.Address) {
		if visited[addr] {
			return
		}
		entry, ok := d.entries[addr]
		if !ok {
			return
		}
		if visiting[addr] {
			issues = append(issues, Issue{Kind: IssueCycle, Address: addr, Detail: "cycle detected while walking forward from root"})
			return
		}
		visiting[addr] = true
		for _, spend := range entry.Variants {
			for _, out := range spend.SpentTx.Outputs {
				dfs(spendmodel.AddressOf(out.PubKey))
			}
		}
		visiting[addr] = false
		visited[addr] = true
	}
	dfs(root)

	for addr := range d.entries {
		if !visited[addr] {
			issues = append(issues, Issue{Kind: IssueUnreachableFromRoot, Address: addr, Detail: "not reachable from root by forward edges"})
		}
	}
	return issues
}

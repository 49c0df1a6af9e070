package spenddag

import (
	"testing"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
)

func newKey(t *testing.T) spendmodel.SecretKey {
	t.Helper()
	sk, err := spendmodel.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey() error = %v", err)
	}
	return sk
}

// chain builds a single-branch chain of n spends: spend[i] consumes
// key[i] and authorizes a transaction whose sole output is key[i+1].
func chain(t *testing.T, n int) ([]spendmodel.SignedSpend, []spendmodel.Address) {
	t.Helper()
	keys := make([]spendmodel.SecretKey, n+1)
	for i := range keys {
		keys[i] = newKey(t)
	}

	spends := make([]spendmodel.SignedSpend, n)
	addrs := make([]spendmodel.Address, n)
	for i := 0; i < n; i++ {
		parentTx := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: keys[i].Public()}}}
		spentTx := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: keys[i+1].Public()}}}
		spends[i] = spendmodel.Sign(keys[i], parentTx, spentTx)
		addrs[i] = spends[i].Address()
	}
	return spends, addrs
}

func TestInsertCreatesDoubleSpendMarker(t *testing.T) {
	dag := New()
	sk := newKey(t)
	addr := spendmodel.AddressOf(sk.Public())

	tx1 := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: newKey(t).Public()}}}
	tx2 := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: newKey(t).Public()}}}
	s1 := spendmodel.Sign(sk, spendmodel.Transaction{}, tx1)
	s2 := spendmodel.Sign(sk, spendmodel.Transaction{}, tx2)

	dag.Insert(addr, s1)
	dag.Insert(addr, s2)

	entry, ok := dag.Get(addr)
	if !ok {
		t.Fatalf("Get(%s) missing entry", addr)
	}
	if !entry.IsDoubleSpend() {
		t.Fatalf("entry.IsDoubleSpend() = false, want true after two distinct inserts")
	}
	if len(entry.Variants) != 2 {
		t.Fatalf("len(Variants) = %d, want 2", len(entry.Variants))
	}

	// Reinserting either spend again must not clear the marker.
	dag.Insert(addr, s1)
	entry, _ = dag.Get(addr)
	if !entry.IsDoubleSpend() || len(entry.Variants) != 2 {
		t.Fatalf("double-spend marker reverted after reinsert: %+v", entry)
	}
}

func TestCheckAndInsertIsIdempotent(t *testing.T) {
	dag := New()
	sk := newKey(t)
	addr := spendmodel.AddressOf(sk.Public())
	tx := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: newKey(t).Public()}}}
	spend := spendmodel.Sign(sk, spendmodel.Transaction{}, tx)

	if isNew := dag.CheckAndInsert(addr, spend); !isNew {
		t.Fatalf("CheckAndInsert() first call = false, want true")
	}
	if isNew := dag.CheckAndInsert(addr, spend); isNew {
		t.Fatalf("CheckAndInsert() repeated call = true, want false")
	}
	if isNew := dag.CheckAndInsert(addr, spend); isNew {
		t.Fatalf("CheckAndInsert() third call = true, want false")
	}
}

func TestGetUTXOsExcludesContainedAddresses(t *testing.T) {
	dag := New()
	spends, addrs := chain(t, 2)
	dag.SetRoot(addrs[0])
	dag.Insert(addrs[0], spends[0])
	dag.Insert(addrs[1], spends[1])

	utxos := dag.GetUTXOs()
	if len(utxos) != 1 {
		t.Fatalf("len(GetUTXOs()) = %d, want 1", len(utxos))
	}

	expected := spendmodel.AddressOf(spends[1].SpentTx.Outputs[0].PubKey)
	if _, ok := utxos[expected]; !ok {
		t.Errorf("GetUTXOs() missing expected output address %s", expected)
	}
	for _, a := range addrs {
		if _, ok := utxos[a]; ok {
			t.Errorf("GetUTXOs() returned a contained address %s", a)
		}
	}
}

func TestMergeIsCommutativeUpToVariants(t *testing.T) {
	spends, addrs := chain(t, 2)

	d1 := New()
	d1.Insert(addrs[0], spends[0])
	d2 := New()
	d2.Insert(addrs[1], spends[1])

	merged1 := New()
	merged1.Merge(d1)
	merged1.Merge(d2)

	merged2 := New()
	merged2.Merge(d2)
	merged2.Merge(d1)

	if merged1.Len() != merged2.Len() {
		t.Fatalf("merge order changed entry count: %d vs %d", merged1.Len(), merged2.Len())
	}
	for _, addr := range addrs {
		e1, ok1 := merged1.Get(addr)
		e2, ok2 := merged2.Get(addr)
		if ok1 != ok2 || len(e1.Variants) != len(e2.Variants) {
			t.Errorf("merge order changed entry at %s: %+v vs %+v", addr, e1, e2)
		}
	}
}

func TestVerifyReportsDoubleSpendAtRoot(t *testing.T) {
	dag := New()
	spends, addrs := chain(t, 1)
	dag.SetRoot(addrs[0])
	dag.Insert(addrs[0], spends[0])

	conflicting := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: newKey(t).Public()}}}
	conflict := spendmodel.Sign(newKey(t), spendmodel.Transaction{}, conflicting)
	dag.Insert(addrs[0], conflict)

	issues := dag.Verify(addrs[0])
	foundDoubleSpend := false
	for _, iss := range issues {
		if iss.Kind == IssueDoubleSpend && iss.Address == addrs[0] {
			foundDoubleSpend = true
		}
	}
	if !foundDoubleSpend {
		t.Errorf("Verify() issues = %+v, want an IssueDoubleSpend at %s", issues, addrs[0])
	}
}

func TestVerifyMissingRoot(t *testing.T) {
	dag := New()
	var root spendmodel.Address
	issues := dag.Verify(root)
	if len(issues) != 1 || issues[0].Kind != IssueMissingRoot {
		t.Fatalf("Verify() on empty DAG = %+v, want a single IssueMissingRoot", issues)
	}
}

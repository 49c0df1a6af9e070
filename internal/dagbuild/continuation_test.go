package dagbuild

import (
	"context"
	"testing"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/internal/spendstore"
)

func TestContinueFromUTXOsExtendsPastFrontier(t *testing.T) {
	k0, k1, k2, k3 := newTestKey(t), newTestKey(t), newTestKey(t), newTestKey(t)
	tx1 := spendmodel.Transaction{Inputs: []spendmodel.Input{{PubKey: k0.Public()}}, Outputs: []spendmodel.Output{{PubKey: k1.Public()}}}
	tx2 := spendmodel.Transaction{Inputs: []spendmodel.Input{{PubKey: k1.Public()}}, Outputs: []spendmodel.Output{{PubKey: k2.Public()}}}
	spend0 := spendmodel.Sign(k0, spendmodel.Transaction{}, tx1)
	spend1 := spendmodel.Sign(k1, tx1, tx2)

	addr0 := spendmodel.AddressOf(k0.Public())
	addr1 := spendmodel.AddressOf(k1.Public())
	addr2 := spendmodel.AddressOf(k2.Public())
	addr3 := spendmodel.AddressOf(k3.Public())

	store := spendstore.NewMapStore()
	store.Put(addr0, spend0)
	store.Put(addr1, spend1)

	sess := newTestSession()
	dag, err := BuildFrom(context.Background(), sess, store, addr0)
	if err != nil {
		t.Fatalf("BuildFrom() error = %v", err)
	}
	if _, ok := dag.GetUTXOs()[addr2]; !ok {
		t.Fatalf("expected %s to be a UTXO before continuation", addr2)
	}

	// The network has moved on: addr2 has since been spent too.
	tx3 := spendmodel.Transaction{Inputs: []spendmodel.Input{{PubKey: k2.Public()}}, Outputs: []spendmodel.Output{{PubKey: k3.Public()}}}
	spend2 := spendmodel.Sign(k2, tx2, tx3)
	store.Put(addr2, spend2)

	if err := ContinueFromUTXOs(context.Background(), sess, store, dag); err != nil {
		t.Fatalf("ContinueFromUTXOs() error = %v", err)
	}
	if dag.Len() != 3 {
		t.Fatalf("dag.Len() = %d, want 3 after continuation", dag.Len())
	}
	if _, ok := dag.Get(addr2); !ok {
		t.Errorf("dag missing entry for the newly-spent %s after continuation", addr2)
	}

	utxos := dag.GetUTXOs()
	if _, ok := utxos[addr3]; !ok {
		t.Errorf("GetUTXOs() = %v, want it to contain the new frontier %s", utxos, addr3)
	}
}

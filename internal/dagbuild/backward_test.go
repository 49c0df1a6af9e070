package dagbuild

import (
	"context"
	"errors"
	"testing"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/internal/spenddag"
	"github.com/klingon-exchange/spenddag/internal/spendstore"
)

func TestExtendUntilStopsAtGenesis(t *testing.T) {
	sess := newTestSession()
	k1 := newTestKey(t)
	spentTx := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: newTestKey(t).Public()}}}
	newSpend := spendmodel.Sign(k1, sess.Genesis.SrcTx, spentTx)
	addr1 := spendmodel.AddressOf(k1.Public())

	dag := spenddag.New()
	store := spendstore.NewMapStore()

	if err := ExtendUntil(context.Background(), sess, store, dag, addr1, newSpend); err != nil {
		t.Fatalf("ExtendUntil() error = %v", err)
	}
	if _, ok := dag.Get(addr1); !ok {
		t.Errorf("dag missing newly extended entry at %s", addr1)
	}
}

func TestExtendUntilStopsAtKnownSpend(t *testing.T) {
	sess := newTestSession()
	k0, k1, k2 := newTestKey(t), newTestKey(t), newTestKey(t)
	tx1 := spendmodel.Transaction{Inputs: []spendmodel.Input{{PubKey: k0.Public()}}, Outputs: []spendmodel.Output{{PubKey: k1.Public()}}}
	tx2 := spendmodel.Transaction{Inputs: []spendmodel.Input{{PubKey: k1.Public()}}, Outputs: []spendmodel.Output{{PubKey: k2.Public()}}}
	spend0 := spendmodel.Sign(k0, spendmodel.Transaction{}, tx1)
	newSpend := spendmodel.Sign(k1, tx1, tx2)

	addr0 := spendmodel.AddressOf(k0.Public())
	addr1 := spendmodel.AddressOf(k1.Public())

	dag := spenddag.New()
	dag.Insert(addr0, spend0)

	store := spendstore.NewMapStore()
	store.Put(addr0, spend0)

	if err := ExtendUntil(context.Background(), sess, store, dag, addr1, newSpend); err != nil {
		t.Fatalf("ExtendUntil() error = %v", err)
	}
	if dag.Len() != 2 {
		t.Fatalf("dag.Len() = %d, want 2", dag.Len())
	}
	entry, _ := dag.Get(addr0)
	if entry.IsDoubleSpend() {
		t.Errorf("known ancestor spend at %s was wrongly marked a double spend", addr0)
	}
}

func TestExtendUntilFailsOnMissingAncestor(t *testing.T) {
	sess := newTestSession()
	k0, k1 := newTestKey(t), newTestKey(t)
	tx1 := spendmodel.Transaction{Inputs: []spendmodel.Input{{PubKey: k0.Public()}}, Outputs: []spendmodel.Output{{PubKey: k1.Public()}}}
	tx2 := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: newTestKey(t).Public()}}}
	newSpend := spendmodel.Sign(k1, tx1, tx2)
	addr1 := spendmodel.AddressOf(k1.Public())

	dag := spenddag.New()
	store := spendstore.NewMapStore() // addr0 never populated

	err := ExtendUntil(context.Background(), sess, store, dag, addr1, newSpend)
	if !errors.Is(err, ErrCouldNotVerifyTransfer) {
		t.Fatalf("ExtendUntil() error = %v, want ErrCouldNotVerifyTransfer", err)
	}
}

func TestExtendUntilIsIdempotentForKnownSpend(t *testing.T) {
	sess := newTestSession()
	k1 := newTestKey(t)
	spentTx := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: newTestKey(t).Public()}}}
	newSpend := spendmodel.Sign(k1, sess.Genesis.SrcTx, spentTx)
	addr1 := spendmodel.AddressOf(k1.Public())

	dag := spenddag.New()
	store := spendstore.NewMapStore()

	if err := ExtendUntil(context.Background(), sess, store, dag, addr1, newSpend); err != nil {
		t.Fatalf("first ExtendUntil() error = %v", err)
	}
	if err := ExtendUntil(context.Background(), sess, store, dag, addr1, newSpend); err != nil {
		t.Fatalf("second ExtendUntil() error = %v, want nil (already known)", err)
	}
	if dag.Len() != 1 {
		t.Errorf("dag.Len() = %d, want 1 after repeated extension", dag.Len())
	}
}

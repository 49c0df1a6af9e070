package spendstore

import (
	"context"
	"errors"
	"testing"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
)

func TestMapStoreMissingIsUTXO(t *testing.T) {
	store := NewMapStore()
	var addr spendmodel.Address
	_, err := store.Get(context.Background(), addr)
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("Get() error = %v, want ErrMissing", err)
	}
}

func TestMapStorePutGet(t *testing.T) {
	store := NewMapStore()
	sk, _ := spendmodel.GenerateSecretKey()
	tx := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: sk.Public()}}}
	spend := spendmodel.Sign(sk, spendmodel.Transaction{}, tx)

	store.PutSpend(spend)

	got, err := store.Get(context.Background(), spend.Address())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Equal(spend) {
		t.Errorf("Get() returned a different spend than was stored")
	}
}

func TestFlakyStoreForcesTransient(t *testing.T) {
	inner := NewMapStore()
	sk, _ := spendmodel.GenerateSecretKey()
	tx := spendmodel.Transaction{Outputs: []spendmodel.Output{{PubKey: sk.Public()}}}
	spend := spendmodel.Sign(sk, spendmodel.Transaction{}, tx)
	inner.PutSpend(spend)

	flaky := NewFlakyStore(inner)
	flaky.FailAt(spend.Address())

	_, err := flaky.Get(context.Background(), spend.Address())
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("Get() error = %v, want ErrTransient", err)
	}

	var other spendmodel.Address
	if _, err := flaky.Get(context.Background(), other); !errors.Is(err, ErrMissing) {
		t.Errorf("Get() for unmarked address error = %v, want ErrMissing", err)
	}
}

package spendmodel

import "testing"

func mustKey(t *testing.T) SecretKey {
	t.Helper()
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey() error = %v", err)
	}
	return sk
}

func TestAddressOfIsDeterministic(t *testing.T) {
	sk := mustKey(t)
	pk := sk.Public()

	a1 := AddressOf(pk)
	a2 := AddressOf(pk)
	if a1 != a2 {
		t.Errorf("AddressOf(pk) is not deterministic: %s != %s", a1, a2)
	}

	other := mustKey(t).Public()
	if AddressOf(other) == a1 {
		t.Errorf("AddressOf collided for distinct keys")
	}
}

func TestSignAndVerify(t *testing.T) {
	parentSk := mustKey(t)
	outSk := mustKey(t)

	parentTx := Transaction{Outputs: []Output{{PubKey: parentSk.Public()}}}
	spentTx := Transaction{Outputs: []Output{{PubKey: outSk.Public()}}}

	spend := Sign(parentSk, parentTx, spentTx)
	if err := spend.Verify(); err != nil {
		t.Fatalf("Verify() error = %v, want nil", err)
	}

	tampered := spend
	tampered.SpentTx = Transaction{Outputs: []Output{{PubKey: parentSk.Public()}}}
	if err := tampered.Verify(); err == nil {
		t.Error("Verify() on a tampered spend = nil, want error")
	}
}

func TestSignedSpendEqual(t *testing.T) {
	sk := mustKey(t)
	tx := Transaction{Outputs: []Output{{PubKey: sk.Public()}}}
	s1 := Sign(sk, Transaction{}, tx)
	s2 := Sign(sk, Transaction{}, tx)

	if !s1.Equal(s1) {
		t.Error("Equal(s1, s1) = false, want true")
	}
	// Two independent ECDSA signatures over the same message are not
	// required to be byte-identical, so s1 and s2 need not be Equal; but
	// a spend must always equal itself and a structurally identical copy.
	copy := s1
	if !s1.Equal(copy) {
		t.Error("Equal(s1, copy) = false, want true")
	}
	_ = s2
}

func TestVerifyAgainstInputsSpent(t *testing.T) {
	inputSk := mustKey(t)
	outSk := mustKey(t)

	// The transaction under verification.
	tx := Transaction{
		Inputs:  []Input{{PubKey: inputSk.Public()}},
		Outputs: []Output{{PubKey: outSk.Public()}},
	}

	// The spend that authorizes tx: it consumes inputSk's key and its
	// SpentTx is exactly tx.
	authorizingSpend := Sign(inputSk, Transaction{}, tx)

	spends := map[PublicKey]SignedSpend{inputSk.Public(): authorizingSpend}
	if err := tx.VerifyAgainstInputsSpent(spends); err != nil {
		t.Fatalf("VerifyAgainstInputsSpent() error = %v, want nil", err)
	}

	t.Run("wrong count", func(t *testing.T) {
		extra := mustKey(t)
		extraSpend := Sign(extra, Transaction{}, tx)
		withExtra := map[PublicKey]SignedSpend{
			inputSk.Public(): authorizingSpend,
			extra.Public():   extraSpend,
		}
		if err := tx.VerifyAgainstInputsSpent(withExtra); err == nil {
			t.Error("VerifyAgainstInputsSpent() with extra spend = nil, want error")
		}
	})

	t.Run("spend authorizes a different tx", func(t *testing.T) {
		otherTx := Transaction{Outputs: []Output{{PubKey: outSk.Public()}}}
		wrongSpend := Sign(inputSk, Transaction{}, otherTx)
		spends := map[PublicKey]SignedSpend{inputSk.Public(): wrongSpend}
		if err := tx.VerifyAgainstInputsSpent(spends); err == nil {
			t.Error("VerifyAgainstInputsSpent() with mismatched SpentTx = nil, want error")
		}
	})

	t.Run("missing input", func(t *testing.T) {
		if err := tx.VerifyAgainstInputsSpent(map[PublicKey]SignedSpend{}); err == nil {
			t.Error("VerifyAgainstInputsSpent() with no spends = nil, want error")
		}
	})
}

func TestDefaultGenesisIsStable(t *testing.T) {
	g1 := DefaultGenesis()
	g2 := DefaultGenesis()
	if g1.ID != g2.ID {
		t.Errorf("DefaultGenesis().ID is not stable across calls")
	}
	if g1.SrcTx.Hash() != g2.SrcTx.Hash() {
		t.Errorf("DefaultGenesis().SrcTx is not stable across calls")
	}
	if len(g1.SrcTx.Inputs) != 1 || g1.SrcTx.Inputs[0].PubKey != g1.ID {
		t.Errorf("genesis src_tx's sole input must be genesis's own id")
	}
}

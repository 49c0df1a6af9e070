package spendmodel

import "bytes"

// SignedSpend is an authenticated consumption of a unique public key. It
// produces new spendable keys through SpentTx's outputs, and was itself
// produced by one of ParentTx's outputs.
type SignedSpend struct {
	// PubKey is the unique key this spend consumes.
	PubKey PublicKey
	// ParentTx is the transaction whose output minted PubKey.
	ParentTx Transaction
	// SpentTx is the transaction this spend authorizes; its outputs
	// become new spendable keys.
	SpentTx Transaction
	// Signature is PubKey's signature over SpentTx's hash, proving the
	// holder of PubKey authorized SpentTx.
	Signature Signature
}

// Address is the content address this spend is recorded at.
func (s SignedSpend) Address() Address {
	return AddressOf(s.PubKey)
}

// Verify checks the spend's signature in isolation, without reference to
// any particular transaction's input set.
func (s SignedSpend) Verify() error {
	return s.Signature.Verify(s.PubKey, s.SpentTx.Hash())
}

// Equal is the byte-equality predicate check_and_insert relies on to tell
// a re-observation of the same spend from a genuine double-spend.
func (s SignedSpend) Equal(other SignedSpend) bool {
	return s.PubKey == other.PubKey &&
		s.ParentTx.Hash() == other.ParentTx.Hash() &&
		s.SpentTx.Hash() == other.SpentTx.Hash() &&
		bytes.Equal(s.Signature, other.Signature)
}

// Sign produces a SignedSpend consuming sk's public key, authorizing
// spentTx, with sk's signature over spentTx's hash.
func Sign(sk SecretKey, parentTx, spentTx Transaction) SignedSpend {
	sig := sk.Sign(spentTx.Hash())
	return SignedSpend{
		PubKey:    sk.Public(),
		ParentTx:  parentTx,
		SpentTx:   spentTx,
		Signature: sig,
	}
}

// Package spendmodel defines the pure, deterministic data model for the
// SpendDAG audit engine: addresses, keys, transactions and signed spends.
// Nothing in this package talks to the network or mutates shared state.
package spendmodel

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// PublicKey is the compressed SEC1 encoding of a secp256k1 point. It is a
// plain comparable array, not a slice, so it can be used directly as a map
// key.
type PublicKey [33]byte

// String returns the full hex encoding of the public key.
func (pk PublicKey) String() string {
	return fmt.Sprintf("%x", pk[:])
}

// ecPubKey parses the public key back into a btcec point for verification.
func (pk PublicKey) ecPubKey() (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(pk[:])
}

// NewPublicKey compresses a btcec public key into the fixed-size wire form.
func NewPublicKey(pub *btcec.PublicKey) PublicKey {
	var pk PublicKey
	copy(pk[:], pub.SerializeCompressed())
	return pk
}

// SecretKey signs spends on behalf of a PublicKey. It never leaves this
// package except through Sign and Public.
type SecretKey struct {
	key *btcec.PrivateKey
}

// NewSecretKey wraps a raw secp256k1 scalar.
func NewSecretKey(key *btcec.PrivateKey) SecretKey {
	return SecretKey{key: key}
}

// GenerateSecretKey produces a fresh random secret key.
func GenerateSecretKey() (SecretKey, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return SecretKey{}, fmt.Errorf("generate secret key: %w", err)
	}
	return SecretKey{key: key}, nil
}

// Public derives the public key for this secret key.
func (sk SecretKey) Public() PublicKey {
	return NewPublicKey(sk.key.PubKey())
}

// Signature is a DER-encoded ECDSA signature over a transaction hash.
type Signature []byte

// Sign authorizes the given 32-byte digest.
func (sk SecretKey) Sign(digest [32]byte) Signature {
	sig := btcecdsa.Sign(sk.key, digest[:])
	return Signature(sig.Serialize())
}

// Verify checks a signature against a public key and digest.
func (sig Signature) Verify(pk PublicKey, digest [32]byte) error {
	pub, err := pk.ecPubKey()
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	parsed, err := btcecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}
	if !parsed.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}

package spendmodel

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/crypto"
)

// Address is a 256-bit content-addressed identifier. It is used both as the
// DAG's key type and as a transaction hash, so both traversals dedupe
// through the same comparable value.
type Address = chainhash.Hash

// AddressOf derives the content address of a public key. It is pure and
// deterministic: the same key always maps to the same address.
func AddressOf(pk PublicKey) Address {
	digest := crypto.Keccak256(pk[:])
	var addr Address
	copy(addr[:], digest)
	return addr
}

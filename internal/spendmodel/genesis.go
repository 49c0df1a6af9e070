package spendmodel

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// GenesisConstant is the distinguished transaction/spend pair that
// terminates backward traversal. It is immutable and process-wide, but is
// never read from package-level state: callers carry it explicitly as a
// field of their build session (see internal/buildsession).
type GenesisConstant struct {
	// SrcTx is the bootstrap transaction: its sole input is ID itself,
	// since genesis has no real ancestor.
	SrcTx Transaction
	// ID is the unique public key of the genesis spend.
	ID PublicKey
}

// genesisSeed is the fixed master seed the genesis ID and output keys are
// derived from via hardened BIP32 child derivation, so every build session
// agrees on the same genesis address without shipping raw private scalars
// in source. It carries no real secrecy: genesis is a public, well-known
// constant, not a wallet key.
var genesisSeed = []byte("SpendDAG Genesis Master Seed v1")

const (
	genesisIDChildIndex     = hdkeychain.HardenedKeyStart + 0
	genesisOutputChildIndex = hdkeychain.HardenedKeyStart + 1
)

func deriveGenesisKey(childIndex uint32) (PublicKey, error) {
	master, err := hdkeychain.NewMaster(genesisSeed, &chaincfg.MainNetParams)
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive genesis master key: %w", err)
	}
	child, err := master.Child(childIndex)
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive genesis child key %d: %w", childIndex, err)
	}
	pub, err := child.ECPubKey()
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive genesis public key %d: %w", childIndex, err)
	}
	return NewPublicKey(pub), nil
}

// DefaultGenesis builds the canonical GenesisConstant by deriving its ID
// and output keys from a fixed master seed, so every build session that
// uses it agrees on the same address. It panics if derivation fails, which
// would only happen if hdkeychain's hardened derivation itself were
// broken: genesisSeed and the child indices are fixed constants, so this
// can't fail at runtime for any real input.
func DefaultGenesis() GenesisConstant {
	id, err := deriveGenesisKey(genesisIDChildIndex)
	if err != nil {
		panic(err)
	}
	out, err := deriveGenesisKey(genesisOutputChildIndex)
	if err != nil {
		panic(err)
	}
	return newGenesis(id, out)
}

// GenesisFromHex builds a GenesisConstant from hex-encoded compressed
// public keys, for deployments that need to agree on a genesis other than
// the derived default (for example, a private test network). Both idHex
// and outHex must decode to 33-byte SEC1-compressed points on the curve.
func GenesisFromHex(idHex, outHex string) (GenesisConstant, error) {
	id, err := decodeHexPubKey(idHex)
	if err != nil {
		return GenesisConstant{}, fmt.Errorf("decode genesis id: %w", err)
	}
	out, err := decodeHexPubKey(outHex)
	if err != nil {
		return GenesisConstant{}, fmt.Errorf("decode genesis output: %w", err)
	}
	return newGenesis(id, out), nil
}

func decodeHexPubKey(s string) (PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != len(PublicKey{}) {
		return PublicKey{}, fmt.Errorf("expected %d bytes, got %d", len(PublicKey{}), len(raw))
	}
	var pk PublicKey
	copy(pk[:], raw)
	if _, err := pk.ecPubKey(); err != nil {
		return PublicKey{}, fmt.Errorf("not a valid curve point: %w", err)
	}
	return pk, nil
}

func newGenesis(id, out PublicKey) GenesisConstant {
	return GenesisConstant{
		SrcTx: Transaction{
			Inputs:  []Input{{PubKey: id}},
			Outputs: []Output{{PubKey: out}},
		},
		ID: id,
	}
}

// Package overlay adapts the libp2p Kademlia DHT into a spendstore.Store,
// so build sessions can fetch and publish spends from the real network
// overlay instead of the in-memory spendstore.MapStore used by tests.
package overlay

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/routing"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/internal/spendstore"
	"github.com/klingon-exchange/spenddag/pkg/logging"
)

// Namespace is the DHT key prefix spend records are stored under. The DHT
// rejects PutValue/GetValue calls for a namespace it has no registered
// Validator for, so whatever constructs the *dht.IpfsDHT passed to
// NewDHTStore must include dht.NamespacedValidator(overlay.Namespace,
// overlay.Validator{}) among its options.
const Namespace = "spenddag"

// recordKey builds the DHT key a spend is published and fetched under.
func recordKey(addr spendmodel.Address) string {
	return "/" + Namespace + "/" + hex.EncodeToString(addr[:])
}

// wireSpend is the JSON record stored in the DHT. SignedSpend's fields are
// fixed-size byte arrays and slices that don't marshal to JSON directly in
// a network-portable way, so they're hex-encoded, the same convention the
// rest of this module uses for addresses and keys in logs.
type wireSpend struct {
	PubKey    string        `json:"pub_key"`
	ParentTx  wireTransaction `json:"parent_tx"`
	SpentTx   wireTransaction `json:"spent_tx"`
	Signature string        `json:"signature"`
}

type wireTransaction struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

func toWireTransaction(tx spendmodel.Transaction) wireTransaction {
	w := wireTransaction{
		Inputs:  make([]string, len(tx.Inputs)),
		Outputs: make([]string, len(tx.Outputs)),
	}
	for i, in := range tx.Inputs {
		w.Inputs[i] = hex.EncodeToString(in.PubKey[:])
	}
	for i, out := range tx.Outputs {
		w.Outputs[i] = hex.EncodeToString(out.PubKey[:])
	}
	return w
}

func fromWireTransaction(w wireTransaction) (spendmodel.Transaction, error) {
	tx := spendmodel.Transaction{
		Inputs:  make([]spendmodel.Input, len(w.Inputs)),
		Outputs: make([]spendmodel.Output, len(w.Outputs)),
	}
	for i, s := range w.Inputs {
		pk, err := decodePubKey(s)
		if err != nil {
			return spendmodel.Transaction{}, fmt.Errorf("input %d: %w", i, err)
		}
		tx.Inputs[i] = spendmodel.Input{PubKey: pk}
	}
	for i, s := range w.Outputs {
		pk, err := decodePubKey(s)
		if err != nil {
			return spendmodel.Transaction{}, fmt.Errorf("output %d: %w", i, err)
		}
		tx.Outputs[i] = spendmodel.Output{PubKey: pk}
	}
	return tx, nil
}

func decodePubKey(s string) (spendmodel.PublicKey, error) {
	var pk spendmodel.PublicKey
	raw, err := hex.DecodeString(s)
	if err != nil {
		return pk, err
	}
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("public key has %d bytes, want %d", len(raw), len(pk))
	}
	copy(pk[:], raw)
	return pk, nil
}

func encodeSpend(spend spendmodel.SignedSpend) ([]byte, error) {
	return json.Marshal(wireSpend{
		PubKey:    hex.EncodeToString(spend.PubKey[:]),
		ParentTx:  toWireTransaction(spend.ParentTx),
		SpentTx:   toWireTransaction(spend.SpentTx),
		Signature: hex.EncodeToString(spend.Signature),
	})
}

func decodeSpend(raw []byte) (spendmodel.SignedSpend, error) {
	var w wireSpend
	if err := json.Unmarshal(raw, &w); err != nil {
		return spendmodel.SignedSpend{}, fmt.Errorf("decode spend record: %w", err)
	}
	pk, err := decodePubKey(w.PubKey)
	if err != nil {
		return spendmodel.SignedSpend{}, fmt.Errorf("decode spend pub key: %w", err)
	}
	parentTx, err := fromWireTransaction(w.ParentTx)
	if err != nil {
		return spendmodel.SignedSpend{}, fmt.Errorf("decode parent tx: %w", err)
	}
	spentTx, err := fromWireTransaction(w.SpentTx)
	if err != nil {
		return spendmodel.SignedSpend{}, fmt.Errorf("decode spent tx: %w", err)
	}
	sig, err := hex.DecodeString(w.Signature)
	if err != nil {
		return spendmodel.SignedSpend{}, fmt.Errorf("decode signature: %w", err)
	}
	return spendmodel.SignedSpend{
		PubKey:    pk,
		ParentTx:  parentTx,
		SpentTx:   spentTx,
		Signature: spendmodel.Signature(sig),
	}, nil
}

// DHTStore fetches and publishes spend records through an existing libp2p
// Kademlia DHT. It holds no lifecycle over the DHT itself: callers own
// bootstrapping, closing, and connecting peers.
type DHTStore struct {
	dht *dht.IpfsDHT
	log *logging.Logger
}

// NewDHTStore wraps d. If logger is nil, logging.Default() is used.
func NewDHTStore(d *dht.IpfsDHT, logger *logging.Logger) *DHTStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &DHTStore{dht: d, log: logger.Component("overlay")}
}

// Get implements spendstore.Store.
func (s *DHTStore) Get(ctx context.Context, addr spendmodel.Address) (spendmodel.SignedSpend, error) {
	raw, err := s.dht.GetValue(ctx, recordKey(addr))
	switch {
	case errors.Is(err, routing.ErrNotFound):
		return spendmodel.SignedSpend{}, spendstore.ErrMissing
	case err != nil:
		return spendmodel.SignedSpend{}, fmt.Errorf("%w: %s: %v", spendstore.ErrTransient, addr, err)
	}

	spend, err := decodeSpend(raw)
	if err != nil {
		s.log.Warn("malformed spend record", "addr", addr, "error", err)
		return spendmodel.SignedSpend{}, fmt.Errorf("%w: %s: %v", spendstore.ErrTransient, addr, err)
	}
	return spend, nil
}

// Put publishes spend at its own address. It does not verify the spend;
// callers publish only what they've already validated.
func (s *DHTStore) Put(ctx context.Context, spend spendmodel.SignedSpend) error {
	raw, err := encodeSpend(spend)
	if err != nil {
		return fmt.Errorf("encode spend record: %w", err)
	}
	addr := spend.Address()
	if err := s.dht.PutValue(ctx, recordKey(addr), raw); err != nil {
		return fmt.Errorf("publish spend %s: %w", addr, err)
	}
	s.log.Debug("published spend", "addr", addr)
	return nil
}

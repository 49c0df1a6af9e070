package spendmodel

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a spend's signature does not verify.
var ErrInvalidSignature = errors.New("invalid signature")

// ErrVerification is the sentinel wrapped by every
// Transaction.VerifyAgainstInputsSpent failure.
var ErrVerification = errors.New("transaction verification failed")

// Input references the unique public key an input consumes.
type Input struct {
	PubKey PublicKey
}

// Output carries the unique public key a new spendable key is minted at.
type Output struct {
	PubKey PublicKey
}

// Transaction moves value from a set of inputs to a set of outputs. It
// carries no amounts or scripts: the audit engine only needs to know which
// unique keys were consumed and which were produced.
type Transaction struct {
	Inputs  []Input
	Outputs []Output
}

// Hash is a collision-resistant, deterministic digest of the transaction's
// inputs and outputs, used both to dedupe wavefronts and as the message a
// SignedSpend's signature commits to.
func (tx Transaction) Hash() Address {
	buf := make([]byte, 0, 1+len(tx.Inputs)*33+len(tx.Outputs)*33)
	buf = append(buf, byte(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf = append(buf, in.PubKey[:]...)
	}
	buf = append(buf, byte(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = append(buf, out.PubKey[:]...)
	}
	digest := crypto.Keccak256(buf)
	var h Address
	copy(h[:], digest)
	return h
}

// VerifyAgainstInputsSpent checks that spends exactly covers tx's declared
// inputs, that every spend actually authorizes this transaction (its
// SpentTx is this one), and that every signature verifies.
func (tx Transaction) VerifyAgainstInputsSpent(spends map[PublicKey]SignedSpend) error {
	if len(spends) != len(tx.Inputs) {
		return fmt.Errorf("%w: expected %d input spends, got %d", ErrVerification, len(tx.Inputs), len(spends))
	}

	txHash := tx.Hash()
	for _, in := range tx.Inputs {
		spend, ok := spends[in.PubKey]
		if !ok {
			return fmt.Errorf("%w: no spend supplied for input %s", ErrVerification, in.PubKey)
		}
		if spend.SpentTx.Hash() != txHash {
			return fmt.Errorf("%w: spend for input %s does not authorize this transaction", ErrVerification, in.PubKey)
		}
		if err := spend.Verify(); err != nil {
			return fmt.Errorf("%w: input %s: %v", ErrVerification, in.PubKey, err)
		}
	}
	return nil
}

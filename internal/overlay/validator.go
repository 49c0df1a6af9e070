package overlay

import "fmt"

// Validator accepts any record under Namespace whose value decodes as a
// wireSpend and whose embedded signature verifies against its own spent
// transaction hash. It has no notion of "best" record among conflicting
// ones. A double spend is the DAG's problem to flag, not the DHT's to
// arbitrate, so Select always keeps the first.
type Validator struct{}

// Validate implements github.com/libp2p/go-libp2p/core/record.Validator.
func (Validator) Validate(key string, value []byte) error {
	spend, err := decodeSpend(value)
	if err != nil {
		return fmt.Errorf("invalid spend record for key %q: %w", key, err)
	}
	if err := spend.Verify(); err != nil {
		return fmt.Errorf("spend record for key %q failed signature check: %w", key, err)
	}
	return nil
}

// Select implements github.com/libp2p/go-libp2p/core/record.Validator. All
// candidate records that reach here already passed Validate, so any one of
// them is an equally valid signed spend; the DAG's double-spend detection
// is what actually surfaces a conflict.
func (Validator) Select(key string, values [][]byte) (int, error) {
	return 0, nil
}

package spenddag

import "github.com/klingon-exchange/spenddag/internal/spendmodel"

// IssueKind classifies an advisory finding from Verify.
type IssueKind string

const (
	// IssueMissingRoot means the declared root address has no entry.
	IssueMissingRoot IssueKind = "missing_root"
	// IssueDoubleSpend flags an address with two or more conflicting
	// recorded spends.
	IssueDoubleSpend IssueKind = "double_spend"
	// IssueIncompleteInputs means a contained transaction's declared
	// inputs don't all resolve to spends that authorize it, and at
	// least one of the missing ones conflicts rather than simply being
	// absent.
	IssueIncompleteInputs IssueKind = "incomplete_inputs"
	// IssueInvalidTransaction means a fully-resolved transaction failed
	// cryptographic verification against its input spends.
	IssueInvalidTransaction IssueKind = "invalid_transaction"
	// IssueCycle flags a back-edge found while walking forward from the
	// root: the contained graph is not acyclic.
	IssueCycle IssueKind = "cycle"
	// IssueUnreachableFromRoot flags an address that cannot be reached
	// from the root by forward (spent-tx output) edges.
	IssueUnreachableFromRoot IssueKind = "unreachable_from_root"
)

// Issue is one advisory finding recorded by Verify. Verify never mutates
// the DAG or aborts early; every finding it makes is returned, not raised.
type Issue struct {
	Kind    IssueKind
	Address spendmodel.Address
	Detail  string
}

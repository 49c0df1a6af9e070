package dagbuild

import "errors"

// ErrFailedToGetSpend wraps a non-UTXO store error on BuildFrom's root
// fetch. A UTXO (spendstore.ErrMissing) is not an error at all, and fetch
// failures on descendants are logged and skipped rather than wrapped.
var ErrFailedToGetSpend = errors.New("failed to get spend from store")

// ErrCouldNotVerifyTransfer wraps any failure encountered while tracing
// ancestors backward: a missing parent spend, a store error, or a
// transaction that fails VerifyAgainstInputsSpent.
var ErrCouldNotVerifyTransfer = errors.New("could not verify transfer")

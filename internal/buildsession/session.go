// Package buildsession carries the parameters shared by every call into
// internal/dagbuild for one build: the Genesis constant to bottom out on,
// the fan-out limit for concurrent fetches, and the logger each builder
// derives its component logger from.
package buildsession

import (
	"time"

	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/pkg/logging"
)

// DefaultMaxParallelism bounds the number of concurrent store fetches a
// single builder call will issue, absent an explicit override.
const DefaultMaxParallelism = 32

// DefaultRequestTimeout bounds a single store fetch, absent an explicit
// override.
const DefaultRequestTimeout = 30 * time.Second

// Session holds everything the forward builder, backward extender, and
// UTXO continuation share. It is immutable after construction and safe to
// reuse (and to read concurrently) across many builder calls.
type Session struct {
	// Genesis is the constant backward traversal bottoms out on. It is
	// never read from global state; every build session that needs it
	// carries its own copy.
	Genesis spendmodel.GenesisConstant

	// MaxParallelism bounds how many pending store fetches a single
	// fetchAll call may have in flight at once.
	MaxParallelism int

	// RequestTimeout bounds a single store fetch. Zero means no
	// per-request deadline is imposed beyond the caller's ctx.
	RequestTimeout time.Duration

	// Logger is the root logger builders derive their component loggers
	// from (logger.Component("dagbuild"), and so on).
	Logger *logging.Logger
}

// New returns a Session with the given genesis, parallelism bound, and
// request timeout. If maxParallelism is not positive, DefaultMaxParallelism
// is used. If requestTimeout is not positive, DefaultRequestTimeout is
// used. If logger is nil, logging.Default() is used.
func New(genesis spendmodel.GenesisConstant, maxParallelism int, requestTimeout time.Duration, logger *logging.Logger) *Session {
	if maxParallelism <= 0 {
		maxParallelism = DefaultMaxParallelism
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		Genesis:        genesis,
		MaxParallelism: maxParallelism,
		RequestTimeout: requestTimeout,
		Logger:         logger,
	}
}

// IsGenesis reports whether pk is the session's Genesis ID key: the
// condition that lets the backward extender stop ascending.
func (s *Session) IsGenesis(pk spendmodel.PublicKey) bool {
	return pk == s.Genesis.ID
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via the Tx argument.
//
// Keeps use-case interfaces clean (no transaction types leaking out) and lets
// repository methods that accept a Tx detect it implementation-side. The
// concrete type is infra-defined (pgx.Tx for Postgres). Repositories MUST
// gracefully accept nil (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

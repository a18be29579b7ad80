// Package storage defines the persistence interfaces the application relies
// on. It abstracts document storage, job enqueueing and transaction handling
// so backends (PostgreSQL) can provide concrete implementations.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import "context"

// AllStorage is the composite of every domain-specific storage capability the
// application needs. Transactional and plain handles both implement it.
type AllStorage interface {
	DocumentStorage
	JobStorage
}

// TxStorage is a storage handle bound to a database transaction. It becomes
// unusable after Commit or Rollback.
type TxStorage interface {
	AllStorage

	// Commit finalizes the transaction.
	Commit() error
	// Rollback aborts the transaction, discarding uncommitted changes.
	Rollback() error
}

// Storage is a non-transactional handle that can open transactions and owns
// the underlying connection pool.
type Storage interface {
	AllStorage

	// Close releases the underlying connections. The instance must not be
	// used afterwards.
	Close() error

	// Begin starts a transaction and returns a handle bound to it.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx begins a transaction, runs cb with it, commits when cb returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}

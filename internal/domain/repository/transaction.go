package repository

import "context"

// RepositoryFactory creates repository instances bound to a single transaction.
type RepositoryFactory interface {
	UserRepo() UserRepository
	RefreshTokenRepo() RefreshTokenRepository
}

// TransactionManager runs a unit of work atomically against the store.
type TransactionManager interface {
	// Execute runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back when it returns an error or panics.
	Execute(ctx context.Context, fn func(repoFactory RepositoryFactory) error) error
}

package sql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/store"
)

// Concurrent writers may race for the same version. Each attempt runs in its
// own transaction and re-checks the hash before allocating again.
const maxInsertAttempts = 5

// nextVersion returns one past the highest version among the rows matching where.
func nextVersion(transaction *gorm.DB, table string, where string, args ...any) (int32, error) {
	var current int32

	if err := transaction.
		Table(table).
		Where(where, args...).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error; err != nil {
		return 0, err //nolint:wrapcheck
	}

	return current + 1, nil
}

type insertAttempt func(transaction *gorm.DB) (*store.Reference, bool, error)

// insertWithRetry runs attempt in a transaction, retrying on unique violations.
func (s *Store) insertWithRetry(ctx context.Context, kind string, attempt insertAttempt) (*store.Reference, bool, error) {
	var lastErr error

	for try := 0; try < maxInsertAttempts; try++ {
		var (
			ref     *store.Reference
			created bool
		)

		err := s.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
			var err error

			ref, created, err = attempt(transaction)

			return err
		})
		if err == nil {
			return ref, created, nil
		}

		var contractErr *contract.Error
		if errors.As(err, &contractErr) {
			return nil, false, contractErr
		}

		if !isUniqueViolation(err) {
			return nil, false, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to insert "+kind, err)
		}

		lastErr = err
	}

	return nil, false, contract.NewErrorWith(
		contract.ErrorCodeInternalError,
		"failed to allocate a version for "+kind,
		lastErr,
	)
}

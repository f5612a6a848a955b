package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for store operations. Check with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist for the
	// given owner. Ownership misses and true absences are indistinguishable
	// on purpose.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a record with the same unique key exists,
	// e.g. a duplicate tag name for one owner.
	ErrAlreadyExists = errors.New("record already exists")
)

// wrapQueryError maps known SurrealDB query errors onto sentinels.
// Returns the original error otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		if strings.Contains(queryErr.Message, "already exists") {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, queryErr.Message)
		}
	}

	return err
}

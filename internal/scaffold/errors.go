package scaffold

import (
	"errors"
	"fmt"
)

// Usage errors. They are reported through *UsageError.
var (
	ErrDuplicateMigrationName = errors.New("a migration with this name already exists")
	ErrInvalidMigrationName   = errors.New("migration name must be a valid identifier")
	ErrNoRootNamespace        = errors.New("root namespace is required")
	ErrNoSnapshot             = errors.New("no model snapshot found, there is nothing to remove")
	ErrMigrationApplied       = errors.New("the migration has already been applied to a database, revert it and try again")
)

// UsageError is an operator mistake. It is never retried and always returned
// before any artifact is touched.
type UsageError struct {
	Op        string
	Migration string
	Err       error
}

func (e *UsageError) Error() string {
	if e.Migration == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Migration, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// IsUsageError reports whether err is or wraps a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

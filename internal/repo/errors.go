package repo

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors handlers map onto HTTP statuses.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// isUniqueViolation reports whether err is a postgres unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

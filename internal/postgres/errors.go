package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsLockConflict reports whether err is a lock-wait timeout, serialization
// failure, or deadlock — the cases worth a bounded retry.
func IsLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "55P03", "40001", "40P01":
		return true
	}
	return false
}

package postgres

import (
	"database/sql"
	"errors"
)

// IsNoRowsError reports whether err is the database/sql missing-row error.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
	notNullViolation    = "23502"
	uniqueViolation     = "23505"
)

// IsForeignKeyViolation reports SQLSTATE 23503 anywhere in the error chain.
func IsForeignKeyViolation(err error) bool {
	return hasState(err, foreignKeyViolation)
}

// IsUniqueViolation reports SQLSTATE 23505 anywhere in the error chain.
func IsUniqueViolation(err error) bool {
	return hasState(err, uniqueViolation)
}

// IsConstraintViolation reports errors caused by the data rather than the database:
// foreign key, check and not null violations.
func IsConstraintViolation(err error) bool {
	return hasState(err, foreignKeyViolation, checkViolation, notNullViolation)
}

func hasState(err error, states ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, s := range states {
		if pgErr.SQLState() == s {
			return true
		}
	}
	return false
}

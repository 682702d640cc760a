// Package repository defines the storage ports used by the HTTP layer and
// their GORM implementations. The sentinel errors below are shared across
// all stores so handlers can map failures to status codes without knowing
// which backend produced them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when an operation's precondition forbids it,
// such as running setup after an admin already exists. Handlers translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would violate a unique key (project
// slug, admin username). Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicateKey recognises unique-constraint violations from either
// supported driver, with or without GORM's error translation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// isDeadlock reports a transaction aborted by the engine's deadlock detector.
func isDeadlock(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1213 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40P01" {
		return true
	}
	return false
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicateKey(err):
		return ErrConflict
	}
	return err
}

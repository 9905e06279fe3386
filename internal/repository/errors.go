// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking coordinator to distinguish between
// different failure scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as cancelling an
// order that has already been paid. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicateSeat is returned when an insert into cart_entries or
// reservations violates the UNIQUE (show_instance_id, seat_id)
// constraint. This is the durable, database-level duplicate guard
// that backs up the distributed lock; the booking coordinator maps
// it to its conflict error.
var ErrDuplicateSeat = errors.New("seat already taken for this show instance")

// ErrEmailExists is returned when registering a user whose email
// is already present.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// error (1062). The typed check covers the mysql driver; the
// string fallback keeps tests with plain errors working.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

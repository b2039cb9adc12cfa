// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and HTTP handlers to distinguish between different
// failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Not-found sentinels, one per entity.
var (
	ErrMovieNotFound   = errors.New("movie not found")
	ErrCinemaNotFound  = errors.New("cinema not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ErrConflict is returned when an update or delete cannot be performed
// because of conflicting state, such as deleting a movie that still has
// active bookings or changing a booking whose status moved underneath the
// caller.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a unique key other than
// the seat assignment key (e.g. a cinema identifier that already exists).
var ErrDuplicate = errors.New("duplicate key")

// ErrSeatTaken is returned when a booking insert collides with an existing
// seat assignment for the same movie, cinema, date and time.
var ErrSeatTaken = errors.New("one or more seats already booked")

// ErrEmailExists is returned when registering an email that is in use.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

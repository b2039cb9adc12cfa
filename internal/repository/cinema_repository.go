// Package repository contains data access logic separated from HTTP handlers.
// This file holds the cinema queries. A cinema can be addressed by its native
// id or by its optional external identifier code.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hdfuturetech/cinema-booking/internal/model"
)

// CinemaRepo encapsulates all database queries related to cinemas.
type CinemaRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCinemaRepo constructs a CinemaRepo with the provided DB handle.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

const cinemaColumns = "id, identifier, name, address, district, city, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCinema(s rowScanner) (*model.Cinema, error) {
	var (
		c          model.Cinema
		identifier sql.NullString
	)
	if err := s.Scan(&c.ID, &identifier, &c.Name, &c.Location.Address, &c.Location.District,
		&c.Location.City, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if identifier.Valid {
		code := identifier.String
		c.Identifier = &code
	}
	return &c, nil
}

// Create inserts a new cinema.  An ID is generated when the caller leaves
// it empty.  A clash on the identifier column yields ErrDuplicate.  After
// the insert the row is read back so timestamps are populated.
func (r *CinemaRepo) Create(ctx context.Context, c *model.Cinema) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var identifier sql.NullString
	if c.Identifier != nil && strings.TrimSpace(*c.Identifier) != "" {
		identifier = sql.NullString{String: strings.TrimSpace(*c.Identifier), Valid: true}
	}
	const qInsert = `INSERT INTO cinemas (id, identifier, name, address, district, city) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, qInsert, c.ID, identifier, c.Name,
		c.Location.Address, c.Location.District, c.Location.City); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	created, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *created
	return nil
}

// GetByID fetches a cinema by its native id.  It returns ErrCinemaNotFound
// if no row is found.
func (r *CinemaRepo) GetByID(ctx context.Context, id string) (*model.Cinema, error) {
	const q = "SELECT " + cinemaColumns + " FROM cinemas WHERE id = ?"
	c, err := scanCinema(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCinemaNotFound
	}
	return c, err
}

// GetByIdentifier fetches a cinema by its external identifier code.
func (r *CinemaRepo) GetByIdentifier(ctx context.Context, code string) (*model.Cinema, error) {
	const q = "SELECT " + cinemaColumns + " FROM cinemas WHERE identifier = ?"
	c, err := scanCinema(r.db.QueryRowContext(ctx, q, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCinemaNotFound
	}
	return c, err
}

// ListAll returns every cinema ordered by name.
func (r *CinemaRepo) ListAll(ctx context.Context) ([]*model.Cinema, error) {
	return r.list(ctx, "SELECT "+cinemaColumns+" FROM cinemas ORDER BY name, id")
}

// ListByCity returns the cinemas of one city, compared case-insensitively.
func (r *CinemaRepo) ListByCity(ctx context.Context, city string) ([]*model.Cinema, error) {
	return r.list(ctx, "SELECT "+cinemaColumns+" FROM cinemas WHERE LOWER(city) = LOWER(?) ORDER BY name, id", city)
}

func (r *CinemaRepo) list(ctx context.Context, q string, args ...any) ([]*model.Cinema, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Cinema{}
	for rows.Next() {
		c, err := scanCinema(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites name, identifier and location of an existing cinema.
func (r *CinemaRepo) Update(ctx context.Context, c *model.Cinema) error {
	var identifier sql.NullString
	if c.Identifier != nil && strings.TrimSpace(*c.Identifier) != "" {
		identifier = sql.NullString{String: strings.TrimSpace(*c.Identifier), Valid: true}
	}
	const q = `UPDATE cinemas
	           SET identifier = ?, name = ?, address = ?, district = ?, city = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, identifier, c.Name, c.Location.Address, c.Location.District, c.Location.City, c.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for a no-op update too, so confirm existence.
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *updated
	return nil
}

// Delete removes a cinema.  A cinema that is still referenced by a
// non-cancelled booking cannot be deleted and yields ErrConflict.  The
// check and the delete share a transaction.
func (r *CinemaRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var exists string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM cinemas WHERE id = ? FOR UPDATE`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCinemaNotFound
		}
		return err
	}
	var active int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE cinema_id = ? AND booking_status <> ?`,
		id, string(model.BookingCancelled)).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM cinemas WHERE id = ?`, id)
	return err
}

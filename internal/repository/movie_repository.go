package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hdfuturetech/cinema-booking/internal/model"
)

// MovieRepo provides CRUD and search queries for the movie catalogue.
// List-valued fields (genre, cast, showtimes) live in JSON columns.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a new MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// MovieFilter narrows List.  Query matches title, director or cast
// members as a case-insensitive substring.
type MovieFilter struct {
	ShowingOnly bool
	Query       string
}

const movieColumns = `id, title, description, duration, release_date, poster_url, trailer_url,
	genre, director, cast_members, rating, is_showing, showtimes, created_at, updated_at`

func scanMovie(s rowScanner) (*model.Movie, error) {
	var (
		m                      model.Movie
		genre, cast, showtimes []byte
	)
	if err := s.Scan(&m.ID, &m.Title, &m.Description, &m.Duration, &m.ReleaseDate, &m.PosterURL,
		&m.TrailerURL, &genre, &m.Director, &cast, &m.Rating, &m.IsShowing, &showtimes,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(genre, &m.Genre); err != nil {
		return nil, fmt.Errorf("movie %s genre: %w", m.ID, err)
	}
	if err := decodeJSONColumn(cast, &m.Cast); err != nil {
		return nil, fmt.Errorf("movie %s cast: %w", m.ID, err)
	}
	if err := decodeJSONColumn(showtimes, &m.Showtimes); err != nil {
		return nil, fmt.Errorf("movie %s showtimes: %w", m.ID, err)
	}
	return &m, nil
}

func decodeJSONColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// movieJSON encodes the JSON columns, substituting empty arrays for nil
// slices so the NOT NULL columns never receive "null".
func movieJSON(m *model.Movie) (genre, cast, showtimes []byte, err error) {
	g, c, s := m.Genre, m.Cast, m.Showtimes
	if g == nil {
		g = []string{}
	}
	if c == nil {
		c = []string{}
	}
	if s == nil {
		s = []model.MovieShowtime{}
	}
	if genre, err = json.Marshal(g); err != nil {
		return
	}
	if cast, err = json.Marshal(c); err != nil {
		return
	}
	showtimes, err = json.Marshal(s)
	return
}

// Create inserts a movie, assigning a new ID when none is set, and reads
// the row back to populate timestamps.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	genre, cast, showtimes, err := movieJSON(m)
	if err != nil {
		return err
	}
	const q = `INSERT INTO movies (id, title, description, duration, release_date, poster_url, trailer_url,
	           genre, director, cast_members, rating, is_showing, showtimes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, m.ID, m.Title, m.Description, m.Duration, m.ReleaseDate.UTC(),
		m.PosterURL, m.TrailerURL, genre, m.Director, cast, m.Rating, m.IsShowing, showtimes); err != nil {
		return err
	}
	created, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *created
	return nil
}

// GetByID fetches one movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// List returns movies matching the filter, newest release first.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]*model.Movie, error) {
	where := []string{}
	args := []any{}
	if f.ShowingOnly {
		where = append(where, "is_showing = 1")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(director) LIKE ? OR LOWER(CAST(cast_members AS CHAR)) LIKE ?)")
		args = append(args, like, like, like)
	}
	query := "SELECT " + movieColumns + " FROM movies"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY release_date DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites every editable column of the movie.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	genre, cast, showtimes, err := movieJSON(m)
	if err != nil {
		return err
	}
	const q = `UPDATE movies SET title = ?, description = ?, duration = ?, release_date = ?, poster_url = ?,
	           trailer_url = ?, genre = ?, director = ?, cast_members = ?, rating = ?, is_showing = ?, showtimes = ?,
	           updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.Duration, m.ReleaseDate.UTC(), m.PosterURL,
		m.TrailerURL, genre, m.Director, cast, m.Rating, m.IsShowing, showtimes, m.ID); err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *updated
	return nil
}

// Delete removes a movie unless a non-cancelled booking still references it.
func (r *MovieRepo) Delete(ctx context.Context, id string) (err error) {
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
	if err = tx.QueryRowContext(ctx, `SELECT id FROM movies WHERE id = ? FOR UPDATE`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMovieNotFound
		}
		return err
	}
	var active int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE movie_id = ? AND booking_status <> ?`,
		id, string(model.BookingCancelled)).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	return err
}

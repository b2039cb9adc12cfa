package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/hdfuturetech/cinema-booking/internal/model"
)

// BookingRepo persists bookings and their per-seat assignment rows.  A
// booking's seats are stored twice: as a JSON list on the bookings row
// (the document clients see) and as one booking_seats row per seat.  The
// booking_seats unique key over (movie, cinema, date, time, seat) is the
// only thing preventing a double booking, so both writes always happen in
// a single transaction.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo constructs a BookingRepo.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.user_id, b.movie_id, b.cinema_id, b.show_date, b.show_time, b.seats,
    b.total_amount, b.booking_status, b.payment_status, b.created_at, b.updated_at`

func scanBooking(s rowScanner, extra ...any) (*model.Booking, error) {
    var (
        b        model.Booking
        showDate time.Time
        seats    []byte
        bs, ps   string
    )
    dest := []any{&b.ID, &b.UserID, &b.MovieID, &b.CinemaID, &showDate, &b.Showtime.Time, &seats,
        &b.TotalAmount, &bs, &ps, &b.CreatedAt, &b.UpdatedAt}
    if err := s.Scan(append(dest, extra...)...); err != nil {
        return nil, err
    }
    b.Showtime.Date = model.NewShowDate(showDate)
    b.BookingStatus = model.BookingStatus(bs)
    b.PaymentStatus = model.PaymentStatus(ps)
    if err := decodeJSONColumn(seats, &b.Seats); err != nil {
        return nil, fmt.Errorf("booking %s seats: %w", b.ID, err)
    }
    if b.Seats == nil {
        b.Seats = []string{}
    }
    return &b, nil
}

// CreateWithSeats inserts the booking row and one booking_seats row per
// seat in one transaction.  When any seat is already held by another
// non-cancelled booking for the same showtime the transaction is rolled
// back and ErrSeatTaken is returned.  On success b is refreshed from the
// database.
func (r *BookingRepo) CreateWithSeats(ctx context.Context, b *model.Booking) (err error) {
    if b.ID == "" {
        b.ID = uuid.NewString()
    }
    seats, err := json.Marshal(b.Seats)
    if err != nil {
        return err
    }

    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const insertBooking = `INSERT INTO bookings (id, user_id, movie_id, cinema_id, show_date, show_time, seats,
        total_amount, booking_status, payment_status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    if _, err = tx.ExecContext(ctx, insertBooking, b.ID, b.UserID, b.MovieID, b.CinemaID,
        b.Showtime.Date.Time, b.Showtime.Time, seats, b.TotalAmount,
        string(b.BookingStatus), string(b.PaymentStatus)); err != nil {
        return err
    }
    if err = insertSeatsTx(ctx, tx, b); err != nil {
        if isDuplicateKey(err) {
            return ErrSeatTaken
        }
        return err
    }
    if err = tx.Commit(); err != nil {
        return err
    }
    committed = true

    created, err := r.GetByID(ctx, b.ID)
    if err != nil {
        return err
    }
    *b = *created
    return nil
}

// insertSeatsTx writes every seat of b in a single multi-row statement.
func insertSeatsTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    if len(b.Seats) == 0 {
        return nil
    }
    query := `INSERT INTO booking_seats (booking_id, movie_id, cinema_id, show_date, show_time, seat_code, position) VALUES `
    args := make([]any, 0, len(b.Seats)*7)
    for i, seat := range b.Seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args, b.ID, b.MovieID, b.CinemaID, b.Showtime.Date.Time, b.Showtime.Time, seat, i)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID returns one booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
    q := "SELECT " + bookingColumns + " FROM bookings b WHERE b.id = ?"
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// BookedSeats returns the seat codes held by non-cancelled bookings for
// the given movie, cinema and showtime, ordered by booking creation and
// then by each booking's own seat order.  date is compared as a calendar
// day.
func (r *BookingRepo) BookedSeats(ctx context.Context, movieID, cinemaID string, date time.Time, showTime string) ([]string, error) {
    const q = `SELECT s.seat_code
        FROM booking_seats s
        JOIN bookings b ON b.id = s.booking_id
        WHERE s.movie_id = ? AND s.cinema_id = ? AND s.show_date = ? AND s.show_time = ?
          AND b.booking_status <> ?
        ORDER BY b.created_at, b.id, s.position`
    rows, err := r.db.QueryContext(ctx, q, movieID, cinemaID, model.NewShowDate(date).Time, showTime,
        string(model.BookingCancelled))
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    seats := []string{}
    for rows.Next() {
        var code string
        if err := rows.Scan(&code); err != nil {
            return nil, err
        }
        seats = append(seats, code)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// ListByUser returns the user's bookings newest first, each carrying the
// movie title/poster and the cinema name/location.  A booking whose movie
// or cinema has since been removed gets an empty summary.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]*model.BookingSummary, error) {
    q := "SELECT " + bookingColumns + `,
            m.id, m.title, m.poster_url,
            c.id, c.name, c.address, c.district, c.city
        FROM bookings b
        LEFT JOIN movies m ON m.id = b.movie_id
        LEFT JOIN cinemas c ON c.id = b.cinema_id
        WHERE b.user_id = ?
        ORDER BY b.created_at DESC, b.id DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := []*model.BookingSummary{}
    for rows.Next() {
        var mID, mTitle, mPoster, cID, cName, cAddr, cDistrict, cCity sql.NullString
        b, err := scanBooking(rows, &mID, &mTitle, &mPoster, &cID, &cName, &cAddr, &cDistrict, &cCity)
        if err != nil {
            return nil, err
        }
        out = append(out, &model.BookingSummary{
            Booking: *b,
            Movie:   model.MovieSummary{ID: mID.String, Title: mTitle.String, PosterURL: mPoster.String},
            Cinema: model.CinemaSummary{
                ID:   cID.String,
                Name: cName.String,
                Location: model.Location{
                    Address:  cAddr.String,
                    District: cDistrict.String,
                    City:     cCity.String,
                },
            },
        })
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateBookingStatus moves a booking from one status to another.  The
// update is conditional on the current status still being from; when it
// is not, ErrConflict is returned and nothing changes.  Moving to
// cancelled releases the booking's seat rows in the same transaction.
func (r *BookingRepo) UpdateBookingStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET booking_status = ? WHERE id = ? AND booking_status = ?`,
        string(to), id, string(from))
    if err != nil {
        return nil, err
    }
    if n, err := res.RowsAffected(); err != nil {
        return nil, err
    } else if n == 0 {
        return nil, r.missingOrConflict(ctx, tx, id)
    }
    if to == model.BookingCancelled {
        if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, id); err != nil {
            return nil, err
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return r.GetByID(ctx, id)
}

// UpdatePaymentStatus moves a booking's payment status from one value to
// another with the same conditional semantics as UpdateBookingStatus.
func (r *BookingRepo) UpdatePaymentStatus(ctx context.Context, id string, from, to model.PaymentStatus) (*model.Booking, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET payment_status = ? WHERE id = ? AND payment_status = ?`,
        string(to), id, string(from))
    if err != nil {
        return nil, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return nil, err
    }
    if n == 0 {
        if _, err := r.GetByID(ctx, id); err != nil {
            return nil, err
        }
        return nil, ErrConflict
    }
    return r.GetByID(ctx, id)
}

// missingOrConflict distinguishes a vanished booking from one whose status
// changed concurrently.
func (r *BookingRepo) missingOrConflict(ctx context.Context, tx *sql.Tx, id string) error {
    var exists string
    err := tx.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, id).Scan(&exists)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrBookingNotFound
    }
    if err != nil {
        return err
    }
    return ErrConflict
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hdfuturetech/cinema-booking/internal/model"
	"github.com/hdfuturetech/cinema-booking/internal/queue"
	"github.com/hdfuturetech/cinema-booking/internal/repository"
)

// Client-facing messages.
const (
	msgMissingBookingInfo  = "Please provide all required booking information"
	msgMovieNotFound       = "Movie not found"
	msgBookingNotFound     = "Booking not found"
	msgSeatsAlreadyBooked  = "One or more selected seats are already booked"
	msgNoAccessBooking     = "Not authorized to access this booking"
	msgNoUpdateBooking     = "Not authorized to update this booking"
	msgNoUpdatePayment     = "Not authorized to update payment status"
	msgMissingStatus       = "Please provide booking status"
	msgMissingPayment      = "Please provide payment status"
	msgConcurrentUpdate    = "Booking was modified by another request, please retry"
	msgBookingNeedsAccount = "Not authorized to create a booking"
)

// CreateBookingInput is what a client supplies to book seats.  The owner
// and the initial statuses are never taken from the client.
type CreateBookingInput struct {
	MovieID     string
	CinemaID    string
	Showtime    model.Showtime
	Seats       []string
	TotalAmount float64
}

// BookingService creates bookings and manages their status.
type BookingService struct {
	bookings BookingStore
	movies   MovieStore
	cinemas  CinemaStore
	resolver *CinemaResolver
	seats    *AvailabilityChecker
	events   EventPublisher
	log      *zap.Logger
}

// NewBookingService wires the booking service.  events may be nil, in
// which case no booking events are published.
func NewBookingService(bookings BookingStore, movies MovieStore, cinemas CinemaStore,
	resolver *CinemaResolver, events EventPublisher, log *zap.Logger) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{
		bookings: bookings,
		movies:   movies,
		cinemas:  cinemas,
		resolver: resolver,
		seats:    NewAvailabilityChecker(bookings, resolver),
		events:   events,
		log:      log,
	}
}

// Seats exposes the availability checker backed by the same store.
func (s *BookingService) Seats() *AvailabilityChecker { return s.seats }

func (in *CreateBookingInput) normalize() error {
	in.MovieID = strings.TrimSpace(in.MovieID)
	in.CinemaID = strings.TrimSpace(in.CinemaID)
	in.Showtime.Time = strings.TrimSpace(in.Showtime.Time)
	if in.MovieID == "" || in.CinemaID == "" || in.Showtime.Date.IsZero() || in.Showtime.Time == "" ||
		len(in.Seats) == 0 || in.TotalAmount <= 0 {
		return validation(msgMissingBookingInfo)
	}
	seen := make(map[string]struct{}, len(in.Seats))
	for i, seat := range in.Seats {
		seat = strings.TrimSpace(seat)
		if seat == "" {
			return validation("Seat codes must not be empty")
		}
		if _, dup := seen[seat]; dup {
			return validation(fmt.Sprintf("Seat %s is listed more than once", seat))
		}
		seen[seat] = struct{}{}
		in.Seats[i] = seat
	}
	return nil
}

// CreateBooking books in.Seats for p.  Seat conflicts are detected first
// against existing bookings and, for requests racing each other, by the
// storage layer's seat uniqueness key; both surface as the same conflict.
func (s *BookingService) CreateBooking(ctx context.Context, p model.Principal, in CreateBookingInput) (*model.Booking, error) {
	if p.ID == "" {
		return nil, forbidden(msgBookingNeedsAccount)
	}
	in.Seats = append([]string(nil), in.Seats...)
	if err := in.normalize(); err != nil {
		return nil, err
	}

	movieID, ok := NativeID(in.MovieID)
	if !ok {
		return nil, notFound(msgMovieNotFound, repository.ErrMovieNotFound)
	}
	movie, err := s.movies.GetByID(ctx, movieID)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return nil, notFound(msgMovieNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	cinema, err := s.resolver.Resolve(ctx, in.CinemaID)
	if err != nil {
		return nil, err
	}

	booked, err := s.seats.BookedSeats(ctx, movie.ID, cinema.ID, in.Showtime)
	if err != nil {
		return nil, err
	}
	if taken := overlap(in.Seats, booked); len(taken) > 0 {
		return nil, conflict(msgSeatsAlreadyBooked, repository.ErrSeatTaken)
	}

	b := &model.Booking{
		UserID:        p.ID,
		MovieID:       movie.ID,
		CinemaID:      cinema.ID,
		Showtime:      model.Showtime{Date: model.NewShowDate(in.Showtime.Date.Time), Time: in.Showtime.Time},
		Seats:         in.Seats,
		TotalAmount:   in.TotalAmount,
		BookingStatus: model.BookingActive,
		PaymentStatus: model.PaymentPending,
	}
	if err := s.bookings.CreateWithSeats(ctx, b); err != nil {
		if errors.Is(err, repository.ErrSeatTaken) {
			return nil, conflict(msgSeatsAlreadyBooked, err)
		}
		return nil, err
	}
	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("user_id", b.UserID),
		zap.String("movie_id", b.MovieID),
		zap.String("cinema_id", b.CinemaID),
		zap.Strings("seats", b.Seats))
	s.publish(ctx, queue.EventBookingCreated, b, "")
	return b, nil
}

// GetBooking returns the booking with its full movie and cinema.  Only the
// owner and admins may read it.  A movie or cinema that no longer exists
// is returned as nil.
func (s *BookingService) GetBooking(ctx context.Context, p model.Principal, id string) (*model.BookingDetail, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(p, b.UserID, "") {
		return nil, forbidden(msgNoAccessBooking)
	}
	detail := &model.BookingDetail{Booking: *b}
	if detail.Movie, err = s.movies.GetByID(ctx, b.MovieID); err != nil && !errors.Is(err, repository.ErrMovieNotFound) {
		return nil, err
	}
	if detail.Cinema, err = s.cinemas.GetByID(ctx, b.CinemaID); err != nil && !errors.Is(err, repository.ErrCinemaNotFound) {
		return nil, err
	}
	return detail, nil
}

// ListBookings returns p's own bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, p model.Principal) ([]*model.BookingSummary, error) {
	if p.ID == "" {
		return nil, forbidden(msgNoAccessBooking)
	}
	return s.bookings.ListByUser(ctx, p.ID)
}

// UpdateBookingStatus moves the booking to status.  The owner and admins
// may do so.  Setting the current status again is a no-op; cancelling
// releases the booking's seats.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, p model.Principal, id, status string) (*model.Booking, error) {
	next := model.BookingStatus(strings.TrimSpace(status))
	if next == "" {
		return nil, validation(msgMissingStatus)
	}
	if !next.Valid() {
		return nil, validation(fmt.Sprintf("Invalid booking status %q", status))
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(p, b.UserID, "") {
		return nil, forbidden(msgNoUpdateBooking)
	}
	prev := b.BookingStatus
	if prev == next {
		return b, nil
	}
	if !prev.CanTransitionTo(next) {
		return nil, &Error{Kind: ErrInvalidTransition,
			Message: fmt.Sprintf("Cannot change booking status from %s to %s", prev, next)}
	}
	updated, err := s.bookings.UpdateBookingStatus(ctx, b.ID, prev, next)
	if err != nil {
		return nil, s.mapUpdateErr(err)
	}
	s.log.Info("booking status changed",
		zap.String("booking_id", updated.ID),
		zap.String("by", p.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	s.publish(ctx, queue.EventBookingStatusChanged, updated, string(prev))
	return updated, nil
}

// UpdatePaymentStatus sets the payment status.  Only admins may do so,
// including on their own bookings.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, p model.Principal, id, status string) (*model.Booking, error) {
	next := model.PaymentStatus(strings.TrimSpace(status))
	if next == "" {
		return nil, validation(msgMissingPayment)
	}
	if !next.Valid() {
		return nil, validation(fmt.Sprintf("Invalid payment status %q", status))
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(p, "", model.RoleAdmin) {
		return nil, forbidden(msgNoUpdatePayment)
	}
	prev := b.PaymentStatus
	if prev == next {
		return b, nil
	}
	if !prev.CanTransitionTo(next) {
		return nil, &Error{Kind: ErrInvalidTransition,
			Message: fmt.Sprintf("Cannot change payment status from %s to %s", prev, next)}
	}
	updated, err := s.bookings.UpdatePaymentStatus(ctx, b.ID, prev, next)
	if err != nil {
		return nil, s.mapUpdateErr(err)
	}
	s.log.Info("payment status changed",
		zap.String("booking_id", updated.ID),
		zap.String("by", p.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	s.publish(ctx, queue.EventBookingPaymentChanged, updated, string(prev))
	return updated, nil
}

func (s *BookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	id, ok := NativeID(id)
	if !ok {
		return nil, notFound(msgBookingNotFound, repository.ErrBookingNotFound)
	}
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, notFound(msgBookingNotFound, err)
	}
	return b, err
}

func (s *BookingService) mapUpdateErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return notFound(msgBookingNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return conflict(msgConcurrentUpdate, err)
	}
	return err
}

// publish is best effort: a broker failure is logged and never fails the
// request that already committed.
func (s *BookingService) publish(ctx context.Context, eventType string, b *model.Booking, previous string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, queue.NewBookingEvent(eventType, b, previous)); err != nil {
		s.log.Warn("booking event not published",
			zap.String("event", eventType),
			zap.String("booking_id", b.ID),
			zap.Error(err))
	}
}

package service

import (
	"context"
	"strings"

	"github.com/hdfuturetech/cinema-booking/internal/model"
)

// Availability is the result of a seat check.
type Availability struct {
	Available        bool     `json:"available"`
	UnavailableSeats []string `json:"unavailableSeats"`
	BookedSeats      []string `json:"bookedSeats"`
}

// CheckSeatsInput identifies a showtime and, optionally, the seats a
// client wants.
type CheckSeatsInput struct {
	MovieID  string
	CinemaID string
	Showtime model.Showtime
	Seats    []string
}

// AvailabilityChecker answers which seats of a showtime are taken.
type AvailabilityChecker struct {
	bookings BookingStore
	resolver *CinemaResolver
}

func NewAvailabilityChecker(bookings BookingStore, resolver *CinemaResolver) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings, resolver: resolver}
}

// BookedSeats returns every seat held by a non-cancelled booking for the
// movie, native cinema id and showtime.
func (a *AvailabilityChecker) BookedSeats(ctx context.Context, movieID, cinemaID string, st model.Showtime) ([]string, error) {
	return a.bookings.BookedSeats(ctx, movieID, cinemaID, st.Date.Time, strings.TrimSpace(st.Time))
}

// CheckAvailability resolves the cinema and reports which of in.Seats are
// already booked.  Without requested seats the showtime is reported as
// available whatever is booked.
func (a *AvailabilityChecker) CheckAvailability(ctx context.Context, in CheckSeatsInput) (*Availability, error) {
	if strings.TrimSpace(in.MovieID) == "" || strings.TrimSpace(in.CinemaID) == "" ||
		in.Showtime.Date.IsZero() || strings.TrimSpace(in.Showtime.Time) == "" {
		return nil, validation("Please provide movie, cinema and showtime information")
	}
	cinemaID, err := a.resolver.ResolveID(ctx, in.CinemaID)
	if err != nil {
		return nil, err
	}
	movieID := strings.TrimSpace(in.MovieID)
	if id, ok := NativeID(movieID); ok {
		movieID = id
	}
	booked, err := a.BookedSeats(ctx, movieID, cinemaID, in.Showtime)
	if err != nil {
		return nil, err
	}
	unavailable := overlap(in.Seats, booked)
	return &Availability{
		Available:        len(unavailable) == 0,
		UnavailableSeats: unavailable,
		BookedSeats:      booked,
	}, nil
}

// overlap returns the members of requested found in booked, in request
// order.  The result is never nil.
func overlap(requested, booked []string) []string {
	out := []string{}
	if len(requested) == 0 {
		return out
	}
	taken := make(map[string]struct{}, len(booked))
	for _, s := range booked {
		taken[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := taken[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

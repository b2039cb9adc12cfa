package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    BookingActive    BookingStatus = "active"
    BookingCancelled BookingStatus = "cancelled"
    BookingCompleted BookingStatus = "completed"
)

// PaymentStatus is the payment state of a booking.  It is set by admins;
// there is no payment gateway behind it.
type PaymentStatus string

const (
    PaymentPending  PaymentStatus = "pending"
    PaymentPaid     PaymentStatus = "paid"
    PaymentFailed   PaymentStatus = "failed"
    PaymentRefunded PaymentStatus = "refunded"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
    BookingActive: {BookingCancelled, BookingCompleted},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
    PaymentPending: {PaymentPaid, PaymentFailed},
    PaymentFailed:  {PaymentPending},
    PaymentPaid:    {PaymentRefunded},
}

// Valid reports whether s is one of the known booking states.
func (s BookingStatus) Valid() bool {
    switch s {
    case BookingActive, BookingCancelled, BookingCompleted:
        return true
    }
    return false
}

// CanTransitionTo reports whether a booking in state s may move to next.
// Staying in the same state is always allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
    if s == next {
        return true
    }
    for _, allowed := range bookingTransitions[s] {
        if allowed == next {
            return true
        }
    }
    return false
}

// Valid reports whether s is one of the known payment states.
func (s PaymentStatus) Valid() bool {
    switch s {
    case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
        return true
    }
    return false
}

// CanTransitionTo reports whether a payment in state s may move to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
    if s == next {
        return true
    }
    for _, allowed := range paymentTransitions[s] {
        if allowed == next {
            return true
        }
    }
    return false
}

// Booking records a user's reservation of seats for one showtime of a
// movie in a cinema.  CinemaID is always the cinema's native ID, never
// an external identifier code.
type Booking struct {
    ID            string        `json:"id"`
    UserID        string        `json:"user"`
    MovieID       string        `json:"movieId"`
    CinemaID      string        `json:"cinemaId"`
    Showtime      Showtime      `json:"showtime"`
    Seats         []string      `json:"seats"`
    TotalAmount   float64       `json:"totalAmount"`
    BookingStatus BookingStatus `json:"bookingStatus"`
    PaymentStatus PaymentStatus `json:"paymentStatus"`
    CreatedAt     time.Time     `json:"createdAt"`
    UpdatedAt     time.Time     `json:"updatedAt"`
}

// BookingSummary is a booking with the movie title/poster and cinema
// name/location attached, as returned by the booking list.
type BookingSummary struct {
    Booking
    Movie  MovieSummary  `json:"movie"`
    Cinema CinemaSummary `json:"cinema"`
}

// BookingDetail is a booking with the full movie and cinema documents.
type BookingDetail struct {
    Booking
    Movie  *Movie  `json:"movie"`
    Cinema *Cinema `json:"cinema"`
}

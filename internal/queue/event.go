// Package queue defines message payloads exchanged over the message broker
// together with the RabbitMQ publisher and the audit consumer.
package queue

import (
    "time"

    "github.com/hdfuturetech/cinema-booking/internal/model"
)

// Event types carried in BookingEvent.Type and in the AMQP Type header.
const (
    EventBookingCreated        = "booking.created"
    EventBookingStatusChanged  = "booking.status_changed"
    EventBookingPaymentChanged = "booking.payment_changed"
)

// BookingEvent is published after a booking is created or one of its
// statuses changes.  It contains enough information for downstream
// consumers to log, notify or trigger analytics without querying the
// primary database.
type BookingEvent struct {
    Type          string   `json:"type"`
    BookingID     string   `json:"booking_id"`
    UserID        string   `json:"user_id"`
    MovieID       string   `json:"movie_id"`
    CinemaID      string   `json:"cinema_id"`
    ShowDate      string   `json:"show_date"`
    ShowTime      string   `json:"show_time"`
    Seats         []string `json:"seats"`
    TotalAmount   float64  `json:"total_amount"`
    BookingStatus string   `json:"booking_status"`
    PaymentStatus string   `json:"payment_status"`
    // Previous holds the status value before the change for the two
    // *_changed events and is empty for booking.created.
    Previous   string `json:"previous,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// NewBookingEvent snapshots b into an event of the given type.
func NewBookingEvent(eventType string, b *model.Booking, previous string) BookingEvent {
    return BookingEvent{
        Type:          eventType,
        BookingID:     b.ID,
        UserID:        b.UserID,
        MovieID:       b.MovieID,
        CinemaID:      b.CinemaID,
        ShowDate:      b.Showtime.Date.String(),
        ShowTime:      b.Showtime.Time,
        Seats:         append([]string(nil), b.Seats...),
        TotalAmount:   b.TotalAmount,
        BookingStatus: string(b.BookingStatus),
        PaymentStatus: string(b.PaymentStatus),
        Previous:      previous,
        OccurredAt:    time.Now().UTC().Format(time.RFC3339),
    }
}

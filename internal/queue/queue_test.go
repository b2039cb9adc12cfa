package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/hdfuturetech/cinema-booking/internal/model"
)

func testBooking() *model.Booking {
    return &model.Booking{
        ID:            "b-1",
        UserID:        "u-1",
        MovieID:       "m-1",
        CinemaID:      "c-1",
        Showtime:      model.Showtime{Date: model.NewShowDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), Time: "18:00"},
        Seats:         []string{"A1", "A2"},
        TotalAmount:   180000,
        BookingStatus: model.BookingCancelled,
        PaymentStatus: model.PaymentPending,
    }
}

func TestNewBookingEvent(t *testing.T) {
    b := testBooking()
    ev := NewBookingEvent(EventBookingStatusChanged, b, "active")

    assert.Equal(t, "booking.status_changed", ev.Type)
    assert.Equal(t, "2024-06-01", ev.ShowDate)
    assert.Equal(t, "cancelled", ev.BookingStatus)
    assert.Equal(t, "active", ev.Previous)
    assert.NotEmpty(t, ev.OccurredAt)

    // the event owns its seat slice
    b.Seats[0] = "Z9"
    assert.Equal(t, []string{"A1", "A2"}, ev.Seats)
}

func TestNewPublishing(t *testing.T) {
    ev := NewBookingEvent(EventBookingCreated, testBooking(), "")
    p := newPublishing(ev, []byte(`{}`))

    assert.Equal(t, "application/json", p.ContentType)
    assert.Equal(t, amqp.Persistent, p.DeliveryMode)
    assert.Equal(t, EventBookingCreated, p.Type)
    assert.Len(t, p.MessageId, 36)
}

func TestConsumer_HandleMessageAppendsAuditLine(t *testing.T) {
    path := filepath.Join(t.TempDir(), "audit", "booking.log")
    c := NewConsumer("amqp://unused", path, nil)

    for _, ev := range []BookingEvent{
        NewBookingEvent(EventBookingCreated, testBooking(), ""),
        NewBookingEvent(EventBookingStatusChanged, testBooking(), "active"),
    } {
        body, err := json.Marshal(ev)
        require.NoError(t, err)
        require.NoError(t, c.handleMessage(body))
    }

    raw, err := os.ReadFile(path)
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[0], "booking.created | booking_id=b-1")
    assert.Contains(t, lines[0], "seats=[A1,A2]")
    assert.Contains(t, lines[0], "showtime=2024-06-01 18:00")
    assert.NotContains(t, lines[0], "previous=")
    assert.Contains(t, lines[1], "previous=active")
}

func TestConsumer_HandleMessageRejectsBadPayload(t *testing.T) {
    c := NewConsumer("amqp://unused", filepath.Join(t.TempDir(), "booking.log"), nil)

    assert.Error(t, c.handleMessage([]byte("not json")))
    assert.Error(t, c.handleMessage([]byte(`{"type":"booking.created"}`)))
}

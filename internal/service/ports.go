package service

import (
	"context"
	"time"

	"github.com/hdfuturetech/cinema-booking/internal/model"
	"github.com/hdfuturetech/cinema-booking/internal/queue"
	"github.com/hdfuturetech/cinema-booking/internal/repository"
)

// CinemaStore is the cinema persistence used by the services.
// *repository.CinemaRepo implements it.
type CinemaStore interface {
	Create(ctx context.Context, c *model.Cinema) error
	GetByID(ctx context.Context, id string) (*model.Cinema, error)
	GetByIdentifier(ctx context.Context, code string) (*model.Cinema, error)
	ListAll(ctx context.Context) ([]*model.Cinema, error)
	ListByCity(ctx context.Context, city string) ([]*model.Cinema, error)
	Update(ctx context.Context, c *model.Cinema) error
	Delete(ctx context.Context, id string) error
}

// MovieStore is implemented by *repository.MovieRepo.
type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	List(ctx context.Context, f repository.MovieFilter) ([]*model.Movie, error)
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id string) error
}

// BookingStore is implemented by *repository.BookingRepo.
type BookingStore interface {
	CreateWithSeats(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	BookedSeats(ctx context.Context, movieID, cinemaID string, date time.Time, showTime string) ([]string, error)
	ListByUser(ctx context.Context, userID string) ([]*model.BookingSummary, error)
	UpdateBookingStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, from, to model.PaymentStatus) (*model.Booking, error)
}

// EventPublisher is implemented by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

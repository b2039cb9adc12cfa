package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hdfuturetech/cinema-booking/internal/model"
	"github.com/hdfuturetech/cinema-booking/internal/queue"
	"github.com/hdfuturetech/cinema-booking/internal/repository"
)

// memCinemas is an in-memory CinemaStore with a unique identifier index.
type memCinemas struct {
	mu      sync.Mutex
	byID    map[string]*model.Cinema
	creates int
}

func newMemCinemas() *memCinemas { return &memCinemas{byID: map[string]*model.Cinema{}} }

func cloneCinema(c *model.Cinema) *model.Cinema {
	cp := *c
	if c.Identifier != nil {
		code := *c.Identifier
		cp.Identifier = &code
	}
	return &cp
}

func (s *memCinemas) Create(_ context.Context, c *model.Cinema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Identifier != nil {
		for _, other := range s.byID {
			if other.Identifier != nil && *other.Identifier == *c.Identifier {
				return repository.ErrDuplicate
			}
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.byID[c.ID] = cloneCinema(c)
	s.creates++
	return nil
}

func (s *memCinemas) GetByID(_ context.Context, id string) (*model.Cinema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrCinemaNotFound
	}
	return cloneCinema(c), nil
}

func (s *memCinemas) GetByIdentifier(_ context.Context, code string) (*model.Cinema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Identifier != nil && *c.Identifier == code {
			return cloneCinema(c), nil
		}
	}
	return nil, repository.ErrCinemaNotFound
}

func (s *memCinemas) ListAll(context.Context) ([]*model.Cinema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Cinema{}
	for _, c := range s.byID {
		out = append(out, cloneCinema(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memCinemas) ListByCity(ctx context.Context, city string) ([]*model.Cinema, error) {
	all, _ := s.ListAll(ctx)
	out := []*model.Cinema{}
	for _, c := range all {
		if strings.EqualFold(c.Location.City, city) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCinemas) Update(_ context.Context, c *model.Cinema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; !ok {
		return repository.ErrCinemaNotFound
	}
	s.byID[c.ID] = cloneCinema(c)
	return nil
}

func (s *memCinemas) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrCinemaNotFound
	}
	delete(s.byID, id)
	return nil
}

// memMovies is an in-memory MovieStore.
type memMovies struct {
	mu   sync.Mutex
	byID map[string]*model.Movie
}

func newMemMovies() *memMovies { return &memMovies{byID: map[string]*model.Movie{}} }

func (s *memMovies) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	cp := *m
	s.byID[m.ID] = &cp
	return nil
}

func (s *memMovies) GetByID(_ context.Context, id string) (*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memMovies) List(_ context.Context, f repository.MovieFilter) ([]*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Movie{}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	for _, m := range s.byID {
		if f.ShowingOnly && !m.IsShowing {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.Title+" "+m.Director+" "+strings.Join(m.Cast, " ")), q) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *memMovies) Update(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[m.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	cp := *m
	s.byID[m.ID] = &cp
	return nil
}

func (s *memMovies) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrMovieNotFound
	}
	delete(s.byID, id)
	return nil
}

// memBookings is an in-memory BookingStore.  Like the booking_seats table
// it holds one entry per seat of every non-cancelled booking and refuses a
// second holder for the same (movie, cinema, date, time, seat).
type memBookings struct {
	mu    sync.Mutex
	byID  map[string]*model.Booking
	seats map[string]string // seat key -> booking id
	order []string
	clock time.Time
}

func newMemBookings() *memBookings {
	return &memBookings{
		byID:  map[string]*model.Booking{},
		seats: map[string]string{},
		clock: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func seatKey(movieID, cinemaID string, date time.Time, showTime, seat string) string {
	return strings.Join([]string{movieID, cinemaID, model.NewShowDate(date).String(), showTime, seat}, "|")
}

func cloneBooking(b *model.Booking) *model.Booking {
	cp := *b
	cp.Seats = append([]string(nil), b.Seats...)
	return &cp
}

func (s *memBookings) CreateWithSeats(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	keys := make([]string, 0, len(b.Seats))
	for _, seat := range b.Seats {
		k := seatKey(b.MovieID, b.CinemaID, b.Showtime.Date.Time, b.Showtime.Time, seat)
		if _, taken := s.seats[k]; taken {
			return repository.ErrSeatTaken
		}
		keys = append(keys, k)
	}
	for _, k := range keys {
		s.seats[k] = b.ID
	}
	s.clock = s.clock.Add(time.Second)
	b.CreatedAt, b.UpdatedAt = s.clock, s.clock
	s.byID[b.ID] = cloneBooking(b)
	s.order = append(s.order, b.ID)
	return nil
}

func (s *memBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (s *memBookings) BookedSeats(_ context.Context, movieID, cinemaID string, date time.Time, showTime string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := model.NewShowDate(date)
	out := []string{}
	for _, id := range s.order {
		b := s.byID[id]
		if b.BookingStatus == model.BookingCancelled || b.MovieID != movieID || b.CinemaID != cinemaID ||
			!b.Showtime.Date.Equal(day.Time) || b.Showtime.Time != showTime {
			continue
		}
		out = append(out, b.Seats...)
	}
	return out, nil
}

func (s *memBookings) ListByUser(_ context.Context, userID string) ([]*model.BookingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.BookingSummary{}
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.byID[s.order[i]]
		if b.UserID == userID {
			out = append(out, &model.BookingSummary{Booking: *cloneBooking(b)})
		}
	}
	return out, nil
}

func (s *memBookings) UpdateBookingStatus(_ context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	if b.BookingStatus != from {
		return nil, repository.ErrConflict
	}
	b.BookingStatus = to
	if to == model.BookingCancelled {
		for k, owner := range s.seats {
			if owner == id {
				delete(s.seats, k)
			}
		}
	}
	return cloneBooking(b), nil
}

func (s *memBookings) UpdatePaymentStatus(_ context.Context, id string, from, to model.PaymentStatus) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	if b.PaymentStatus != from {
		return nil, repository.ErrConflict
	}
	b.PaymentStatus = to
	return cloneBooking(b), nil
}

// recordingPublisher collects published events and optionally fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

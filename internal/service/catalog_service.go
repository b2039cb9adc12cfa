package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/hdfuturetech/cinema-booking/internal/model"
	"github.com/hdfuturetech/cinema-booking/internal/repository"
)

// MovieService is the movie catalogue.
type MovieService struct {
	movies MovieStore
	log    *zap.Logger
}

func NewMovieService(movies MovieStore, log *zap.Logger) *MovieService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MovieService{movies: movies, log: log}
}

// List returns every movie.
func (s *MovieService) List(ctx context.Context) ([]*model.Movie, error) {
	return s.movies.List(ctx, repository.MovieFilter{})
}

// Showing returns the movies currently on screen.
func (s *MovieService) Showing(ctx context.Context) ([]*model.Movie, error) {
	return s.movies.List(ctx, repository.MovieFilter{ShowingOnly: true})
}

// Search matches q against title, director and cast.
func (s *MovieService) Search(ctx context.Context, q string) ([]*model.Movie, error) {
	if strings.TrimSpace(q) == "" {
		return nil, validation("Please provide a search query")
	}
	return s.movies.List(ctx, repository.MovieFilter{Query: q})
}

func (s *MovieService) Get(ctx context.Context, id string) (*model.Movie, error) {
	nid, ok := NativeID(id)
	if !ok {
		return nil, notFound(msgMovieNotFound, repository.ErrMovieNotFound)
	}
	m, err := s.movies.GetByID(ctx, nid)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return nil, notFound(msgMovieNotFound, err)
	}
	return m, err
}

func (s *MovieService) Create(ctx context.Context, m *model.Movie) (*model.Movie, error) {
	m.ID = ""
	normalizeShowtimes(m)
	if err := s.movies.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info("movie created", zap.String("movie_id", m.ID), zap.String("title", m.Title))
	return m, nil
}

// Update replaces the movie's editable fields with those of m.
func (s *MovieService) Update(ctx context.Context, id string, m *model.Movie) (*model.Movie, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.ID = existing.ID
	normalizeShowtimes(m)
	if err := s.movies.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, notFound(msgMovieNotFound, err)
		}
		return nil, err
	}
	return m, nil
}

// Delete removes a movie that no non-cancelled booking references.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	nid, ok := NativeID(id)
	if !ok {
		return notFound(msgMovieNotFound, repository.ErrMovieNotFound)
	}
	err := s.movies.Delete(ctx, nid)
	switch {
	case errors.Is(err, repository.ErrMovieNotFound):
		return notFound(msgMovieNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return conflict("Movie has active bookings and cannot be deleted", err)
	case err != nil:
		return err
	}
	s.log.Info("movie deleted", zap.String("movie_id", nid))
	return nil
}

func normalizeShowtimes(m *model.Movie) {
	for i := range m.Showtimes {
		st := &m.Showtimes[i]
		st.CinemaID = strings.TrimSpace(st.CinemaID)
		for j := range st.Times {
			st.Times[j] = strings.TrimSpace(st.Times[j])
		}
	}
}

// CinemaService is the cinema catalogue.  Lookups accept a native id or an
// identifier code but never provision.
type CinemaService struct {
	cinemas  CinemaStore
	resolver *CinemaResolver
	log      *zap.Logger
}

func NewCinemaService(cinemas CinemaStore, resolver *CinemaResolver, log *zap.Logger) *CinemaService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CinemaService{cinemas: cinemas, resolver: resolver, log: log}
}

func (s *CinemaService) List(ctx context.Context) ([]*model.Cinema, error) {
	return s.cinemas.ListAll(ctx)
}

func (s *CinemaService) ByCity(ctx context.Context, city string) ([]*model.Cinema, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, validation("Please provide a city")
	}
	return s.cinemas.ListByCity(ctx, city)
}

// Get looks the cinema up by native id or identifier code.
func (s *CinemaService) Get(ctx context.Context, ref string) (*model.Cinema, error) {
	var (
		c   *model.Cinema
		err error
	)
	if id, ok := NativeID(ref); ok {
		c, err = s.cinemas.GetByID(ctx, id)
	} else {
		c, err = s.cinemas.GetByIdentifier(ctx, strings.TrimSpace(ref))
	}
	if errors.Is(err, repository.ErrCinemaNotFound) {
		return nil, notFound(msgCinemaNotFound, err)
	}
	return c, err
}

func (s *CinemaService) Create(ctx context.Context, c *model.Cinema) (*model.Cinema, error) {
	c.ID = ""
	if err := checkIdentifier(c); err != nil {
		return nil, err
	}
	if err := s.cinemas.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("Cinema identifier already exists", err)
		}
		return nil, err
	}
	s.log.Info("cinema created", zap.String("cinema_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// Ensure is the explicit provisioning operation for identifier codes.
func (s *CinemaService) Ensure(ctx context.Context, code string) (*model.Cinema, bool, error) {
	return s.resolver.Ensure(ctx, code)
}

func (s *CinemaService) Update(ctx context.Context, ref string, c *model.Cinema) (*model.Cinema, error) {
	existing, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	if err := checkIdentifier(c); err != nil {
		return nil, err
	}
	if err := s.cinemas.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, conflict("Cinema identifier already exists", err)
		case errors.Is(err, repository.ErrCinemaNotFound):
			return nil, notFound(msgCinemaNotFound, err)
		}
		return nil, err
	}
	return c, nil
}

func (s *CinemaService) Delete(ctx context.Context, ref string) error {
	existing, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	err = s.cinemas.Delete(ctx, existing.ID)
	switch {
	case errors.Is(err, repository.ErrCinemaNotFound):
		return notFound(msgCinemaNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return conflict("Cinema has active bookings and cannot be deleted", err)
	case err != nil:
		return err
	}
	s.log.Info("cinema deleted", zap.String("cinema_id", existing.ID))
	return nil
}

// checkIdentifier rejects identifier codes that would be read as native ids.
func checkIdentifier(c *model.Cinema) error {
	if c.Identifier == nil {
		return nil
	}
	code := strings.TrimSpace(*c.Identifier)
	if code == "" {
		c.Identifier = nil
		return nil
	}
	if _, ok := NativeID(code); ok {
		return validation("Cinema identifier must not be a native id")
	}
	c.Identifier = &code
	return nil
}

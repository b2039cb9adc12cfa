package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hdfuturetech/cinema-booking/internal/model"
	"github.com/hdfuturetech/cinema-booking/internal/repository"
)

const msgCinemaNotFound = "Cinema not found"

// Placeholder values for cinemas provisioned from an identifier code.
const (
	placeholderAddress = "123 Example Street"
	placeholderCity    = "Hồ Chí Minh"
)

// NativeID reports whether id is a store-native cinema/movie id and
// returns it in canonical form.
func NativeID(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// CinemaResolver maps a cinema reference, either a native id or an opaque
// identifier code such as "1", to a stored Cinema.
type CinemaResolver struct {
	cinemas       CinemaStore
	autoProvision bool
	log           *zap.Logger
}

// NewCinemaResolver returns a resolver.  With autoProvision set, unknown
// identifier codes are provisioned on first use; otherwise they resolve
// to a not-found error.
func NewCinemaResolver(cinemas CinemaStore, autoProvision bool, log *zap.Logger) *CinemaResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &CinemaResolver{cinemas: cinemas, autoProvision: autoProvision, log: log}
}

// Resolve returns the cinema referenced by cinemaID.  Native ids are never
// provisioned: an unknown native id is always not found.
func (r *CinemaResolver) Resolve(ctx context.Context, cinemaID string) (*model.Cinema, error) {
	cinemaID = strings.TrimSpace(cinemaID)
	if cinemaID == "" {
		return nil, notFound(msgCinemaNotFound, repository.ErrCinemaNotFound)
	}
	if id, ok := NativeID(cinemaID); ok {
		c, err := r.cinemas.GetByID(ctx, id)
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return nil, notFound(msgCinemaNotFound, err)
		}
		return c, err
	}

	c, err := r.cinemas.GetByIdentifier(ctx, cinemaID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrCinemaNotFound) {
		return nil, err
	}
	if !r.autoProvision {
		return nil, notFound(msgCinemaNotFound, err)
	}
	c, _, err = r.Ensure(ctx, cinemaID)
	return c, err
}

// ResolveID is Resolve for callers that only need the native id.  A native
// id is returned as is without a lookup.
func (r *CinemaResolver) ResolveID(ctx context.Context, cinemaID string) (string, error) {
	if id, ok := NativeID(cinemaID); ok {
		return id, nil
	}
	c, err := r.Resolve(ctx, cinemaID)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// Ensure returns the cinema with the given identifier code, creating a
// placeholder when none exists.  created reports whether this call
// inserted it.  Concurrent calls for the same code converge on one row
// through the unique identifier index.
func (r *CinemaResolver) Ensure(ctx context.Context, code string) (c *model.Cinema, created bool, err error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false, validation("Please provide a cinema identifier")
	}
	if _, ok := NativeID(code); ok {
		return nil, false, validation("Cinema identifier must not be a native id")
	}

	c, err = r.cinemas.GetByIdentifier(ctx, code)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, repository.ErrCinemaNotFound) {
		return nil, false, err
	}

	c = placeholderCinema(code)
	err = r.cinemas.Create(ctx, c)
	if errors.Is(err, repository.ErrDuplicate) {
		// lost the race to a concurrent provisioner
		c, err = r.cinemas.GetByIdentifier(ctx, code)
		return c, false, err
	}
	if err != nil {
		return nil, false, err
	}
	r.log.Info("cinema provisioned",
		zap.String("identifier", code),
		zap.String("cinema_id", c.ID),
		zap.String("name", c.Name))
	return c, true, nil
}

func placeholderCinema(code string) *model.Cinema {
	name, district := "CineStar Quận 7", "Quận 7"
	if code == "1" {
		name, district = "CineStar Quận 1", "Quận 1"
	}
	ident := code
	return &model.Cinema{
		Identifier: &ident,
		Name:       name,
		Location: model.Location{
			Address:  placeholderAddress,
			District: district,
			City:     placeholderCity,
		},
	}
}

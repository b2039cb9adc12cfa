package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/hdfuturetech/cinema-booking/internal/config"
    "github.com/hdfuturetech/cinema-booking/internal/middleware"
    "github.com/hdfuturetech/cinema-booking/internal/model"
    "github.com/hdfuturetech/cinema-booking/internal/repository"
    "github.com/hdfuturetech/cinema-booking/internal/service"
    "github.com/hdfuturetech/cinema-booking/internal/utils"
)

const testSecret = "handler-secret"

const (
    movieID  = "6f1c2e1a-1111-4c3b-9d2f-0a0b0c0d0e0f"
    cinemaID = "0b7d5a9e-2222-4f6a-8c1d-1a2b3c4d5e6f"
)

type server struct {
    e    *echo.Echo
    mock sqlmock.Sqlmock
}

// newServer wires the booking and catalogue handlers over sqlmock-backed
// repositories, with the same validator and error handler as production.
func newServer(t *testing.T) *server {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    cinemas := repository.NewCinemaRepo(db)
    movies := repository.NewMovieRepo(db)
    bookings := repository.NewBookingRepo(db)
    resolver := service.NewCinemaResolver(cinemas, true, nil)

    e := echo.New()
    e.Validator = NewValidator()
    e.HTTPErrorHandler = ErrorHandler(nil)

    protect := middleware.Protect(testSecret)
    bh := NewBookingHandler(service.NewBookingService(bookings, movies, cinemas, resolver, nil, nil))
    e.POST("/api/bookings/check-seats", bh.CheckSeats)
    e.POST("/api/bookings", bh.Create, protect)
    e.GET("/api/bookings/:id", bh.Get, protect)
    e.PUT("/api/bookings/:id", bh.UpdateStatus, protect)
    e.PUT("/api/bookings/:id/payment", bh.UpdatePayment, protect, middleware.RequireRole(model.RoleAdmin))

    mh := NewMovieHandler(service.NewMovieService(movies, nil))
    e.GET("/api/movies/search", mh.Search)
    e.POST("/api/movies", mh.Create, protect, middleware.RequireRole(model.RoleAdmin))

    ch := NewCinemaHandler(service.NewCinemaService(cinemas, resolver, nil))
    e.POST("/api/cinemas", ch.Create, protect, middleware.RequireRole(model.RoleAdmin))
    e.POST("/api/cinemas/ensure", ch.Ensure, protect, middleware.RequireRole(model.RoleAdmin))

    return &server{e: e, mock: mock}
}

func token(t *testing.T, userID, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, userID, role, 5)
    require.NoError(t, err)
    return tok.Token
}

func (s *server) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
    t.Helper()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if bearer != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
    }
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    var out map[string]any
    if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    }
    return rec, out
}

func assertFailure(t *testing.T, rec *httptest.ResponseRecorder, body map[string]any, status int, msg string) {
    t.Helper()
    assert.Equal(t, status, rec.Code)
    assert.Equal(t, false, body["success"])
    assert.Equal(t, msg, body["message"])
}

func TestCreateBooking_Validation(t *testing.T) {
    s := newServer(t)
    alice := token(t, "user-alice", model.RoleUser)

    cases := []struct {
        name string
        body string
        msg  string
    }{
        {"missing seats", `{"movieId":"` + movieID + `","cinemaId":"1","showtime":{"date":"2024-06-01","time":"18:00"},"totalAmount":90000}`,
            "Please provide all required booking information"},
        {"empty seats", `{"movieId":"` + movieID + `","cinemaId":"1","showtime":{"date":"2024-06-01","time":"18:00"},"seats":[],"totalAmount":90000}`,
            "Please provide all required booking information"},
        {"zero amount", `{"movieId":"` + movieID + `","cinemaId":"1","showtime":{"date":"2024-06-01","time":"18:00"},"seats":["A1"],"totalAmount":0}`,
            "Please provide all required booking information"},
        {"missing showtime", `{"movieId":"` + movieID + `","cinemaId":"1","seats":["A1"],"totalAmount":90000}`,
            "Please provide all required booking information"},
        {"duplicate seat", `{"movieId":"` + movieID + `","cinemaId":"1","showtime":{"date":"2024-06-01","time":"18:00"},"seats":["A1","A1"],"totalAmount":90000}`,
            "Seat A1 is listed more than once"},
        {"bad date", `{"movieId":"` + movieID + `","cinemaId":"1","showtime":{"date":"tomorrow","time":"18:00"},"seats":["A1"],"totalAmount":90000}`,
            msgInvalidBody},
        {"not json", `{"movieId":`, msgInvalidBody},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec, body := s.do(t, http.MethodPost, "/api/bookings", tc.body, alice)
            assertFailure(t, rec, body, http.StatusBadRequest, tc.msg)
        })
    }
    require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestCreateBooking_RequiresToken(t *testing.T) {
    s := newServer(t)
    rec, body := s.do(t, http.MethodPost, "/api/bookings", `{}`, "")
    assertFailure(t, rec, body, http.StatusUnauthorized, "Not authorized to access this route")
}

func TestCreateBooking_UnknownMovieID(t *testing.T) {
    s := newServer(t)
    body := `{"movieId":"not-a-movie","cinemaId":"1","showtime":{"date":"2024-06-01","time":"18:00"},"seats":["A1"],"totalAmount":90000}`
    rec, out := s.do(t, http.MethodPost, "/api/bookings", body, token(t, "user-alice", model.RoleUser))
    assertFailure(t, rec, out, http.StatusNotFound, "Movie not found")
}

func TestCheckSeats(t *testing.T) {
    s := newServer(t)

    t.Run("missing showtime", func(t *testing.T) {
        rec, body := s.do(t, http.MethodPost, "/api/bookings/check-seats",
            `{"movieId":"`+movieID+`","cinemaId":"1"}`, "")
        assertFailure(t, rec, body, http.StatusBadRequest, "Please provide movie, cinema and showtime information")
    })

    t.Run("reports overlap with native cinema id", func(t *testing.T) {
        s.mock.ExpectQuery("FROM booking_seats s").
            WithArgs(movieID, cinemaID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "18:00", "cancelled").
            WillReturnRows(sqlmock.NewRows([]string{"seat_code"}).AddRow("A1").AddRow("A2"))

        rec, body := s.do(t, http.MethodPost, "/api/bookings/check-seats",
            `{"movieId":"`+movieID+`","cinemaId":"`+cinemaID+`","showtime":{"date":"2024-06-01","time":"18:00"},"seats":["A2","A3"]}`, "")
        require.Equal(t, http.StatusOK, rec.Code)
        assert.Equal(t, false, body["available"])
        assert.Equal(t, []any{"A2"}, body["unavailableSeats"])
        assert.Equal(t, []any{"A1", "A2"}, body["bookedSeats"])
    })

    t.Run("no requested seats is available", func(t *testing.T) {
        s.mock.ExpectQuery("FROM booking_seats s").
            WillReturnRows(sqlmock.NewRows([]string{"seat_code"}).AddRow("A1"))

        rec, body := s.do(t, http.MethodPost, "/api/bookings/check-seats",
            `{"movieId":"`+movieID+`","cinemaId":"`+cinemaID+`","showtime":{"date":"2024-06-01T17:00:00Z","time":"18:00"}}`, "")
        require.Equal(t, http.StatusOK, rec.Code)
        assert.Equal(t, true, body["available"])
        assert.Equal(t, []any{}, body["unavailableSeats"])
        assert.Equal(t, []any{"A1"}, body["bookedSeats"])
    })

    t.Run("store failure is a generic server error", func(t *testing.T) {
        s.mock.ExpectQuery("FROM booking_seats s").WillReturnError(errors.New("connection reset"))

        rec, body := s.do(t, http.MethodPost, "/api/bookings/check-seats",
            `{"movieId":"`+movieID+`","cinemaId":"`+cinemaID+`","showtime":{"date":"2024-06-01","time":"18:00"}}`, "")
        assertFailure(t, rec, body, http.StatusInternalServerError, msgServerError)
    })

    require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestBookingByID_NonNativeIDIsNotFound(t *testing.T) {
    s := newServer(t)
    alice := token(t, "user-alice", model.RoleUser)

    rec, body := s.do(t, http.MethodGet, "/api/bookings/42", "", alice)
    assertFailure(t, rec, body, http.StatusNotFound, "Booking not found")

    rec, body = s.do(t, http.MethodPut, "/api/bookings/42", `{"bookingStatus":"cancelled"}`, alice)
    assertFailure(t, rec, body, http.StatusNotFound, "Booking not found")
}

func TestUpdateStatus_Validation(t *testing.T) {
    s := newServer(t)
    alice := token(t, "user-alice", model.RoleUser)
    id := uuid.NewString()

    rec, body := s.do(t, http.MethodPut, "/api/bookings/"+id, `{}`, alice)
    assertFailure(t, rec, body, http.StatusBadRequest, "Please provide booking status")

    rec, body = s.do(t, http.MethodPut, "/api/bookings/"+id, `{"bookingStatus":"refunded"}`, alice)
    assertFailure(t, rec, body, http.StatusBadRequest, `Invalid booking status "refunded"`)
}

func TestUpdatePayment_AdminOnly(t *testing.T) {
    s := newServer(t)
    rec, body := s.do(t, http.MethodPut, "/api/bookings/"+uuid.NewString()+"/payment",
        `{"paymentStatus":"paid"}`, token(t, "user-alice", model.RoleUser))
    assertFailure(t, rec, body, http.StatusForbidden, "User role user is not authorized to access this route")

    rec, body = s.do(t, http.MethodPut, "/api/bookings/"+uuid.NewString()+"/payment",
        `{}`, token(t, "user-admin", model.RoleAdmin))
    assertFailure(t, rec, body, http.StatusBadRequest, "Please provide payment status")
}

func TestMovieCreate_Validation(t *testing.T) {
    s := newServer(t)
    admin := token(t, "user-admin", model.RoleAdmin)
    valid := map[string]any{
        "title": "Dune: Part Two", "description": "Paul joins the Fremen.", "duration": 166,
        "releaseDate": "2024-03-01", "genre": []string{"Sci-Fi"}, "director": "Denis Villeneuve",
        "cast": []string{"Timothée Chalamet"},
    }
    with := func(k string, v any) string {
        m := map[string]any{}
        for kk, vv := range valid {
            m[kk] = vv
        }
        if v == nil {
            delete(m, k)
        } else {
            m[k] = v
        }
        b, _ := json.Marshal(m)
        return string(b)
    }

    cases := []struct {
        name string
        body string
        msg  string
    }{
        {"no title", with("title", nil), "Please provide title"},
        {"long title", with("title", strings.Repeat("x", 101)), "title must be at most 100 characters"},
        {"zero duration", with("duration", 0), "Please provide duration"},
        {"no genre", with("genre", []string{}), "genre must have at least 1 entries"},
        {"no cast", with("cast", nil), "Please provide cast"},
        {"rating too high", with("rating", 7), "rating must be at most 5"},
        {"no release date", with("releaseDate", nil), "Please provide releaseDate"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec, body := s.do(t, http.MethodPost, "/api/movies", tc.body, admin)
            assertFailure(t, rec, body, http.StatusBadRequest, tc.msg)
        })
    }
    require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestMovieSearch_BlankQuery(t *testing.T) {
    s := newServer(t)
    rec, body := s.do(t, http.MethodGet, "/api/movies/search?q=%20", "", "")
    assertFailure(t, rec, body, http.StatusBadRequest, "Please provide a search query")
}

func TestCinemaCreate_Validation(t *testing.T) {
    s := newServer(t)
    admin := token(t, "user-admin", model.RoleAdmin)

    rec, body := s.do(t, http.MethodPost, "/api/cinemas", `{"location":{"address":"1 Main St","city":"Hà Nội"}}`, admin)
    assertFailure(t, rec, body, http.StatusBadRequest, "Please provide name")

    rec, body = s.do(t, http.MethodPost, "/api/cinemas", `{"name":"CGV","location":{"address":"1 Main St"}}`, admin)
    assertFailure(t, rec, body, http.StatusBadRequest, "Please provide city")

    rec, body = s.do(t, http.MethodPost, "/api/cinemas/ensure", `{}`, admin)
    assertFailure(t, rec, body, http.StatusBadRequest, "Please provide identifier")
}

func TestStatusFor(t *testing.T) {
    cases := []struct {
        name   string
        err    error
        status int
        msg    string
    }{
        {"validation", &service.Error{Kind: service.ErrValidation, Message: "bad"}, http.StatusBadRequest, "bad"},
        {"conflict", &service.Error{Kind: service.ErrConflict, Message: "taken"}, http.StatusBadRequest, "taken"},
        {"transition", &service.Error{Kind: service.ErrInvalidTransition, Message: "nope"}, http.StatusBadRequest, "nope"},
        {"not found", &service.Error{Kind: service.ErrNotFound, Message: "gone"}, http.StatusNotFound, "gone"},
        {"forbidden", &service.Error{Kind: service.ErrForbidden, Message: "no"}, http.StatusForbidden, "no"},
        {"echo 404", echo.ErrNotFound, http.StatusNotFound, "Not Found"},
        {"echo 401", echo.NewHTTPError(http.StatusUnauthorized, msgInvalidCredentials), http.StatusUnauthorized, msgInvalidCredentials},
        {"echo 500 hides message", echo.NewHTTPError(http.StatusInternalServerError, "pool exhausted"), http.StatusInternalServerError, msgServerError},
        {"plain error", errors.New("dial tcp: refused"), http.StatusInternalServerError, msgServerError},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            status, msg := statusFor(tc.err)
            assert.Equal(t, tc.status, status)
            assert.Equal(t, tc.msg, msg)
        })
    }
}

// ----- auth -----

type memUsers struct {
    mu    sync.Mutex
    users map[string]*model.User
}

func (m *memUsers) Create(_ context.Context, name, email, password, role string, cost int) (*model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, u := range m.users {
        if u.Email == email {
            return nil, repository.ErrEmailExists
        }
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return nil, err
    }
    u := &model.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash, Role: role}
    m.users[u.ID] = u
    return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, u := range m.users {
        if u.Email == email {
            return u, nil
        }
    }
    return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if u, ok := m.users[id]; ok {
        return u, nil
    }
    return nil, repository.ErrUserNotFound
}

type memTokens struct {
    mu     sync.Mutex
    owners map[string]string
}

func (m *memTokens) StoreRefresh(_ context.Context, userID, hash string, _ time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.owners[hash] = userID
    return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if id, ok := m.owners[hash]; ok {
        return id, nil
    }
    return "", repository.ErrTokenInvalid
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.owners, hash)
    return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for h, id := range m.owners {
        if id == userID {
            delete(m.owners, h)
        }
    }
    return nil
}

func newAuthServer(t *testing.T) (*server, *memTokens) {
    t.Helper()
    cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
    tokens := &memTokens{owners: map[string]string{}}
    h := NewAuthHandler(cfg, &memUsers{users: map[string]*model.User{}}, tokens, nil)

    e := echo.New()
    e.Validator = NewValidator()
    e.HTTPErrorHandler = ErrorHandler(nil)
    e.POST("/api/auth/register", h.Register)
    e.POST("/api/auth/login", h.Login)
    e.POST("/api/auth/refresh", h.Refresh)
    e.POST("/api/auth/logout", h.Logout, middleware.Protect(testSecret))
    e.GET("/api/auth/me", h.Me, middleware.Protect(testSecret))
    return &server{e: e}, tokens
}

func authData(t *testing.T, body map[string]any) (userID, access, refresh string) {
    t.Helper()
    data, ok := body["data"].(map[string]any)
    require.True(t, ok, "missing data in %v", body)
    user := data["user"].(map[string]any)
    return user["id"].(string),
        data["access"].(map[string]any)["token"].(string),
        data["refresh"].(map[string]any)["token"].(string)
}

func TestAuthFlow(t *testing.T) {
    s, tokens := newAuthServer(t)

    rec, body := s.do(t, http.MethodPost, "/api/auth/register",
        `{"name":"Alice","email":" Alice@Example.com ","password":"secret1"}`, "")
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    userID, access, refresh := authData(t, body)
    user := body["data"].(map[string]any)["user"].(map[string]any)
    assert.Equal(t, "alice@example.com", user["email"])
    assert.Equal(t, model.RoleUser, user["role"])
    assert.NotContains(t, rec.Body.String(), "secret1")

    rec, body = s.do(t, http.MethodPost, "/api/auth/register",
        `{"name":"Alice","email":"alice@example.com","password":"secret1"}`, "")
    assertFailure(t, rec, body, http.StatusBadRequest, "Email already registered")

    rec, body = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"wrong"}`, "")
    assertFailure(t, rec, body, http.StatusUnauthorized, msgInvalidCredentials)

    rec, body = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"x"}`, "")
    assertFailure(t, rec, body, http.StatusUnauthorized, msgInvalidCredentials)

    rec, body = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`, "")
    require.Equal(t, http.StatusOK, rec.Code)
    _, _, loginRefresh := authData(t, body)

    rec, body = s.do(t, http.MethodGet, "/api/auth/me", "", access)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, userID, body["data"].(map[string]any)["id"])

    // refresh rotates: the old token stops working
    rec, body = s.do(t, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`, "")
    require.Equal(t, http.StatusOK, rec.Code)
    _, _, rotated := authData(t, body)
    assert.NotEqual(t, refresh, rotated)

    rec, body = s.do(t, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`, "")
    assertFailure(t, rec, body, http.StatusUnauthorized, msgInvalidRefresh)

    // logout without a body revokes every session
    rec, _ = s.do(t, http.MethodPost, "/api/auth/logout", "", access)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    for _, raw := range []string{rotated, loginRefresh} {
        _, err := tokens.ValidateRefresh(context.Background(), utils.HashRefreshRaw(raw))
        assert.ErrorIs(t, err, repository.ErrTokenInvalid)
    }
}

func TestRegister_Validation(t *testing.T) {
    s, _ := newAuthServer(t)
    cases := []struct {
        body string
        msg  string
    }{
        {`{"email":"a@b.co","password":"secret1"}`, "Please provide name"},
        {`{"name":"A","email":"not-an-email","password":"secret1"}`, "email must be a valid email address"},
        {`{"name":"A","email":"a@b.co","password":"123"}`, "password must be at least 6 characters"},
    }
    for _, tc := range cases {
        rec, body := s.do(t, http.MethodPost, "/api/auth/register", tc.body, "")
        assertFailure(t, rec, body, http.StatusBadRequest, tc.msg)
    }
}

func TestLogout_ForeignRefreshTokenRejected(t *testing.T) {
    s, tokens := newAuthServer(t)
    require.NoError(t, tokens.StoreRefresh(context.Background(), "someone-else", utils.HashRefreshRaw("raw-token"), time.Now().Add(time.Hour)))

    rec, body := s.do(t, http.MethodPost, "/api/auth/logout", `{"refreshToken":"raw-token"}`, token(t, "user-alice", model.RoleUser))
    assertFailure(t, rec, body, http.StatusUnauthorized, msgInvalidRefresh)
    _, err := tokens.ValidateRefresh(context.Background(), utils.HashRefreshRaw("raw-token"))
    assert.NoError(t, err)
}

func TestHealth(t *testing.T) {
    e := echo.New()
    e.GET("/healthz", Health)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}

func TestReady(t *testing.T) {
    db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
    require.NoError(t, err)
    defer db.Close()

    e := echo.New()
    e.GET("/readyz", Ready(db))

    mock.ExpectPing()
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    assert.Equal(t, http.StatusOK, rec.Code)

    mock.ExpectPing().WillReturnError(errors.New("down"))
    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

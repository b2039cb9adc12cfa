package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/hdfuturetech/cinema-booking/internal/config"
    "github.com/hdfuturetech/cinema-booking/internal/model"
    "github.com/hdfuturetech/cinema-booking/internal/repository"
    "github.com/hdfuturetech/cinema-booking/internal/service"
    "github.com/hdfuturetech/cinema-booking/internal/utils"
)

const (
    msgInvalidCredentials = "Invalid credentials"
    msgInvalidRefresh     = "Invalid refresh token"
)

// UserStore is the subset of repository.UserRepo the auth endpoints use.
type UserStore interface {
    Create(ctx context.Context, name, email, password, role string, cost int) (*model.User, error)
    GetByEmail(ctx context.Context, email string) (*model.User, error)
    GetByID(ctx context.Context, id string) (*model.User, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
    log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, log *zap.Logger) *AuthHandler {
    if log == nil {
        log = zap.NewNop()
    }
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, log: log}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name" validate:"required,max=50"`
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=6"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User    *model.User `json:"user"`
    Access  tokenPart   `json:"access"`
    Refresh tokenPart   `json:"refresh"`
}

// issue signs an access token and stores a fresh refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u *model.User) (*authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return nil, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return nil, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return nil, err
    }
    return &authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register creates a user account and returns tokens immediately.  New
// accounts always get the user role.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return badBody(err)
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Name = strings.TrimSpace(req.Name)
    if err := c.Validate(&req); err != nil {
        return err
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.RoleUser, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return &service.Error{Kind: service.ErrConflict, Message: "Email already registered", Err: err}
        }
        return err
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return err
    }
    h.log.Info("user registered", zap.String("user_id", u.ID))
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": resp})
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badBody(err)
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if err := c.Validate(&req); err != nil {
        return err
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidCredentials)
        }
        return err
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidCredentials)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": resp})
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return &service.Error{Kind: service.ErrValidation, Message: "Please provide refreshToken"}
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        if errors.Is(err, repository.ErrTokenInvalid) {
            return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidRefresh)
        }
        return err
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return err
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidRefresh)
        }
        return err
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": resp})
}

// Logout revokes the refresh token in the body, or every refresh token of
// the caller when the body names none.  Runs behind Protect.
func (h *AuthHandler) Logout(c echo.Context) error {
    p := principal(c)
    var req refreshReq
    _ = c.Bind(&req)
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if raw == "" {
        if err := h.Tokens.RevokeAllForUser(ctx, p.ID); err != nil {
            return err
        }
        return c.NoContent(http.StatusNoContent)
    }
    hash := utils.HashRefreshRaw(raw)
    owner, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        if errors.Is(err, repository.ErrTokenInvalid) {
            return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidRefresh)
        }
        return err
    }
    if owner != p.ID {
        return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidRefresh)
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return err
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
    u, err := h.Users.GetByID(c.Request().Context(), principal(c).ID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return &service.Error{Kind: service.ErrNotFound, Message: "User not found", Err: err}
        }
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": u})
}

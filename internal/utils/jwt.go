package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or missing its subject.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims are the claims carried by an access token.  The subject is
// the user's UUID.
type AccessClaims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is the raw refresh token handed to the client.  Only its
// SHA-256 hash is persisted.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// NewAccessToken signs an HS256 JWT for the user valid for ttlMin minutes.
func NewAccessToken(secret, userID, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := AccessClaims{
        Role: role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   userID,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of raw and returns
// its claims.  Only HS256 is accepted.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
    claims := &AccessClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    if !tok.Valid || claims.Subject == "" {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// NewRefreshToken returns a random 96-character token valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

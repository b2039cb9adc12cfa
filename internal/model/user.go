package model

import "time"

// Roles known to the authorization layer.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User represents an application account as stored in the `users` table.
// PasswordHash holds a bcrypt hash and is never serialised.
type User struct {
    ID           string    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    CreatedAt    time.Time `json:"createdAt"`
    UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal is the authenticated actor attached to a request by the JWT
// middleware.  Only the ID and role are trusted.
type Principal struct {
    ID   string
    Role string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    ID        uint64
    UserID    string
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
    CreatedAt time.Time
}

package model

import "time"

// Location is the postal location of a cinema.
type Location struct {
    Address  string `json:"address"`
    District string `json:"district"`
    City     string `json:"city"`
}

// Cinema represents a movie theatre venue.  A cinema is addressed either
// by its native ID (a UUID) or by its optional external Identifier code
// such as "1" or "2" used by older clients.
//
// Fields:
//  ID         – native identifier (cinemas.id, CHAR(36)).
//  Identifier – external code, unique when present (cinemas.identifier).
//  Name       – display name.
//  Location   – address, district and city.
type Cinema struct {
    ID         string    `json:"id"`
    Identifier *string   `json:"identifier,omitempty"`
    Name       string    `json:"name"`
    Location   Location  `json:"location"`
    CreatedAt  time.Time `json:"createdAt"`
    UpdatedAt  time.Time `json:"updatedAt"`
}

// CinemaSummary is the reduced cinema view embedded in booking lists.
type CinemaSummary struct {
    ID       string   `json:"id"`
    Name     string   `json:"name"`
    Location Location `json:"location"`
}

package model

import "time"

// MovieShowtime lists the screening times of a movie in one cinema on one day.
type MovieShowtime struct {
    CinemaID string   `json:"cinema"`
    Date     ShowDate `json:"date"`
    Times    []string `json:"times"`
}

// Movie is a film in the catalogue.  Genre, Cast and Showtimes are stored
// as JSON columns on the movies row.
type Movie struct {
    ID          string          `json:"id"`
    Title       string          `json:"title"`
    Description string          `json:"description"`
    Duration    int             `json:"duration"` // minutes
    ReleaseDate time.Time       `json:"releaseDate"`
    PosterURL   string          `json:"posterUrl"`
    TrailerURL  string          `json:"trailerUrl"`
    Genre       []string        `json:"genre"`
    Director    string          `json:"director"`
    Cast        []string        `json:"cast"`
    Rating      float64         `json:"rating"`
    IsShowing   bool            `json:"isShowing"`
    Showtimes   []MovieShowtime `json:"showtimes"`
    CreatedAt   time.Time       `json:"createdAt"`
    UpdatedAt   time.Time       `json:"updatedAt"`
}

// MovieSummary is the reduced movie view embedded in booking lists.
type MovieSummary struct {
    ID        string `json:"id"`
    Title     string `json:"title"`
    PosterURL string `json:"posterUrl"`
}

package model

import (
    "encoding/json"
    "fmt"
    "strings"
    "time"
)

const showDateLayout = "2006-01-02"

// ShowDate is a calendar date.  Every value is normalised to midnight UTC
// so that two showtimes on the same day compare equal regardless of the
// time-of-day or offset the client sent.
type ShowDate struct {
    time.Time
}

// NewShowDate truncates t to its UTC calendar day.
func NewShowDate(t time.Time) ShowDate {
    u := t.UTC()
    return ShowDate{Time: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseShowDate accepts "2006-01-02" as well as RFC3339 timestamps.
func ParseShowDate(s string) (ShowDate, error) {
    s = strings.TrimSpace(s)
    if t, err := time.Parse(showDateLayout, s); err == nil {
        return NewShowDate(t), nil
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return NewShowDate(t), nil
    }
    return ShowDate{}, fmt.Errorf("invalid date %q", s)
}

// String formats the date as YYYY-MM-DD.
func (d ShowDate) String() string {
    if d.IsZero() {
        return ""
    }
    return d.Format(showDateLayout)
}

func (d ShowDate) MarshalJSON() ([]byte, error) {
    if d.IsZero() {
        return []byte("null"), nil
    }
    return json.Marshal(d.String())
}

func (d *ShowDate) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        if string(b) == "null" {
            *d = ShowDate{}
            return nil
        }
        return err
    }
    if strings.TrimSpace(s) == "" {
        *d = ShowDate{}
        return nil
    }
    parsed, err := ParseShowDate(s)
    if err != nil {
        return err
    }
    *d = parsed
    return nil
}

// Showtime identifies one screening: a calendar date and a time string
// such as "18:00".  Times are compared as exact strings.
type Showtime struct {
    Date ShowDate `json:"date"`
    Time string   `json:"time"`
}

// IsZero reports whether neither part of the showtime was supplied.
func (s Showtime) IsZero() bool {
    return s.Date.IsZero() && strings.TrimSpace(s.Time) == ""
}

package model

import "time"

// UserGameID uniquely identifies a list entry
type UserGameID string

// GameStatus is where a game sits in a user's list
type GameStatus string

const (
	StatusPlanned   GameStatus = "planned"
	StatusPlaying   GameStatus = "playing"
	StatusCompleted GameStatus = "completed"
	StatusDropped   GameStatus = "dropped"
	StatusPaused    GameStatus = "paused"
)

// Valid reports whether s is a known status
func (s GameStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusPlaying, StatusCompleted, StatusDropped, StatusPaused:
		return true
	}
	return false
}

// Progress bounds
const (
	MinProgress = 0
	MaxProgress = 100
)

// UserGame records one user's relationship with one game.
// At most one exists per (UserID, GameID).
type UserGame struct {
	ID            UserGameID `json:"id"`
	UserID        UserID     `json:"userId"`
	GameID        GameID     `json:"gameId"`
	Status        GameStatus `json:"status"`
	Rating        *int       `json:"rating,omitempty"`
	Platform      string     `json:"platform"`
	HoursPlayed   float64    `json:"hoursPlayed"`
	Progress      int        `json:"progress"`
	DateAdded     time.Time  `json:"dateAdded"`
	DateStarted   *time.Time `json:"dateStarted,omitempty"`
	DateCompleted *time.Time `json:"dateCompleted,omitempty"`
	IsFavorite    bool       `json:"isFavorite"`
	Notes         string     `json:"notes"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// RecordID implements storage.Record
func (ug UserGame) RecordID() string {
	return string(ug.ID)
}

// RatingValue returns the rating and whether it counts towards aggregates.
// Ratings outside 1..5 are treated as unset.
func (ug *UserGame) RatingValue() (int, bool) {
	if ug.Rating == nil || !ValidRating(*ug.Rating) {
		return 0, false
	}
	return *ug.Rating, true
}

// EnterStatus moves the entry into status and applies the date and
// progress side effects of entering it.
func (ug *UserGame) EnterStatus(status GameStatus, now time.Time) {
	ug.Status = status
	switch status {
	case StatusPlaying:
		if ug.DateStarted == nil {
			t := now
			ug.DateStarted = &t
		}
	case StatusCompleted:
		if ug.DateCompleted == nil {
			t := now
			ug.DateCompleted = &t
		}
		ug.Progress = MaxProgress
	case StatusDropped, StatusPaused:
		ug.DateCompleted = nil
	}
}

// SetProgress clamps p into range. Reaching 100 completes the entry.
func (ug *UserGame) SetProgress(p int, now time.Time) {
	ug.Progress = min(max(p, MinProgress), MaxProgress)
	if ug.Progress == MaxProgress && ug.Status != StatusCompleted {
		ug.EnterStatus(StatusCompleted, now)
	}
}

// NewUserGame holds the fields for adding a game to a user's list
type NewUserGame struct {
	UserID      UserID
	GameID      GameID
	Status      GameStatus // planned when empty
	Rating      *int
	Platform    string
	HoursPlayed float64
	Progress    int
	IsFavorite  bool
	Notes       string
	Tags        []string
}

// UserGamePatch lists the fields an update may change.
// ClearRating removes the rating and wins over Rating.
type UserGamePatch struct {
	Status      *GameStatus
	Rating      *int
	ClearRating bool
	Platform    *string
	HoursPlayed *float64
	Progress    *int
	IsFavorite  *bool
	Notes       *string
	Tags        []string
}

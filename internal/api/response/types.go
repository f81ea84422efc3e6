package response

import (
	"time"

	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/services/consistency"
	"github.com/mcoot/gameshelf/internal/services/library"
)

// Health is the body of the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Game is a catalog game with its derived aggregates
type Game struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Developer   string            `json:"developer"`
	Publisher   string            `json:"publisher"`
	ReleaseDate string            `json:"release_date"`
	Genres      []string          `json:"genres"`
	Platforms   []string          `json:"platforms"`
	Ratings     model.GameRatings `json:"ratings"`
	Stats       model.GameStats   `json:"stats"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	return Game{
		ID:          string(g.ID),
		Title:       g.Title,
		Developer:   g.Developer,
		Publisher:   g.Publisher,
		ReleaseDate: g.ReleaseDate,
		Genres:      g.Genres,
		Platforms:   g.Platforms,
		Ratings:     g.Ratings,
		Stats:       g.Stats,
		UpdatedAt:   g.UpdatedAt,
	}
}

// UserStats is a user's public profile summary and derived stats
type UserStats struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Followers   int             `json:"followers"`
	Following   int             `json:"following"`
	Stats       model.UserStats `json:"stats"`
}

// UserStatsFromModel converts a model.User. Credentials and email are
// never exposed.
func UserStatsFromModel(u *model.User) UserStats {
	return UserStats{
		ID:          string(u.ID),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Followers:   len(u.Followers),
		Following:   len(u.Following),
		Stats:       u.Stats,
	}
}

// Review is a review as listed on a game page
type Review struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Platform         string    `json:"platform"`
	HoursPlayed      float64   `json:"hours_played"`
	Pros             []string  `json:"pros"`
	Cons             []string  `json:"cons"`
	IsRecommended    bool      `json:"is_recommended"`
	ContainsSpoilers bool      `json:"contains_spoilers"`
	HelpfulCount     int       `json:"helpful_count"`
	IsEdited         bool      `json:"is_edited"`
	CreatedAt        time.Time `json:"created_at"`
}

// ReviewFromModel converts a model.Review. Voter and reporter ids stay private.
func ReviewFromModel(r model.Review) Review {
	return Review{
		ID:               string(r.ID),
		UserID:           string(r.UserID),
		Rating:           r.Rating,
		Title:            r.Title,
		Content:          r.Content,
		Platform:         r.Platform,
		HoursPlayed:      r.HoursPlayed,
		Pros:             r.Pros,
		Cons:             r.Cons,
		IsRecommended:    r.IsRecommended,
		ContainsSpoilers: r.ContainsSpoilers,
		HelpfulCount:     r.HelpfulVotes.Count,
		IsEdited:         r.IsEdited,
		CreatedAt:        r.CreatedAt,
	}
}

// ReviewsFromModel converts a review listing
func ReviewsFromModel(reviews []model.Review) []Review {
	out := make([]Review, len(reviews))
	for i, r := range reviews {
		out[i] = ReviewFromModel(r)
	}
	return out
}

// LibraryEntry is one entry of a user's game list
type LibraryEntry struct {
	ID            string           `json:"id"`
	GameID        string           `json:"game_id"`
	Title         string           `json:"title,omitempty"`
	Status        model.GameStatus `json:"status"`
	Rating        *int             `json:"rating"`
	Platform      string           `json:"platform"`
	HoursPlayed   float64          `json:"hours_played"`
	Progress      int              `json:"progress"`
	IsFavorite    bool             `json:"is_favorite"`
	Tags          []string         `json:"tags"`
	DateAdded     time.Time        `json:"date_added"`
	DateCompleted *time.Time       `json:"date_completed,omitempty"`
}

// LibraryFromEntries converts a joined game list
func LibraryFromEntries(entries []library.Entry) []LibraryEntry {
	out := make([]LibraryEntry, len(entries))
	for i, e := range entries {
		le := LibraryEntry{
			ID:            string(e.ID),
			GameID:        string(e.GameID),
			Status:        e.Status,
			Rating:        e.Rating,
			Platform:      e.Platform,
			HoursPlayed:   e.HoursPlayed,
			Progress:      e.Progress,
			IsFavorite:    e.IsFavorite,
			Tags:          e.Tags,
			DateAdded:     e.DateAdded,
			DateCompleted: e.DateCompleted,
		}
		if e.Game != nil {
			le.Title = e.Game.Title
		}
		out[i] = le
	}
	return out
}

// Recompute reports a single-entity recompute
type Recompute struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// RecomputeAll reports a full recompute pass
type RecomputeAll struct {
	Games int `json:"games"`
	Users int `json:"users"`
}

// Issue is one verification finding
type Issue struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Detail string `json:"detail"`
}

// Verify is the result of a consistency check
type Verify struct {
	OK        bool    `json:"ok"`
	Users     int     `json:"users"`
	Games     int     `json:"games"`
	UserGames int     `json:"user_games"`
	Reviews   int     `json:"reviews"`
	Issues    []Issue `json:"issues"`
}

// VerifyFromReport converts a consistency.Report
func VerifyFromReport(r consistency.Report) Verify {
	issues := make([]Issue, len(r.Issues))
	for i, is := range r.Issues {
		issues[i] = Issue{Kind: string(is.Kind), ID: is.ID, Detail: is.Detail}
	}
	return Verify{
		OK:        r.OK(),
		Users:     r.Users,
		Games:     r.Games,
		UserGames: r.UserGames,
		Reviews:   r.Reviews,
		Issues:    issues,
	}
}

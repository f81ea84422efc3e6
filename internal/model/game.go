package model

import "time"

// GameID uniquely identifies a catalog game
type GameID string

// MinRating and MaxRating bound every rating in the catalog
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r is a usable star rating
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// GameImages holds artwork URLs
type GameImages struct {
	Cover       string   `json:"cover"`
	Banner      string   `json:"banner"`
	Screenshots []string `json:"screenshots"`
}

// GameMetadata holds descriptive flags and links
type GameMetadata struct {
	AgeRating     string `json:"ageRating"`
	Website       string `json:"website"`
	Trailer       string `json:"trailer"`
	IsEarlyAccess bool   `json:"isEarlyAccess"`
	IsReleased    bool   `json:"isReleased"`
}

// GameRatings summarises the ratings users have given a game.
// Distribution is keyed by star value and always carries keys 1 through 5.
type GameRatings struct {
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution"`
}

// EmptyDistribution returns a distribution with every bucket at zero
func EmptyDistribution() map[int]int {
	d := make(map[int]int, MaxRating)
	for r := MinRating; r <= MaxRating; r++ {
		d[r] = 0
	}
	return d
}

// ZeroRatings returns the ratings of a game nobody has rated
func ZeroRatings() GameRatings {
	return GameRatings{Distribution: EmptyDistribution()}
}

// DistributionTotal sums every bucket of the distribution
func (r GameRatings) DistributionTotal() int {
	total := 0
	for _, n := range r.Distribution {
		total += n
	}
	return total
}

// GameStats summarises how users play a game
type GameStats struct {
	TotalPlayers    int     `json:"totalPlayers"`
	AveragePlaytime float64 `json:"averagePlaytime"`
	CompletionRate  float64 `json:"completionRate"`
}

// Game is a catalog entry. Ratings and Stats are derived from UserGame
// records and only the aggregate engine writes them.
type Game struct {
	ID          GameID       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Developer   string       `json:"developer"`
	Publisher   string       `json:"publisher"`
	ReleaseDate string       `json:"releaseDate"`
	Genres      []string     `json:"genres"`
	Platforms   []string     `json:"platforms"`
	Tags        []string     `json:"tags"`
	Images      GameImages   `json:"images"`
	Metadata    GameMetadata `json:"metadata"`
	Ratings     GameRatings  `json:"ratings"`
	Stats       GameStats    `json:"stats"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// RecordID implements storage.Record
func (g Game) RecordID() string {
	return string(g.ID)
}

// NewGame holds the descriptive fields for creating a game
type NewGame struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Developer   string       `json:"developer"`
	Publisher   string       `json:"publisher"`
	ReleaseDate string       `json:"releaseDate"`
	Genres      []string     `json:"genres"`
	Platforms   []string     `json:"platforms"`
	Tags        []string     `json:"tags"`
	Images      GameImages   `json:"images"`
	Metadata    GameMetadata `json:"metadata"`
}

// GamePatch lists the descriptive fields an update may change
type GamePatch struct {
	Title       *string
	Description *string
	Developer   *string
	Publisher   *string
	ReleaseDate *string
	Genres      []string
	Platforms   []string
	Tags        []string
	Images      *GameImages
	Metadata    *GameMetadata
}

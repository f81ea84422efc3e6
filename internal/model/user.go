package model

import (
	"slices"
	"time"
)

// UserID uniquely identifies a user across the system
type UserID string

// ProfileVisibility controls who can see a user's profile
type ProfileVisibility string

const (
	VisibilityPublic  ProfileVisibility = "public"
	VisibilityPrivate ProfileVisibility = "private"
	VisibilityFriends ProfileVisibility = "friends"
)

// Valid reports whether v is a known visibility
func (v ProfileVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityFriends:
		return true
	}
	return false
}

// Preferences holds per-user settings
type Preferences struct {
	EmailNotifications bool              `json:"emailNotifications"`
	ProfileVisibility  ProfileVisibility `json:"profileVisibility"`
	ShowOnlineStatus   bool              `json:"showOnlineStatus"`
}

// DefaultPreferences returns the preferences assigned to new users
func DefaultPreferences() Preferences {
	return Preferences{
		EmailNotifications: true,
		ProfileVisibility:  VisibilityPublic,
		ShowOnlineStatus:   true,
	}
}

// UserStats is derived from the user's list entries and reviews.
// Only the aggregate engine writes it.
type UserStats struct {
	TotalGames       int     `json:"totalGames"`
	CompletedGames   int     `json:"completedGames"`
	CurrentlyPlaying int     `json:"currentlyPlaying"`
	TotalHours       float64 `json:"totalHours"`
	AverageRating    float64 `json:"averageRating"`
	ReviewsWritten   int     `json:"reviewsWritten"`
}

// User is a catalog member
type User struct {
	ID           UserID      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"` // stored lowercase
	PasswordHash string      `json:"passwordHash"`
	DisplayName  string      `json:"displayName"`
	Bio          string      `json:"bio"`
	Avatar       string      `json:"avatar"`
	Location     string      `json:"location"`
	IsVerified   bool        `json:"isVerified"`
	JoinDate     time.Time   `json:"joinDate"`
	Preferences  Preferences `json:"preferences"`
	Followers    []UserID    `json:"followers"`
	Following    []UserID    `json:"following"`
	Stats        UserStats   `json:"stats"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// RecordID implements storage.Record
func (u User) RecordID() string {
	return string(u.ID)
}

// IsFollowing reports whether the user follows the given user
func (u *User) IsFollowing(id UserID) bool {
	return slices.Contains(u.Following, id)
}

// HasFollower reports whether the given user follows this user
func (u *User) HasFollower(id UserID) bool {
	return slices.Contains(u.Followers, id)
}

// NewUser holds the caller-supplied fields for creating a user.
// PasswordHash must already be hashed; this layer never sees plaintext.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	Bio          string
	Avatar       string
	Location     string
	Preferences  *Preferences
}

// UserPatch lists the profile fields an update may change.
// Nil fields are left untouched.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	DisplayName  *string
	Bio          *string
	Avatar       *string
	Location     *string
	IsVerified   *bool
	Preferences  *Preferences
}

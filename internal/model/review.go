package model

import (
	"slices"
	"time"
)

// ReviewID uniquely identifies a review
type ReviewID string

// ReviewStatus is the moderation state of a review
type ReviewStatus string

const (
	ReviewActive  ReviewStatus = "active"
	ReviewHidden  ReviewStatus = "hidden"
	ReviewDeleted ReviewStatus = "deleted"
)

// Valid reports whether s is a known status
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewActive, ReviewHidden, ReviewDeleted:
		return true
	}
	return false
}

// ReportReason classifies a report against a review
type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonOffensive     ReportReason = "offensive"
	ReasonSpoilers      ReportReason = "spoilers"
	ReasonOther         ReportReason = "other"
)

// Valid reports whether r is a known reason
func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonInappropriate, ReasonOffensive, ReasonSpoilers, ReasonOther:
		return true
	}
	return false
}

// HelpfulVotes tracks who found a review helpful.
// Count always equals len(Users).
type HelpfulVotes struct {
	Count int      `json:"count"`
	Users []UserID `json:"users"`
}

// Report is a single user's complaint about a review
type Report struct {
	UserID      UserID       `json:"userId"`
	Reason      ReportReason `json:"reason"`
	Description string       `json:"description"`
	ReportedAt  time.Time    `json:"reportedAt"`
}

// Review is a user's written opinion of a game
type Review struct {
	ID               ReviewID     `json:"id"`
	UserID           UserID       `json:"userId"`
	GameID           GameID       `json:"gameId"`
	Rating           int          `json:"rating"`
	Title            string       `json:"title"`
	Content          string       `json:"content"`
	Platform         string       `json:"platform"`
	HoursPlayed      float64      `json:"hoursPlayed"`
	Pros             []string     `json:"pros"`
	Cons             []string     `json:"cons"`
	IsRecommended    bool         `json:"isRecommended"`
	ContainsSpoilers bool         `json:"containsSpoilers"`
	HelpfulVotes     HelpfulVotes `json:"helpfulVotes"`
	Reports          []Report     `json:"reports"`
	Status           ReviewStatus `json:"status"`
	IsEdited         bool         `json:"isEdited"`
	LastEditedAt     *time.Time   `json:"lastEditedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// RecordID implements storage.Record
func (r Review) RecordID() string {
	return string(r.ID)
}

// IsActive reports whether the review is publicly visible
func (r *Review) IsActive() bool {
	return r.Status == ReviewActive
}

// ToggleHelpful adds or removes the user's helpful vote and returns
// whether the vote is now present.
func (r *Review) ToggleHelpful(userID UserID) bool {
	idx := slices.Index(r.HelpfulVotes.Users, userID)
	voted := idx < 0
	if voted {
		r.HelpfulVotes.Users = append(r.HelpfulVotes.Users, userID)
	} else {
		r.HelpfulVotes.Users = slices.Delete(r.HelpfulVotes.Users, idx, idx+1)
	}
	r.HelpfulVotes.Count = len(r.HelpfulVotes.Users)
	return voted
}

// HasReportFrom reports whether the user already reported this review
func (r *Review) HasReportFrom(userID UserID) bool {
	return slices.ContainsFunc(r.Reports, func(rep Report) bool {
		return rep.UserID == userID
	})
}

// NewReview holds the fields for writing a review
type NewReview struct {
	UserID           UserID
	GameID           GameID
	Rating           int
	Title            string
	Content          string
	Platform         string
	HoursPlayed      float64
	Pros             []string
	Cons             []string
	IsRecommended    bool
	ContainsSpoilers bool
}

// ReviewPatch lists the fields an update may change
type ReviewPatch struct {
	Rating           *int
	Title            *string
	Content          *string
	Platform         *string
	HoursPlayed      *float64
	Pros             []string
	Cons             []string
	IsRecommended    *bool
	ContainsSpoilers *bool
	Status           *ReviewStatus
}

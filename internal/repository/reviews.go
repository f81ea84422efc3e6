package repository

import (
	"context"
	"slices"

	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/dependencies/identity"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/storage"
)

// Reviews is the repository for written reviews. Every mutation returns
// the user and game whose aggregates it made stale.
type Reviews struct {
	records *storage.Collection[model.Review]
	ids     identity.Generator
	clock   clock.Clock
}

// NewReviews creates a Reviews repository over records
func NewReviews(records *storage.Collection[model.Review], ids identity.Generator, clk clock.Clock) *Reviews {
	return &Reviews{records: records, ids: ids, clock: clk}
}

// GetByID returns the review with the given id, whatever its status
func (r *Reviews) GetByID(ctx context.Context, id model.ReviewID) (*model.Review, error) {
	rev, ok, err := r.records.FindByID(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrReviewNotFound
	}
	return &rev, nil
}

// GetByGameID returns the active reviews of a game
func (r *Reviews) GetByGameID(ctx context.Context, gameID model.GameID) ([]model.Review, error) {
	return r.records.FindAll(ctx, func(rev model.Review) bool {
		return rev.GameID == gameID && rev.IsActive()
	})
}

// GetByUserID returns the active reviews written by a user
func (r *Reviews) GetByUserID(ctx context.Context, userID model.UserID) ([]model.Review, error) {
	return r.records.FindAll(ctx, func(rev model.Review) bool {
		return rev.UserID == userID && rev.IsActive()
	})
}

// GetActiveByUserAndGame returns the user's active review of a game
func (r *Reviews) GetActiveByUserAndGame(ctx context.Context, userID model.UserID, gameID model.GameID) (*model.Review, error) {
	rev, ok, err := r.records.FindOne(ctx, func(rev model.Review) bool {
		return rev.UserID == userID && rev.GameID == gameID && rev.IsActive()
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrReviewNotFound
	}
	return &rev, nil
}

// List returns every review, including hidden and deleted ones
func (r *Reviews) List(ctx context.Context) ([]model.Review, error) {
	return r.records.LoadAll(ctx)
}

// Create stores a new active review with no votes or reports.
// Uniqueness is not checked; see CreateUnique.
func (r *Reviews) Create(ctx context.Context, n model.NewReview) (*model.Review, model.Dirty, error) {
	rev := r.build(n)
	if err := r.records.Insert(ctx, rev); err != nil {
		return nil, model.Dirty{}, err
	}
	return &rev, model.DirtyFor(rev.UserID, rev.GameID), nil
}

// CreateUnique is Create with one active review per (user, game) checked
// under the collection's writer lock
func (r *Reviews) CreateUnique(ctx context.Context, n model.NewReview) (*model.Review, model.Dirty, error) {
	rev := r.build(n)
	err := r.records.Mutate(ctx, func(reviews []model.Review) ([]model.Review, error) {
		for _, existing := range reviews {
			if existing.UserID == rev.UserID && existing.GameID == rev.GameID && existing.IsActive() {
				return nil, model.ErrAlreadyReviewed
			}
		}
		return append(reviews, rev), nil
	})
	if err != nil {
		return nil, model.Dirty{}, err
	}
	return &rev, model.DirtyFor(rev.UserID, rev.GameID), nil
}

// Update merges the fields of patch into the review. Changing the content,
// title or rating marks the review edited.
func (r *Reviews) Update(ctx context.Context, id model.ReviewID, patch model.ReviewPatch) (*model.Review, model.Dirty, error) {
	return r.Modify(ctx, id, func(rev *model.Review) error {
		if applyReviewPatch(rev, patch) {
			now := r.clock.Now()
			rev.IsEdited = true
			rev.LastEditedAt = &now
		}
		return nil
	})
}

// Modify applies fn to the review under the collection's writer lock
func (r *Reviews) Modify(ctx context.Context, id model.ReviewID, fn func(*model.Review) error) (*model.Review, model.Dirty, error) {
	rev, ok, err := r.records.Update(ctx, string(id), func(rev *model.Review) error {
		if err := fn(rev); err != nil {
			return err
		}
		rev.UpdatedAt = r.clock.Now()
		return nil
	})
	if !ok && err == nil {
		return nil, model.Dirty{}, model.ErrReviewNotFound
	}
	if err != nil {
		return nil, model.Dirty{}, err
	}
	return &rev, model.DirtyFor(rev.UserID, rev.GameID), nil
}

// SetStatus moves the review into a moderation status. Reactivating is
// refused while the author has another active review of the same game.
func (r *Reviews) SetStatus(ctx context.Context, id model.ReviewID, status model.ReviewStatus) (*model.Review, model.Dirty, error) {
	var updated model.Review
	err := r.records.Mutate(ctx, func(reviews []model.Review) ([]model.Review, error) {
		idx := slices.IndexFunc(reviews, func(rev model.Review) bool { return rev.ID == id })
		if idx < 0 {
			return nil, model.ErrReviewNotFound
		}
		rev := &reviews[idx]
		if status == model.ReviewActive && !rev.IsActive() {
			for _, other := range reviews {
				if other.ID != rev.ID && other.UserID == rev.UserID && other.GameID == rev.GameID && other.IsActive() {
					return nil, model.ErrAlreadyReviewed
				}
			}
		}
		rev.Status = status
		rev.UpdatedAt = r.clock.Now()
		updated = *rev
		return reviews, nil
	})
	if err != nil {
		return nil, model.Dirty{}, err
	}
	return &updated, model.DirtyFor(updated.UserID, updated.GameID), nil
}

// Delete removes the review outright. Moderation normally soft-deletes by
// setting the status instead.
func (r *Reviews) Delete(ctx context.Context, id model.ReviewID) (bool, model.Dirty, error) {
	rev, ok, err := r.records.FindByID(ctx, string(id))
	if err != nil || !ok {
		return false, model.Dirty{}, err
	}
	removed, err := r.records.Delete(ctx, string(id))
	if err != nil || !removed {
		return false, model.Dirty{}, err
	}
	return true, model.DirtyFor(rev.UserID, rev.GameID), nil
}

func (r *Reviews) build(n model.NewReview) model.Review {
	now := r.clock.Now()
	return model.Review{
		ID:               model.ReviewID(r.ids.NewID()),
		UserID:           n.UserID,
		GameID:           n.GameID,
		Rating:           n.Rating,
		Title:            n.Title,
		Content:          n.Content,
		Platform:         n.Platform,
		HoursPlayed:      n.HoursPlayed,
		Pros:             nonNil(n.Pros),
		Cons:             nonNil(n.Cons),
		IsRecommended:    n.IsRecommended,
		ContainsSpoilers: n.ContainsSpoilers,
		HelpfulVotes:     model.HelpfulVotes{Count: 0, Users: []model.UserID{}},
		Reports:          []model.Report{},
		Status:           model.ReviewActive,
		IsEdited:         false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// applyReviewPatch merges p into rev and reports whether the content,
// title or rating changed
func applyReviewPatch(rev *model.Review, p model.ReviewPatch) bool {
	edited := false
	if p.Rating != nil && *p.Rating != rev.Rating {
		rev.Rating = *p.Rating
		edited = true
	}
	if p.Title != nil && *p.Title != rev.Title {
		rev.Title = *p.Title
		edited = true
	}
	if p.Content != nil && *p.Content != rev.Content {
		rev.Content = *p.Content
		edited = true
	}
	if p.Platform != nil {
		rev.Platform = *p.Platform
	}
	if p.HoursPlayed != nil {
		rev.HoursPlayed = *p.HoursPlayed
	}
	if p.Pros != nil {
		rev.Pros = slices.Clone(p.Pros)
	}
	if p.Cons != nil {
		rev.Cons = slices.Clone(p.Cons)
	}
	if p.IsRecommended != nil {
		rev.IsRecommended = *p.IsRecommended
	}
	if p.ContainsSpoilers != nil {
		rev.ContainsSpoilers = *p.ContainsSpoilers
	}
	if p.Status != nil {
		rev.Status = *p.Status
	}
	return edited
}

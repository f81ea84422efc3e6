package review

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/mcoot/gameshelf/internal/aggregate"
	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
)

// Service manages reviews. Writing a review also records the game in the
// author's list, so the two stay in step.
type Service struct {
	reviews   *repository.Reviews
	userGames *repository.UserGames
	users     *repository.Users
	games     *repository.Games
	engine    *aggregate.Engine
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new review service
func New(repos *repository.Repositories, engine *aggregate.Engine, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		reviews:   repos.Reviews,
		userGames: repos.UserGames,
		users:     repos.Users,
		games:     repos.Games,
		engine:    engine,
		clock:     clk,
		logger:    logger,
	}
}

// CreateInput holds the fields of a new review
type CreateInput struct {
	Rating           int      `json:"rating"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Platform         string   `json:"platform"`
	HoursPlayed      float64  `json:"hoursPlayed"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
	IsRecommended    bool     `json:"isRecommended"`
	ContainsSpoilers bool     `json:"containsSpoilers"`
}

// Sort orders review listings
type Sort string

const (
	SortNewest      Sort = "newest"
	SortOldest      Sort = "oldest"
	SortMostHelpful Sort = "helpful"
	SortHighest     Sort = "rating_high"
	SortLowest      Sort = "rating_low"
)

// Valid reports whether s is a known order
func (s Sort) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortMostHelpful, SortHighest, SortLowest:
		return true
	}
	return false
}

// Create writes the user's review of a game. A user has at most one
// active review per game.
//
// The author's list entry is brought in line: it is created as completed
// when missing, otherwise an unset rating or platform is filled in and
// hours played is raised to the review's figure.
func (s *Service) Create(ctx context.Context, userID model.UserID, gameID model.GameID, in CreateInput) (*model.Review, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.games.GetByID(ctx, gameID); err != nil {
		return nil, err
	}

	rev, dirty, err := s.reviews.CreateUnique(ctx, model.NewReview{
		UserID:           userID,
		GameID:           gameID,
		Rating:           in.Rating,
		Title:            strings.TrimSpace(in.Title),
		Content:          strings.TrimSpace(in.Content),
		Platform:         in.Platform,
		HoursPlayed:      in.HoursPlayed,
		Pros:             in.Pros,
		Cons:             in.Cons,
		IsRecommended:    in.IsRecommended,
		ContainsSpoilers: in.ContainsSpoilers,
	})
	if err != nil {
		return nil, err
	}

	entryDirty, err := s.syncEntry(ctx, rev)
	if err != nil {
		// The review stands; its list entry can be fixed up by editing
		s.logger.Error("failed to sync list entry with review",
			slog.String("review_id", string(rev.ID)),
			slog.String("error", err.Error()),
		)
	}
	dirty.Merge(entryDirty)

	s.logger.Info("review created",
		slog.String("review_id", string(rev.ID)),
		slog.String("user_id", string(userID)),
		slog.String("game_id", string(gameID)),
	)
	s.recompute(ctx, dirty)
	return rev, nil
}

// Update edits one of the user's own reviews. A supplied rating is copied
// to the user's list entry for the game.
func (s *Service) Update(ctx context.Context, userID model.UserID, reviewID model.ReviewID, patch model.ReviewPatch) (*model.Review, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	// Moderation status is not the author's to change
	patch.Status = nil

	if _, err := s.owned(ctx, userID, reviewID); err != nil {
		return nil, err
	}

	rev, dirty, err := s.reviews.Update(ctx, reviewID, patch)
	if err != nil {
		return nil, err
	}

	if patch.Rating != nil {
		entryDirty, err := s.syncRating(ctx, rev)
		if err != nil {
			s.logger.Error("failed to copy review rating to list entry",
				slog.String("review_id", string(rev.ID)),
				slog.String("error", err.Error()),
			)
		}
		dirty.Merge(entryDirty)
	}

	s.recompute(ctx, dirty)
	return rev, nil
}

// Delete soft-deletes one of the user's own reviews
func (s *Service) Delete(ctx context.Context, userID model.UserID, reviewID model.ReviewID) error {
	if _, err := s.owned(ctx, userID, reviewID); err != nil {
		return err
	}
	_, err := s.SetStatus(ctx, reviewID, model.ReviewDeleted)
	return err
}

// Purge removes a review outright, whatever its status
func (s *Service) Purge(ctx context.Context, reviewID model.ReviewID) error {
	removed, dirty, err := s.reviews.Delete(ctx, reviewID)
	if err != nil {
		return err
	}
	if !removed {
		return model.ErrReviewNotFound
	}

	s.recompute(ctx, dirty)
	return nil
}

// SetStatus moves a review between active, hidden and deleted
func (s *Service) SetStatus(ctx context.Context, reviewID model.ReviewID, status model.ReviewStatus) (*model.Review, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	rev, dirty, err := s.reviews.SetStatus(ctx, reviewID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("review status changed",
		slog.String("review_id", string(reviewID)),
		slog.String("status", string(status)),
	)
	s.recompute(ctx, dirty)
	return rev, nil
}

// ToggleHelpful adds or removes the user's helpful vote on someone else's
// review and returns whether the vote is now present
func (s *Service) ToggleHelpful(ctx context.Context, userID model.UserID, reviewID model.ReviewID) (*model.Review, bool, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, false, err
	}

	var voted bool
	rev, dirty, err := s.reviews.Modify(ctx, reviewID, func(rev *model.Review) error {
		if rev.UserID == userID {
			return model.ErrSelfAction
		}
		voted = rev.ToggleHelpful(userID)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.recompute(ctx, dirty)
	return rev, voted, nil
}

// Report files the user's complaint about someone else's review. A user
// can report a review once.
func (s *Service) Report(ctx context.Context, userID model.UserID, reviewID model.ReviewID, reason model.ReportReason, description string) (*model.Review, error) {
	if !reason.Valid() {
		return nil, model.ErrInvalidReportReason
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	rev, dirty, err := s.reviews.Modify(ctx, reviewID, func(rev *model.Review) error {
		if rev.UserID == userID {
			return model.ErrSelfAction
		}
		if rev.HasReportFrom(userID) {
			return model.ErrAlreadyReported
		}
		rev.Reports = append(rev.Reports, model.Report{
			UserID:      userID,
			Reason:      reason,
			Description: strings.TrimSpace(description),
			ReportedAt:  s.clock.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("review reported",
		slog.String("review_id", string(reviewID)),
		slog.String("reason", string(reason)),
		slog.Int("reports", len(rev.Reports)),
	)
	s.recompute(ctx, dirty)
	return rev, nil
}

// ForGame returns the active reviews of a game in the requested order
func (s *Service) ForGame(ctx context.Context, gameID model.GameID, order Sort) ([]model.Review, error) {
	reviews, err := s.reviews.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	sortReviews(reviews, order)
	return reviews, nil
}

// ForUser returns the user's active reviews, newest first
func (s *Service) ForUser(ctx context.Context, userID model.UserID) ([]model.Review, error) {
	reviews, err := s.reviews.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortReviews(reviews, SortNewest)
	return reviews, nil
}

// Internals

func (s *Service) owned(ctx context.Context, userID model.UserID, reviewID model.ReviewID) (*model.Review, error) {
	rev, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rev.UserID != userID {
		return nil, model.ErrNotOwner
	}
	return rev, nil
}

// syncEntry creates or fills in the author's list entry for a new review
func (s *Service) syncEntry(ctx context.Context, rev *model.Review) (model.Dirty, error) {
	rating := rev.Rating
	_, dirty, err := s.userGames.CreateUnique(ctx, model.NewUserGame{
		UserID:      rev.UserID,
		GameID:      rev.GameID,
		Status:      model.StatusCompleted,
		Rating:      &rating,
		Platform:    rev.Platform,
		HoursPlayed: rev.HoursPlayed,
	})
	if !errors.Is(err, model.ErrAlreadyInList) {
		return dirty, err
	}

	existing, err := s.userGames.GetByUserAndGame(ctx, rev.UserID, rev.GameID)
	if err != nil {
		return model.Dirty{}, err
	}
	_, dirty, err = s.userGames.Modify(ctx, existing.ID, func(ug *model.UserGame) error {
		if ug.Rating == nil {
			ug.Rating = &rating
		}
		if ug.Platform == "" {
			ug.Platform = rev.Platform
		}
		ug.HoursPlayed = max(ug.HoursPlayed, rev.HoursPlayed)
		return nil
	})
	return dirty, err
}

// syncRating copies an edited review rating to the author's list entry
func (s *Service) syncRating(ctx context.Context, rev *model.Review) (model.Dirty, error) {
	existing, err := s.userGames.GetByUserAndGame(ctx, rev.UserID, rev.GameID)
	if errors.Is(err, model.ErrUserGameNotFound) {
		return model.Dirty{}, nil
	}
	if err != nil {
		return model.Dirty{}, err
	}
	rating := rev.Rating
	_, dirty, err := s.userGames.Update(ctx, existing.ID, model.UserGamePatch{Rating: &rating})
	return dirty, err
}

func (s *Service) recompute(ctx context.Context, dirty model.Dirty) {
	if err := s.engine.Apply(ctx, dirty); err != nil {
		s.logger.Warn("aggregates left stale after review change",
			slog.String("error", err.Error()),
		)
	}
}

func sortReviews(reviews []model.Review, order Sort) {
	slices.SortStableFunc(reviews, func(a, b model.Review) int {
		switch order {
		case SortOldest:
			return a.CreatedAt.Compare(b.CreatedAt)
		case SortMostHelpful:
			if n := b.HelpfulVotes.Count - a.HelpfulVotes.Count; n != 0 {
				return n
			}
		case SortHighest:
			if n := b.Rating - a.Rating; n != 0 {
				return n
			}
		case SortLowest:
			if n := a.Rating - b.Rating; n != 0 {
				return n
			}
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

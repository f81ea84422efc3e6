package library

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/mcoot/gameshelf/internal/aggregate"
	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
)

// Service manages users' game lists. Every mutation is followed by an
// aggregate recompute of the affected user and game.
type Service struct {
	games     *repository.Games
	users     *repository.Users
	userGames *repository.UserGames
	engine    *aggregate.Engine
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new library service
func New(repos *repository.Repositories, engine *aggregate.Engine, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		games:     repos.Games,
		users:     repos.Users,
		userGames: repos.UserGames,
		engine:    engine,
		clock:     clk,
		logger:    logger,
	}
}

// EntryInput holds the fields a user supplies when adding a game
type EntryInput struct {
	Status      model.GameStatus `json:"status"`
	Rating      *int             `json:"rating,omitempty"`
	Platform    string           `json:"platform"`
	HoursPlayed float64          `json:"hoursPlayed"`
	Progress    int              `json:"progress"`
	IsFavorite  bool             `json:"isFavorite"`
	Notes       string           `json:"notes"`
	Tags        []string         `json:"tags"`
}

// Entry is a list entry joined with its game
type Entry struct {
	model.UserGame
	Game *model.Game `json:"game,omitempty"`
}

// AddToList puts a game on the user's list. A game can be listed once.
func (s *Service) AddToList(ctx context.Context, userID model.UserID, gameID model.GameID, in EntryInput) (*model.UserGame, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.requireUserAndGame(ctx, userID, gameID); err != nil {
		return nil, err
	}

	ug, dirty, err := s.userGames.CreateUnique(ctx, model.NewUserGame{
		UserID:      userID,
		GameID:      gameID,
		Status:      in.Status,
		Rating:      in.Rating,
		Platform:    in.Platform,
		HoursPlayed: in.HoursPlayed,
		Progress:    in.Progress,
		IsFavorite:  in.IsFavorite,
		Notes:       in.Notes,
		Tags:        in.Tags,
	})
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, dirty)
	return ug, nil
}

// UpsertEntry adds the game to the user's list, or updates the existing
// entry with the given fields.
func (s *Service) UpsertEntry(ctx context.Context, userID model.UserID, gameID model.GameID, in EntryInput) (*model.UserGame, error) {
	ug, err := s.AddToList(ctx, userID, gameID, in)
	if !errors.Is(err, model.ErrAlreadyInList) {
		return ug, err
	}

	existing, err := s.userGames.GetByUserAndGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	patch := model.UserGamePatch{
		Rating:      in.Rating,
		Platform:    &in.Platform,
		HoursPlayed: &in.HoursPlayed,
		Progress:    &in.Progress,
		IsFavorite:  &in.IsFavorite,
		Notes:       &in.Notes,
		Tags:        in.Tags,
	}
	if in.Status != "" {
		patch.Status = &in.Status
	}
	return s.UpdateEntry(ctx, userID, existing.ID, patch)
}

// UpdateEntry changes fields of one of the user's own entries
func (s *Service) UpdateEntry(ctx context.Context, userID model.UserID, entryID model.UserGameID, patch model.UserGamePatch) (*model.UserGame, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, userID, entryID); err != nil {
		return nil, err
	}

	ug, dirty, err := s.userGames.Update(ctx, entryID, patch)
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, dirty)
	return ug, nil
}

// RemoveEntry deletes one of the user's own entries
func (s *Service) RemoveEntry(ctx context.Context, userID model.UserID, entryID model.UserGameID) error {
	if _, err := s.owned(ctx, userID, entryID); err != nil {
		return err
	}
	return s.remove(ctx, entryID)
}

// RemoveGame takes a game off the user's list
func (s *Service) RemoveGame(ctx context.Context, userID model.UserID, gameID model.GameID) error {
	ug, err := s.userGames.GetByUserAndGame(ctx, userID, gameID)
	if err != nil {
		return err
	}
	return s.remove(ctx, ug.ID)
}

// RateGame sets the user's rating for a game, listing it as planned if it
// is not on their list yet.
func (s *Service) RateGame(ctx context.Context, userID model.UserID, gameID model.GameID, rating int) (*model.UserGame, error) {
	if !model.ValidRating(rating) {
		return nil, model.ErrInvalidRating
	}

	existing, err := s.userGames.GetByUserAndGame(ctx, userID, gameID)
	switch {
	case err == nil:
		return s.UpdateEntry(ctx, userID, existing.ID, model.UserGamePatch{Rating: &rating})
	case errors.Is(err, model.ErrUserGameNotFound):
		return s.UpsertEntry(ctx, userID, gameID, EntryInput{Status: model.StatusPlanned, Rating: &rating})
	default:
		return nil, err
	}
}

// ToggleFavorite flips the favourite flag of one of the user's entries
func (s *Service) ToggleFavorite(ctx context.Context, userID model.UserID, entryID model.UserGameID) (*model.UserGame, error) {
	return s.modifyOwned(ctx, userID, entryID, func(ug *model.UserGame) {
		ug.IsFavorite = !ug.IsFavorite
	})
}

// SetProgress records completion progress, clamped to 0..100. Reaching
// 100 marks the entry completed.
func (s *Service) SetProgress(ctx context.Context, userID model.UserID, entryID model.UserGameID, progress int) (*model.UserGame, error) {
	return s.modifyOwned(ctx, userID, entryID, func(ug *model.UserGame) {
		ug.SetProgress(progress, s.clock.Now())
	})
}

// List returns the user's entries joined with their games, most recently
// added first. An empty status matches every entry.
func (s *Service) List(ctx context.Context, userID model.UserID, status model.GameStatus) ([]Entry, error) {
	entries, err := s.userGames.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, ug := range entries {
		if status != "" && ug.Status != status {
			continue
		}
		e := Entry{UserGame: ug}
		g, err := s.games.GetByID(ctx, ug.GameID)
		switch {
		case err == nil:
			e.Game = g
		case !errors.Is(err, model.ErrGameNotFound):
			return nil, err
		}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b Entry) int {
		return b.DateAdded.Compare(a.DateAdded)
	})
	return out, nil
}

// Internals

func (s *Service) requireUserAndGame(ctx context.Context, userID model.UserID, gameID model.GameID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.games.GetByID(ctx, gameID); err != nil {
		return err
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID model.UserID, entryID model.UserGameID) (*model.UserGame, error) {
	ug, err := s.userGames.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if ug.UserID != userID {
		return nil, model.ErrNotOwner
	}
	return ug, nil
}

func (s *Service) modifyOwned(ctx context.Context, userID model.UserID, entryID model.UserGameID, fn func(*model.UserGame)) (*model.UserGame, error) {
	ug, dirty, err := s.userGames.Modify(ctx, entryID, func(ug *model.UserGame) error {
		if ug.UserID != userID {
			return model.ErrNotOwner
		}
		fn(ug)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, dirty)
	return ug, nil
}

func (s *Service) remove(ctx context.Context, entryID model.UserGameID) error {
	removed, dirty, err := s.userGames.Delete(ctx, entryID)
	if err != nil {
		return err
	}
	if !removed {
		return model.ErrUserGameNotFound
	}

	s.recompute(ctx, dirty)
	return nil
}

// recompute runs the aggregate engine after a mutation. The mutation has
// already been persisted, so a failure here only leaves aggregates stale
// until the next recompute; the engine logs it.
func (s *Service) recompute(ctx context.Context, dirty model.Dirty) {
	if err := s.engine.Apply(ctx, dirty); err != nil {
		s.logger.Warn("aggregates left stale after list change",
			slog.String("error", err.Error()),
		)
	}
}

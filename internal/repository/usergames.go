package repository

import (
	"context"
	"time"

	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/dependencies/identity"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/storage"
)

// UserGames is the repository for list entries. Every mutation returns the
// user and game whose aggregates it made stale.
type UserGames struct {
	records *storage.Collection[model.UserGame]
	ids     identity.Generator
	clock   clock.Clock
}

// NewUserGames creates a UserGames repository over records
func NewUserGames(records *storage.Collection[model.UserGame], ids identity.Generator, clk clock.Clock) *UserGames {
	return &UserGames{records: records, ids: ids, clock: clk}
}

// GetByID returns the entry with the given id
func (r *UserGames) GetByID(ctx context.Context, id model.UserGameID) (*model.UserGame, error) {
	ug, ok, err := r.records.FindByID(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrUserGameNotFound
	}
	return &ug, nil
}

// GetByUserAndGame returns the user's entry for a game
func (r *UserGames) GetByUserAndGame(ctx context.Context, userID model.UserID, gameID model.GameID) (*model.UserGame, error) {
	ug, ok, err := r.records.FindOne(ctx, func(ug model.UserGame) bool {
		return ug.UserID == userID && ug.GameID == gameID
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrUserGameNotFound
	}
	return &ug, nil
}

// GetByUserID returns every entry in a user's list
func (r *UserGames) GetByUserID(ctx context.Context, userID model.UserID) ([]model.UserGame, error) {
	return r.records.FindAll(ctx, func(ug model.UserGame) bool { return ug.UserID == userID })
}

// GetByGameID returns every user's entry for a game
func (r *UserGames) GetByGameID(ctx context.Context, gameID model.GameID) ([]model.UserGame, error) {
	return r.records.FindAll(ctx, func(ug model.UserGame) bool { return ug.GameID == gameID })
}

// List returns every entry in stored order
func (r *UserGames) List(ctx context.Context) ([]model.UserGame, error) {
	return r.records.LoadAll(ctx)
}

// Create stores a new entry. Status defaults to planned and the side
// effects of entering the initial status are applied. Uniqueness of
// (user, game) is not checked; see CreateUnique.
func (r *UserGames) Create(ctx context.Context, n model.NewUserGame) (*model.UserGame, model.Dirty, error) {
	ug := r.build(n)
	if err := r.records.Insert(ctx, ug); err != nil {
		return nil, model.Dirty{}, err
	}
	return &ug, model.DirtyFor(ug.UserID, ug.GameID), nil
}

// CreateUnique is Create with (user, game) uniqueness checked under the
// collection's writer lock
func (r *UserGames) CreateUnique(ctx context.Context, n model.NewUserGame) (*model.UserGame, model.Dirty, error) {
	ug := r.build(n)
	err := r.records.Mutate(ctx, func(entries []model.UserGame) ([]model.UserGame, error) {
		for _, existing := range entries {
			if existing.UserID == ug.UserID && existing.GameID == ug.GameID {
				return nil, model.ErrAlreadyInList
			}
		}
		return append(entries, ug), nil
	})
	if err != nil {
		return nil, model.Dirty{}, err
	}
	return &ug, model.DirtyFor(ug.UserID, ug.GameID), nil
}

// Update merges the fields of patch into the entry. A status change
// applies the side effects of entering the new status.
func (r *UserGames) Update(ctx context.Context, id model.UserGameID, patch model.UserGamePatch) (*model.UserGame, model.Dirty, error) {
	return r.Modify(ctx, id, func(ug *model.UserGame) error {
		applyUserGamePatch(ug, patch, r.clock.Now())
		return nil
	})
}

// Modify applies fn to the entry under the collection's writer lock
func (r *UserGames) Modify(ctx context.Context, id model.UserGameID, fn func(*model.UserGame) error) (*model.UserGame, model.Dirty, error) {
	ug, ok, err := r.records.Update(ctx, string(id), func(ug *model.UserGame) error {
		if err := fn(ug); err != nil {
			return err
		}
		ug.UpdatedAt = r.clock.Now()
		return nil
	})
	if !ok && err == nil {
		return nil, model.Dirty{}, model.ErrUserGameNotFound
	}
	if err != nil {
		return nil, model.Dirty{}, err
	}
	return &ug, model.DirtyFor(ug.UserID, ug.GameID), nil
}

// Delete removes the entry. The bool reports whether an entry was removed;
// the dirty set is empty when nothing was.
func (r *UserGames) Delete(ctx context.Context, id model.UserGameID) (bool, model.Dirty, error) {
	ug, ok, err := r.records.FindByID(ctx, string(id))
	if err != nil || !ok {
		return false, model.Dirty{}, err
	}
	removed, err := r.records.Delete(ctx, string(id))
	if err != nil || !removed {
		return false, model.Dirty{}, err
	}
	return true, model.DirtyFor(ug.UserID, ug.GameID), nil
}

func (r *UserGames) build(n model.NewUserGame) model.UserGame {
	now := r.clock.Now()
	status := n.Status
	if status == "" {
		status = model.StatusPlanned
	}
	ug := model.UserGame{
		ID:          model.UserGameID(r.ids.NewID()),
		UserID:      n.UserID,
		GameID:      n.GameID,
		Rating:      n.Rating,
		Platform:    n.Platform,
		HoursPlayed: n.HoursPlayed,
		Progress:    n.Progress,
		DateAdded:   now,
		IsFavorite:  n.IsFavorite,
		Notes:       n.Notes,
		Tags:        nonNil(n.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ug.EnterStatus(status, now)
	return ug
}

func applyUserGamePatch(ug *model.UserGame, p model.UserGamePatch, now time.Time) {
	if p.ClearRating {
		ug.Rating = nil
	} else if p.Rating != nil {
		rating := *p.Rating
		ug.Rating = &rating
	}
	if p.Platform != nil {
		ug.Platform = *p.Platform
	}
	if p.HoursPlayed != nil {
		ug.HoursPlayed = *p.HoursPlayed
	}
	if p.Progress != nil {
		ug.Progress = *p.Progress
	}
	if p.IsFavorite != nil {
		ug.IsFavorite = *p.IsFavorite
	}
	if p.Notes != nil {
		ug.Notes = *p.Notes
	}
	if p.Tags != nil {
		ug.Tags = p.Tags
	}
	// Status last so entering completed wins over a patched progress
	if p.Status != nil && *p.Status != ug.Status {
		ug.EnterStatus(*p.Status, now)
	}
}

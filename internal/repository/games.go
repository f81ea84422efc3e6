package repository

import (
	"context"
	"strings"

	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/dependencies/identity"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/storage"
)

// Games is the repository for catalog entries
type Games struct {
	records *storage.Collection[model.Game]
	ids     identity.Generator
	clock   clock.Clock
}

// NewGames creates a Games repository over records
func NewGames(records *storage.Collection[model.Game], ids identity.Generator, clk clock.Clock) *Games {
	return &Games{records: records, ids: ids, clock: clk}
}

// GetByID returns the game with the given id
func (r *Games) GetByID(ctx context.Context, id model.GameID) (*model.Game, error) {
	g, ok, err := r.records.FindByID(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return &g, nil
}

// GetByTitle looks a game up by title, ignoring case and surrounding space
func (r *Games) GetByTitle(ctx context.Context, title string) (*model.Game, error) {
	title = strings.TrimSpace(title)
	g, ok, err := r.records.FindOne(ctx, func(g model.Game) bool {
		return strings.EqualFold(g.Title, title)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return &g, nil
}

// List returns every game in stored order
func (r *Games) List(ctx context.Context) ([]model.Game, error) {
	return r.records.LoadAll(ctx)
}

// Count returns the number of games
func (r *Games) Count(ctx context.Context) (int, error) {
	return r.records.Count(ctx)
}

// Create stores a new game with zeroed ratings and stats
func (r *Games) Create(ctx context.Context, ng model.NewGame) (*model.Game, error) {
	now := r.clock.Now()
	g := model.Game{
		ID:          model.GameID(r.ids.NewID()),
		Title:       ng.Title,
		Description: ng.Description,
		Developer:   ng.Developer,
		Publisher:   ng.Publisher,
		ReleaseDate: ng.ReleaseDate,
		Genres:      nonNil(ng.Genres),
		Platforms:   nonNil(ng.Platforms),
		Tags:        nonNil(ng.Tags),
		Images:      ng.Images,
		Metadata:    ng.Metadata,
		Ratings:     model.ZeroRatings(),
		Stats:       model.GameStats{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	g.Images.Screenshots = nonNil(g.Images.Screenshots)

	if err := r.records.Insert(ctx, g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Update merges the descriptive fields of patch into the game.
// Ratings and stats are never touched here.
func (r *Games) Update(ctx context.Context, id model.GameID, patch model.GamePatch) (*model.Game, error) {
	return r.modify(ctx, id, func(g *model.Game) {
		applyGamePatch(g, patch)
	})
}

// SetAggregates overwrites the derived ratings and stats of a game
func (r *Games) SetAggregates(ctx context.Context, id model.GameID, ratings model.GameRatings, stats model.GameStats) error {
	_, err := r.modify(ctx, id, func(g *model.Game) {
		g.Ratings = ratings
		g.Stats = stats
	})
	return err
}

// Delete removes the game. It reports whether a game was removed.
func (r *Games) Delete(ctx context.Context, id model.GameID) (bool, error) {
	return r.records.Delete(ctx, string(id))
}

func (r *Games) modify(ctx context.Context, id model.GameID, fn func(*model.Game)) (*model.Game, error) {
	g, ok, err := r.records.Update(ctx, string(id), func(g *model.Game) error {
		fn(g)
		g.UpdatedAt = r.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return &g, nil
}

func applyGamePatch(g *model.Game, p model.GamePatch) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Developer != nil {
		g.Developer = *p.Developer
	}
	if p.Publisher != nil {
		g.Publisher = *p.Publisher
	}
	if p.ReleaseDate != nil {
		g.ReleaseDate = *p.ReleaseDate
	}
	if p.Genres != nil {
		g.Genres = p.Genres
	}
	if p.Platforms != nil {
		g.Platforms = p.Platforms
	}
	if p.Tags != nil {
		g.Tags = p.Tags
	}
	if p.Images != nil {
		g.Images = *p.Images
	}
	if p.Metadata != nil {
		g.Metadata = *p.Metadata
	}
}

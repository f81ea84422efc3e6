// Package repository provides typed access to the four catalog collections.
//
// Repositories stamp ids and timestamps, apply type defaults on create and
// merge partial updates. They do not validate field ranges; that is the
// caller's job. List-entry and review mutations report which users and
// games need their aggregates recomputed.
package repository

import (
	"log/slog"

	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/dependencies/identity"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/storage"
)

// Repositories bundles the repositories sharing one backend
type Repositories struct {
	Users     *Users
	Games     *Games
	UserGames *UserGames
	Reviews   *Reviews
}

// New creates all four repositories over backend
func New(
	backend storage.Backend,
	ids identity.Generator,
	clk clock.Clock,
	logger *slog.Logger,
	metrics *storage.Metrics,
) *Repositories {
	return &Repositories{
		Users: NewUsers(
			storage.NewCollection[model.User](storage.CollectionUsers, backend, logger, metrics), ids, clk),
		Games: NewGames(
			storage.NewCollection[model.Game](storage.CollectionGames, backend, logger, metrics), ids, clk),
		UserGames: NewUserGames(
			storage.NewCollection[model.UserGame](storage.CollectionUserGames, backend, logger, metrics), ids, clk),
		Reviews: NewReviews(
			storage.NewCollection[model.Review](storage.CollectionReviews, backend, logger, metrics), ids, clk),
	}
}

// Reload drops every cached collection so the next access rereads the backend
func (r *Repositories) Reload() {
	r.Users.records.Reload()
	r.Games.records.Reload()
	r.UserGames.records.Reload()
	r.Reviews.records.Reload()
}

// nonNil returns s, or an empty slice when s is nil, so stored arrays
// never encode as null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

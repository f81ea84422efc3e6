package aggregate

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
)

// DefaultParallelism bounds concurrent recomputes during RecomputeAll
const DefaultParallelism = 4

// Engine recomputes derived game and user aggregates from their
// dependents and writes them back. Recomputes are idempotent: running one
// twice with no intervening mutation writes identical ratings and stats.
type Engine struct {
	games     *repository.Games
	users     *repository.Users
	userGames *repository.UserGames
	reviews   *repository.Reviews
	logger    *slog.Logger
	metrics   *Metrics

	// Recomputes of the same entity are serialised so a write never
	// carries a read taken before an earlier write.
	gameLocks stripedLock
	userLocks stripedLock

	parallelism int
}

// New creates an aggregate engine over the catalog repositories
func New(repos *repository.Repositories, logger *slog.Logger, metrics *Metrics) *Engine {
	return &Engine{
		games:       repos.Games,
		users:       repos.Users,
		userGames:   repos.UserGames,
		reviews:     repos.Reviews,
		logger:      logger,
		metrics:     metrics,
		parallelism: DefaultParallelism,
	}
}

// SetParallelism changes how many recomputes RecomputeAll runs at once
func (e *Engine) SetParallelism(n int) {
	if n < 1 {
		n = 1
	}
	e.parallelism = n
}

// RecomputeGame rereads every list entry for the game and rewrites its
// ratings and stats. A missing game is a no-op.
func (e *Engine) RecomputeGame(ctx context.Context, id model.GameID) error {
	start := time.Now()
	unlock := e.gameLocks.lock(string(id))
	defer unlock()

	entries, err := e.userGames.GetByGameID(ctx, id)
	if err != nil {
		e.metrics.observe("game", start, "error")
		return fmt.Errorf("recompute game %s: %w", id, err)
	}

	ratings, stats := ComputeGame(entries)
	err = e.games.SetAggregates(ctx, id, ratings, stats)
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		e.metrics.observe("game", start, "skipped")
		return nil
	case err != nil:
		e.metrics.observe("game", start, "error")
		return fmt.Errorf("recompute game %s: %w", id, err)
	}

	e.metrics.observe("game", start, "ok")
	return nil
}

// RecomputeUser rereads the user's list entries and active reviews and
// rewrites their stats. A missing user is a no-op.
func (e *Engine) RecomputeUser(ctx context.Context, id model.UserID) error {
	start := time.Now()
	unlock := e.userLocks.lock(string(id))
	defer unlock()

	entries, err := e.userGames.GetByUserID(ctx, id)
	if err != nil {
		e.metrics.observe("user", start, "error")
		return fmt.Errorf("recompute user %s: %w", id, err)
	}
	reviews, err := e.reviews.GetByUserID(ctx, id)
	if err != nil {
		e.metrics.observe("user", start, "error")
		return fmt.Errorf("recompute user %s: %w", id, err)
	}

	err = e.users.SetStats(ctx, id, ComputeUser(entries, reviews))
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		e.metrics.observe("user", start, "skipped")
		return nil
	case err != nil:
		e.metrics.observe("user", start, "error")
		return fmt.Errorf("recompute user %s: %w", id, err)
	}

	e.metrics.observe("user", start, "ok")
	return nil
}

// Apply recomputes everything named in dirty. It runs after every list
// entry and review mutation. Every entity is attempted even if an earlier
// one fails; the failures are logged and returned joined.
func (e *Engine) Apply(ctx context.Context, dirty model.Dirty) error {
	var errs []error
	for _, id := range dirty.Games {
		if err := e.RecomputeGame(ctx, id); err != nil {
			e.logger.Error("failed to recompute game aggregates",
				slog.String("game_id", string(id)),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	for _, id := range dirty.Users {
		if err := e.RecomputeUser(ctx, id); err != nil {
			e.logger.Error("failed to recompute user stats",
				slog.String("user_id", string(id)),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary counts the entities a RecomputeAll pass covered
type Summary struct {
	Games int `json:"games"`
	Users int `json:"users"`
}

// RecomputeAll rebuilds the aggregates of every game and user. It repairs
// aggregates left stale by a failure between a mutation and its recompute.
func (e *Engine) RecomputeAll(ctx context.Context) (Summary, error) {
	games, err := e.games.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	users, err := e.users.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for _, game := range games {
		g.Go(func() error { return e.RecomputeGame(gctx, game.ID) })
	}
	for _, user := range users {
		g.Go(func() error { return e.RecomputeUser(gctx, user.ID) })
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Games: len(games), Users: len(users)}
	e.logger.Info("recomputed all aggregates",
		slog.Int("games", summary.Games),
		slog.Int("users", summary.Users),
	)
	return summary, nil
}

// stripedLock maps keys onto a fixed set of mutexes
type stripedLock [64]sync.Mutex

func (s *stripedLock) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &s[h.Sum32()%uint32(len(s))]
	m.Lock()
	return m.Unlock
}

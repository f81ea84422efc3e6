package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshelf/internal/dependencies/mocks"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
	"github.com/mcoot/gameshelf/internal/storage"
	"github.com/mcoot/gameshelf/internal/storage/memory"
	"github.com/mcoot/gameshelf/internal/testutil"
)

type EngineSuite struct {
	suite.Suite
	backend *memory.Storage
	ids     *mocks.MockIdentity
	repos   *repository.Repositories
	engine  *Engine
	ctx     context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.backend = memory.New()
	s.ids = mocks.NewMockIdentity()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	logger := testutil.NopLogger()
	s.repos = repository.New(s.backend, s.ids, clk, logger, nil)
	s.engine = New(s.repos, logger, NewMetrics(prometheus.NewRegistry()))
	s.ctx = context.Background()

	s.ids.QueueIDs("g1", "u1", "u2", "u3")
	_, err := s.repos.Games.Create(s.ctx, model.NewGame{Title: "Dark Souls"})
	s.Require().NoError(err)
	for _, name := range []string{"ann", "ben", "cat"} {
		_, err := s.repos.Users.Create(s.ctx, model.NewUser{Username: name, Email: name + "@example.com"})
		s.Require().NoError(err)
	}
}

func (s *EngineSuite) addEntry(userID model.UserID, status model.GameStatus, rating int, hours float64) model.Dirty {
	n := model.NewUserGame{UserID: userID, GameID: "g1", Status: status, HoursPlayed: hours}
	if rating > 0 {
		n.Rating = &rating
	}
	_, dirty, err := s.repos.UserGames.Create(s.ctx, n)
	s.Require().NoError(err)
	return dirty
}

func (s *EngineSuite) game() *model.Game {
	g, err := s.repos.Games.GetByID(s.ctx, "g1")
	s.Require().NoError(err)
	return g
}

// Game recompute tests

func (s *EngineSuite) TestGameWithoutEntriesIsZero() {
	s.Require().NoError(s.engine.RecomputeGame(s.ctx, "g1"))

	g := s.game()
	s.Equal(model.ZeroRatings(), g.Ratings)
	s.Equal(model.GameStats{}, g.Stats)
}

func (s *EngineSuite) TestGameAggregatesFromEntries() {
	s.addEntry("u1", model.StatusCompleted, 5, 40)
	s.addEntry("u2", model.StatusCompleted, 5, 0)
	s.addEntry("u3", model.StatusPlaying, 3, 20)

	s.Require().NoError(s.engine.RecomputeGame(s.ctx, "g1"))

	g := s.game()
	s.InDelta(4.3333, g.Ratings.Average, 1e-3)
	s.Equal(3, g.Ratings.Count)
	s.Equal(map[int]int{1: 0, 2: 0, 3: 1, 4: 0, 5: 2}, g.Ratings.Distribution)
	s.Equal(3, g.Stats.TotalPlayers)
	s.InDelta(66.67, g.Stats.CompletionRate, 1e-2)
	s.InDelta(30.0, g.Stats.AveragePlaytime, 1e-9)
}

func (s *EngineSuite) TestDeletingSoleEntryZeroesAggregates() {
	s.ids.QueueIDs("ug1")
	dirty := s.addEntry("u1", model.StatusCompleted, 4, 12)
	s.Require().NoError(s.engine.Apply(s.ctx, dirty))
	s.Equal(1, s.game().Ratings.Count)

	removed, dirty, err := s.repos.UserGames.Delete(s.ctx, "ug1")
	s.Require().NoError(err)
	s.Require().True(removed)
	s.Require().NoError(s.engine.Apply(s.ctx, dirty))

	g := s.game()
	s.Equal(model.ZeroRatings(), g.Ratings)
	s.Equal(model.GameStats{}, g.Stats)

	u, err := s.repos.Users.GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(model.UserStats{}, u.Stats)
}

func (s *EngineSuite) TestRecomputeIsIdempotent() {
	s.addEntry("u1", model.StatusCompleted, 5, 40)
	s.addEntry("u2", model.StatusDropped, 2, 3.5)

	s.Require().NoError(s.engine.RecomputeGame(s.ctx, "g1"))
	first := s.game()
	s.Require().NoError(s.engine.RecomputeGame(s.ctx, "g1"))
	second := s.game()

	a, _ := json.Marshal([]any{first.Ratings, first.Stats})
	b, _ := json.Marshal([]any{second.Ratings, second.Stats})
	s.Equal(string(a), string(b))
}

func (s *EngineSuite) TestMissingEntitiesAreNoOps() {
	s.NoError(s.engine.RecomputeGame(s.ctx, "no-such-game"))
	s.NoError(s.engine.RecomputeUser(s.ctx, "no-such-user"))
}

// User recompute tests

func (s *EngineSuite) TestUserStatsCountOnlyActiveReviews() {
	s.addEntry("u1", model.StatusCompleted, 4, 10)
	s.ids.QueueIDs("r1")
	_, _, err := s.repos.Reviews.Create(s.ctx, model.NewReview{UserID: "u1", GameID: "g1", Rating: 4})
	s.Require().NoError(err)
	s.ids.QueueIDs("r2")
	_, _, err = s.repos.Reviews.Create(s.ctx, model.NewReview{UserID: "u1", GameID: "g2", Rating: 2})
	s.Require().NoError(err)
	_, _, err = s.repos.Reviews.Update(s.ctx, "r2", model.ReviewPatch{Status: ptrStatus(model.ReviewDeleted)})
	s.Require().NoError(err)

	s.Require().NoError(s.engine.RecomputeUser(s.ctx, "u1"))

	u, err := s.repos.Users.GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(1, u.Stats.ReviewsWritten)
	s.Equal(1, u.Stats.TotalGames)
	s.Equal(1, u.Stats.CompletedGames)
	s.Equal(10.0, u.Stats.TotalHours)
	s.Equal(4.0, u.Stats.AverageRating)
}

// Apply tests

func (s *EngineSuite) TestApplyRecomputesGameAndUser() {
	dirty := s.addEntry("u2", model.StatusPlaying, 3, 5)

	s.Require().NoError(s.engine.Apply(s.ctx, dirty))

	s.Equal(1, s.game().Ratings.Count)
	u, _ := s.repos.Users.GetByID(s.ctx, "u2")
	s.Equal(1, u.Stats.CurrentlyPlaying)
}

func (s *EngineSuite) TestApplyReportsUnreadableStorage() {
	dirty := s.addEntry("u1", model.StatusPlaying, 3, 5)
	s.repos.Reload()
	s.backend.FailLoads(errors.New("disk unreadable"))

	err := s.engine.Apply(s.ctx, dirty)
	s.ErrorIs(err, storage.ErrIOFailure)

	// Nothing was written from the unreadable state
	s.backend.FailLoads(nil)
	s.repos.Reload()
	s.Equal(0, s.game().Ratings.Count)
}

// RecomputeAll tests

func (s *EngineSuite) TestRecomputeAllRepairsStaleAggregates() {
	// Entries written without triggering the engine leave aggregates stale
	s.addEntry("u1", model.StatusCompleted, 5, 1)
	s.addEntry("u2", model.StatusCompleted, 1, 1)
	s.Equal(0, s.game().Ratings.Count)

	s.engine.SetParallelism(2)
	summary, err := s.engine.RecomputeAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(Summary{Games: 1, Users: 3}, summary)

	g := s.game()
	s.Equal(2, g.Ratings.Count)
	s.Equal(3.0, g.Ratings.Average)
	s.Equal(100.0, g.Stats.CompletionRate)
}

func ptrStatus(s model.ReviewStatus) *model.ReviewStatus {
	return &s
}

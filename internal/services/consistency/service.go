// Package consistency audits the stored catalog for broken invariants:
// derived aggregates that disagree with their sources, duplicate list
// entries or reviews, lopsided follow relationships and dangling
// references. It only reports; repairs go through the aggregate engine.
package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mcoot/gameshelf/internal/aggregate"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
)

// Kind classifies an issue
type Kind string

const (
	KindDistribution    Kind = "distribution_mismatch"
	KindHelpfulVotes    Kind = "helpful_count_mismatch"
	KindDuplicateEntry  Kind = "duplicate_list_entry"
	KindDuplicateReview Kind = "duplicate_active_review"
	KindFollowAsymmetry Kind = "follow_asymmetry"
	KindStaleGame       Kind = "stale_game_aggregates"
	KindStaleUser       Kind = "stale_user_stats"
	KindDanglingRef     Kind = "dangling_reference"
)

// Issue is one broken invariant
type Issue struct {
	Kind   Kind   `json:"kind"`
	ID     string `json:"id"`
	Detail string `json:"detail"`
}

// Report is the result of a verification pass
type Report struct {
	Users     int     `json:"users"`
	Games     int     `json:"games"`
	UserGames int     `json:"userGames"`
	Reviews   int     `json:"reviews"`
	Issues    []Issue `json:"issues"`
}

// OK reports whether no issues were found
func (r Report) OK() bool {
	return len(r.Issues) == 0
}

// Count returns the number of issues of a kind
func (r Report) Count(kind Kind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// Service verifies catalog consistency
type Service struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// New creates a new consistency service
func New(repos *repository.Repositories, logger *slog.Logger) *Service {
	return &Service{repos: repos, logger: logger}
}

type snapshot struct {
	users     []model.User
	games     []model.Game
	userGames []model.UserGame
	reviews   []model.Review
}

// Verify reads every collection and checks it. An unreadable collection
// is an error rather than an empty one, so a storage failure is never
// reported as a clean catalog.
func (s *Service) Verify(ctx context.Context) (Report, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Users:     len(snap.users),
		Games:     len(snap.games),
		UserGames: len(snap.userGames),
		Reviews:   len(snap.reviews),
		Issues:    []Issue{},
	}
	v := &verifier{snap: snap, report: &report}
	v.checkGames()
	v.checkUsers()
	v.checkEntries()
	v.checkReviews()

	if report.OK() {
		s.logger.Info("catalog verified", slog.Int("games", report.Games), slog.Int("users", report.Users))
	} else {
		s.logger.Warn("catalog has consistency issues", slog.Int("issues", len(report.Issues)))
	}
	return report, nil
}

func (s *Service) load(ctx context.Context) (snapshot, error) {
	var snap snapshot
	var err error
	if snap.users, err = s.repos.Users.List(ctx); err != nil {
		return snapshot{}, fmt.Errorf("verify: %w", err)
	}
	if snap.games, err = s.repos.Games.List(ctx); err != nil {
		return snapshot{}, fmt.Errorf("verify: %w", err)
	}
	if snap.userGames, err = s.repos.UserGames.List(ctx); err != nil {
		return snapshot{}, fmt.Errorf("verify: %w", err)
	}
	if snap.reviews, err = s.repos.Reviews.List(ctx); err != nil {
		return snapshot{}, fmt.Errorf("verify: %w", err)
	}
	return snap, nil
}

type verifier struct {
	snap   snapshot
	report *Report
}

func (v *verifier) add(kind Kind, id, format string, args ...any) {
	v.report.Issues = append(v.report.Issues, Issue{Kind: kind, ID: id, Detail: fmt.Sprintf(format, args...)})
}

func (v *verifier) checkGames() {
	entriesByGame := make(map[model.GameID][]model.UserGame)
	for _, ug := range v.snap.userGames {
		entriesByGame[ug.GameID] = append(entriesByGame[ug.GameID], ug)
	}

	for _, g := range v.snap.games {
		if total := g.Ratings.DistributionTotal(); total != g.Ratings.Count {
			v.add(KindDistribution, string(g.ID), "distribution sums to %d but count is %d", total, g.Ratings.Count)
		}

		ratings, stats := aggregate.ComputeGame(entriesByGame[g.ID])
		if !ratingsEqual(g.Ratings, ratings) || !gameStatsEqual(g.Stats, stats) {
			v.add(KindStaleGame, string(g.ID), "stored %d ratings averaging %.2f, expected %d averaging %.2f",
				g.Ratings.Count, g.Ratings.Average, ratings.Count, ratings.Average)
		}
	}
}

func (v *verifier) checkUsers() {
	byID := make(map[model.UserID]*model.User, len(v.snap.users))
	for i := range v.snap.users {
		byID[v.snap.users[i].ID] = &v.snap.users[i]
	}
	entriesByUser := make(map[model.UserID][]model.UserGame)
	for _, ug := range v.snap.userGames {
		entriesByUser[ug.UserID] = append(entriesByUser[ug.UserID], ug)
	}
	reviewsByUser := make(map[model.UserID][]model.Review)
	for _, rev := range v.snap.reviews {
		if rev.IsActive() {
			reviewsByUser[rev.UserID] = append(reviewsByUser[rev.UserID], rev)
		}
	}

	for _, u := range v.snap.users {
		for _, id := range u.Following {
			target, ok := byID[id]
			if !ok {
				v.add(KindDanglingRef, string(u.ID), "follows missing user %s", id)
				continue
			}
			if !target.HasFollower(u.ID) {
				v.add(KindFollowAsymmetry, string(u.ID), "follows %s but is not in their followers", id)
			}
		}
		for _, id := range u.Followers {
			follower, ok := byID[id]
			if !ok {
				v.add(KindDanglingRef, string(u.ID), "followed by missing user %s", id)
				continue
			}
			if !follower.IsFollowing(u.ID) {
				v.add(KindFollowAsymmetry, string(u.ID), "lists follower %s who does not follow back", id)
			}
		}

		expected := aggregate.ComputeUser(entriesByUser[u.ID], reviewsByUser[u.ID])
		if !userStatsEqual(u.Stats, expected) {
			v.add(KindStaleUser, string(u.ID), "stored %d games and %d reviews, expected %d and %d",
				u.Stats.TotalGames, u.Stats.ReviewsWritten, expected.TotalGames, expected.ReviewsWritten)
		}
	}
}

func (v *verifier) checkEntries() {
	users, games := v.ids()
	type pair struct {
		user model.UserID
		game model.GameID
	}
	seen := make(map[pair]model.UserGameID)

	for _, ug := range v.snap.userGames {
		key := pair{ug.UserID, ug.GameID}
		if first, ok := seen[key]; ok {
			v.add(KindDuplicateEntry, string(ug.ID), "duplicates entry %s for user %s and game %s", first, ug.UserID, ug.GameID)
		} else {
			seen[key] = ug.ID
		}
		if !users[ug.UserID] {
			v.add(KindDanglingRef, string(ug.ID), "list entry of missing user %s", ug.UserID)
		}
		if !games[ug.GameID] {
			v.add(KindDanglingRef, string(ug.ID), "list entry for missing game %s", ug.GameID)
		}
	}
}

func (v *verifier) checkReviews() {
	users, games := v.ids()
	type pair struct {
		user model.UserID
		game model.GameID
	}
	seen := make(map[pair]model.ReviewID)

	for _, rev := range v.snap.reviews {
		if rev.HelpfulVotes.Count != len(rev.HelpfulVotes.Users) {
			v.add(KindHelpfulVotes, string(rev.ID), "count is %d but %d users voted",
				rev.HelpfulVotes.Count, len(rev.HelpfulVotes.Users))
		}
		if rev.IsActive() {
			key := pair{rev.UserID, rev.GameID}
			if first, ok := seen[key]; ok {
				v.add(KindDuplicateReview, string(rev.ID), "duplicates active review %s", first)
			} else {
				seen[key] = rev.ID
			}
		}
		if !users[rev.UserID] {
			v.add(KindDanglingRef, string(rev.ID), "review by missing user %s", rev.UserID)
		}
		if !games[rev.GameID] {
			v.add(KindDanglingRef, string(rev.ID), "review of missing game %s", rev.GameID)
		}
	}
}

func (v *verifier) ids() (map[model.UserID]bool, map[model.GameID]bool) {
	users := make(map[model.UserID]bool, len(v.snap.users))
	for _, u := range v.snap.users {
		users[u.ID] = true
	}
	games := make(map[model.GameID]bool, len(v.snap.games))
	for _, g := range v.snap.games {
		games[g.ID] = true
	}
	return users, games
}

// Comparisons

const epsilon = 1e-9

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

func ratingsEqual(a, b model.GameRatings) bool {
	if a.Count != b.Count || !floatEqual(a.Average, b.Average) {
		return false
	}
	for r := model.MinRating; r <= model.MaxRating; r++ {
		if a.Distribution[r] != b.Distribution[r] {
			return false
		}
	}
	return len(a.Distribution) == len(b.Distribution)
}

func gameStatsEqual(a, b model.GameStats) bool {
	return a.TotalPlayers == b.TotalPlayers &&
		floatEqual(a.AveragePlaytime, b.AveragePlaytime) &&
		floatEqual(a.CompletionRate, b.CompletionRate)
}

func userStatsEqual(a, b model.UserStats) bool {
	return a.TotalGames == b.TotalGames &&
		a.CompletedGames == b.CompletedGames &&
		a.CurrentlyPlaying == b.CurrentlyPlaying &&
		a.ReviewsWritten == b.ReviewsWritten &&
		floatEqual(a.TotalHours, b.TotalHours) &&
		floatEqual(a.AverageRating, b.AverageRating)
}

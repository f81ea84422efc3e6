package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/storage"
)

type UsersSuite struct {
	repoSuite
}

func TestUsersSuite(t *testing.T) {
	suite.Run(t, new(UsersSuite))
}

func (s *UsersSuite) createAlice() *model.User {
	s.ids.QueueIDs("u-alice")
	u, err := s.repos.Users.Create(s.ctx, model.NewUser{
		Username:     "alice",
		Email:        "  Alice@Example.COM ",
		PasswordHash: "hash",
		DisplayName:  "Alice",
	})
	s.Require().NoError(err)
	return u
}

// Create tests

func (s *UsersSuite) TestCreateAppliesDefaults() {
	u := s.createAlice()

	s.Equal(model.UserID("u-alice"), u.ID)
	s.Equal("alice@example.com", u.Email)
	s.Equal(model.DefaultPreferences(), u.Preferences)
	s.Empty(u.Followers)
	s.NotNil(u.Followers)
	s.Empty(u.Following)
	s.Equal(model.UserStats{}, u.Stats)
	s.Equal(epoch, u.JoinDate)
	s.Equal(epoch, u.CreatedAt)
	s.Equal(epoch, u.UpdatedAt)
	s.False(u.IsVerified)
}

func (s *UsersSuite) TestCreateIsPersisted() {
	s.createAlice()

	raw := s.backend.Raw(storage.CollectionUsers)
	s.Require().Len(raw, 1)
	s.Contains(string(raw[0]), `"followers":[]`)
	s.Contains(string(raw[0]), `"email":"alice@example.com"`)
}

func (s *UsersSuite) TestCreateDoesNotCheckUniqueness() {
	s.createAlice()
	_, err := s.repos.Users.Create(s.ctx, model.NewUser{Username: "alice", Email: "alice@example.com"})
	s.NoError(err)
}

func (s *UsersSuite) TestCreateUniqueRejectsDuplicates() {
	s.createAlice()

	_, err := s.repos.Users.CreateUnique(s.ctx, model.NewUser{Username: "alice", Email: "other@example.com"})
	s.ErrorIs(err, model.ErrUsernameTaken)
	s.ErrorIs(err, model.ErrConstraintViolation)

	_, err = s.repos.Users.CreateUnique(s.ctx, model.NewUser{Username: "bob", Email: "ALICE@example.com"})
	s.ErrorIs(err, model.ErrEmailTaken)

	u, err := s.repos.Users.CreateUnique(s.ctx, model.NewUser{Username: "bob", Email: "bob@example.com"})
	s.Require().NoError(err)
	s.Equal("bob", u.Username)

	users, _ := s.repos.Users.List(s.ctx)
	s.Len(users, 2)
}

// Lookup tests

func (s *UsersSuite) TestGetByEmailIgnoresCase() {
	s.createAlice()

	u, err := s.repos.Users.GetByEmail(s.ctx, "ALICE@example.com")
	s.Require().NoError(err)
	s.Equal(model.UserID("u-alice"), u.ID)
}

func (s *UsersSuite) TestGetByUsername() {
	s.createAlice()

	u, err := s.repos.Users.GetByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Alice", u.DisplayName)

	_, err = s.repos.Users.GetByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *UsersSuite) TestGetByIDMissing() {
	_, err := s.repos.Users.GetByID(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *UsersSuite) TestGetByIDUnreadableStorage() {
	s.backend.FailLoads(errors.New("corrupt"))

	_, err := s.repos.Users.GetByID(s.ctx, "u-alice")
	s.ErrorIs(err, storage.ErrIOFailure)
}

// Update tests

func (s *UsersSuite) TestUpdateMergesOnlyGivenFields() {
	s.createAlice()
	s.clock.Advance(time.Hour)

	u, err := s.repos.Users.Update(s.ctx, "u-alice", model.UserPatch{
		Bio:   ptr("Plays roguelikes"),
		Email: ptr("NEW@example.com"),
	})
	s.Require().NoError(err)
	s.Equal("Plays roguelikes", u.Bio)
	s.Equal("new@example.com", u.Email)
	s.Equal("Alice", u.DisplayName)
	s.Equal(epoch, u.CreatedAt)
	s.Equal(epoch.Add(time.Hour), u.UpdatedAt)
}

func (s *UsersSuite) TestUpdateMissing() {
	_, err := s.repos.Users.Update(s.ctx, "missing", model.UserPatch{Bio: ptr("x")})
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *UsersSuite) TestSetStats() {
	s.createAlice()
	stats := model.UserStats{TotalGames: 3, CompletedGames: 1, AverageRating: 4.5}

	s.Require().NoError(s.repos.Users.SetStats(s.ctx, "u-alice", stats))

	u, _ := s.repos.Users.GetByID(s.ctx, "u-alice")
	s.Equal(stats, u.Stats)
}

// Delete tests

func (s *UsersSuite) TestDelete() {
	s.createAlice()

	removed, err := s.repos.Users.Delete(s.ctx, "u-alice")
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.repos.Users.Delete(s.ctx, "u-alice")
	s.Require().NoError(err)
	s.False(removed)
}

// Uniqueness-checked update tests

func (s *UsersSuite) TestUpdateUniqueRejectsTakenUsername() {
	s.createAlice()
	s.ids.QueueIDs("u-bob")
	_, err := s.repos.Users.Create(s.ctx, model.NewUser{Username: "bob", Email: "bob@example.com"})
	s.Require().NoError(err)

	_, err = s.repos.Users.UpdateUnique(s.ctx, "u-bob", model.UserPatch{Username: ptr("alice")})
	s.ErrorIs(err, model.ErrUsernameTaken)

	_, err = s.repos.Users.UpdateUnique(s.ctx, "u-bob", model.UserPatch{Email: ptr("Alice@example.com")})
	s.ErrorIs(err, model.ErrEmailTaken)

	// Keeping your own values is not a conflict
	u, err := s.repos.Users.UpdateUnique(s.ctx, "u-bob", model.UserPatch{Username: ptr("bob"), Bio: ptr("hi")})
	s.Require().NoError(err)
	s.Equal("hi", u.Bio)

	_, err = s.repos.Users.UpdateUnique(s.ctx, "missing", model.UserPatch{})
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Follow tests

func (s *UsersSuite) TestToggleFollowIsSymmetric() {
	s.createAlice()
	s.ids.QueueIDs("u-bob")
	_, err := s.repos.Users.Create(s.ctx, model.NewUser{Username: "bob", Email: "bob@example.com"})
	s.Require().NoError(err)

	following, err := s.repos.Users.ToggleFollow(s.ctx, "u-alice", "u-bob")
	s.Require().NoError(err)
	s.True(following)

	alice, _ := s.repos.Users.GetByID(s.ctx, "u-alice")
	bob, _ := s.repos.Users.GetByID(s.ctx, "u-bob")
	s.Equal([]model.UserID{"u-bob"}, alice.Following)
	s.Equal([]model.UserID{"u-alice"}, bob.Followers)
	s.Empty(alice.Followers)

	following, err = s.repos.Users.ToggleFollow(s.ctx, "u-alice", "u-bob")
	s.Require().NoError(err)
	s.False(following)

	alice, _ = s.repos.Users.GetByID(s.ctx, "u-alice")
	bob, _ = s.repos.Users.GetByID(s.ctx, "u-bob")
	s.Empty(alice.Following)
	s.Empty(bob.Followers)
}

func (s *UsersSuite) TestToggleFollowRejectsSelfAndMissing() {
	s.createAlice()

	_, err := s.repos.Users.ToggleFollow(s.ctx, "u-alice", "u-alice")
	s.ErrorIs(err, model.ErrSelfAction)

	_, err = s.repos.Users.ToggleFollow(s.ctx, "u-alice", "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/dependencies/identity"
	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/storage"
)

// Users is the repository for catalog members
type Users struct {
	records *storage.Collection[model.User]
	ids     identity.Generator
	clock   clock.Clock
}

// NewUsers creates a Users repository over records
func NewUsers(records *storage.Collection[model.User], ids identity.Generator, clk clock.Clock) *Users {
	return &Users{records: records, ids: ids, clock: clk}
}

// NormalizeEmail is the stored form of an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByID returns the user with the given id
func (r *Users) GetByID(ctx context.Context, id model.UserID) (*model.User, error) {
	u, ok, err := r.records.FindByID(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

// GetByEmail looks a user up by email, ignoring case
func (r *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = NormalizeEmail(email)
	return r.findOne(ctx, func(u model.User) bool { return u.Email == email })
}

// GetByUsername looks a user up by exact username
func (r *Users) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, func(u model.User) bool { return u.Username == username })
}

// List returns every user in stored order
func (r *Users) List(ctx context.Context) ([]model.User, error) {
	return r.records.LoadAll(ctx)
}

// Create stores a new user with default preferences, empty follow sets and
// zero stats. Uniqueness is not checked; see CreateUnique.
func (r *Users) Create(ctx context.Context, nu model.NewUser) (*model.User, error) {
	u := r.build(nu)
	if err := r.records.Insert(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUnique is Create with username and email uniqueness checked under
// the collection's writer lock
func (r *Users) CreateUnique(ctx context.Context, nu model.NewUser) (*model.User, error) {
	u := r.build(nu)
	err := r.records.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		for _, existing := range users {
			if existing.Username == u.Username {
				return nil, model.ErrUsernameTaken
			}
			if existing.Email == u.Email {
				return nil, model.ErrEmailTaken
			}
		}
		return append(users, u), nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update merges the non-nil fields of patch into the user
func (r *Users) Update(ctx context.Context, id model.UserID, patch model.UserPatch) (*model.User, error) {
	return r.Modify(ctx, id, func(u *model.User) error {
		applyUserPatch(u, patch)
		return nil
	})
}

// UpdateUnique is Update with the new username or email checked against
// every other user under the collection's writer lock
func (r *Users) UpdateUnique(ctx context.Context, id model.UserID, patch model.UserPatch) (*model.User, error) {
	var updated *model.User
	err := r.records.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		pos := slices.IndexFunc(users, func(u model.User) bool { return u.ID == id })
		if pos < 0 {
			return nil, model.ErrUserNotFound
		}
		u := users[pos]
		applyUserPatch(&u, patch)
		for i, other := range users {
			if i == pos {
				continue
			}
			if other.Username == u.Username {
				return nil, model.ErrUsernameTaken
			}
			if other.Email == u.Email {
				return nil, model.ErrEmailTaken
			}
		}
		u.UpdatedAt = r.clock.Now()
		users[pos] = u
		updated = &u
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleFollow makes follower follow target, or unfollow if already
// following. Both sides are written in one collection write. It returns
// whether follower now follows target.
func (r *Users) ToggleFollow(ctx context.Context, followerID, targetID model.UserID) (bool, error) {
	if followerID == targetID {
		return false, model.ErrSelfAction
	}

	var following bool
	err := r.records.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		fi := slices.IndexFunc(users, func(u model.User) bool { return u.ID == followerID })
		ti := slices.IndexFunc(users, func(u model.User) bool { return u.ID == targetID })
		if fi < 0 || ti < 0 {
			return nil, model.ErrUserNotFound
		}

		now := r.clock.Now()
		follower, target := &users[fi], &users[ti]
		if follower.IsFollowing(targetID) {
			follower.Following = slices.DeleteFunc(follower.Following, func(id model.UserID) bool { return id == targetID })
			target.Followers = slices.DeleteFunc(target.Followers, func(id model.UserID) bool { return id == followerID })
			following = false
		} else {
			follower.Following = append(follower.Following, targetID)
			if !target.HasFollower(followerID) {
				target.Followers = append(target.Followers, followerID)
			}
			following = true
		}
		follower.UpdatedAt = now
		target.UpdatedAt = now
		return users, nil
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

// Modify applies fn to the user under the collection's writer lock.
// updatedAt is stamped after fn succeeds.
func (r *Users) Modify(ctx context.Context, id model.UserID, fn func(*model.User) error) (*model.User, error) {
	u, ok, err := r.records.Update(ctx, string(id), func(u *model.User) error {
		if err := fn(u); err != nil {
			return err
		}
		u.UpdatedAt = r.clock.Now()
		return nil
	})
	if !ok && err == nil {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetStats overwrites the derived stats of a user
func (r *Users) SetStats(ctx context.Context, id model.UserID, stats model.UserStats) error {
	_, err := r.Modify(ctx, id, func(u *model.User) error {
		u.Stats = stats
		return nil
	})
	return err
}

// Delete removes the user. It reports whether a user was removed.
func (r *Users) Delete(ctx context.Context, id model.UserID) (bool, error) {
	return r.records.Delete(ctx, string(id))
}

func (r *Users) findOne(ctx context.Context, pred func(model.User) bool) (*model.User, error) {
	u, ok, err := r.records.FindOne(ctx, pred)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r *Users) build(nu model.NewUser) model.User {
	now := r.clock.Now()
	prefs := model.DefaultPreferences()
	if nu.Preferences != nil {
		prefs = *nu.Preferences
	}
	return model.User{
		ID:           model.UserID(r.ids.NewID()),
		Username:     strings.TrimSpace(nu.Username),
		Email:        NormalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		DisplayName:  nu.DisplayName,
		Bio:          nu.Bio,
		Avatar:       nu.Avatar,
		Location:     nu.Location,
		JoinDate:     now,
		Preferences:  prefs,
		Followers:    []model.UserID{},
		Following:    []model.UserID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func applyUserPatch(u *model.User, p model.UserPatch) {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.IsVerified != nil {
		u.IsVerified = *p.IsVerified
	}
	if p.Preferences != nil {
		u.Preferences = *p.Preferences
	}
}

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
)

// Service manages user accounts and the follow graph. Credentials arrive
// already hashed; this service never handles plaintext passwords.
type Service struct {
	users  *repository.Users
	logger *slog.Logger
}

// New creates a new account service
func New(repos *repository.Repositories, logger *slog.Logger) *Service {
	return &Service{
		users:  repos.Users,
		logger: logger,
	}
}

// RegisterInput holds the fields of a new account
type RegisterInput struct {
	Username     string             `json:"username"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"passwordHash"`
	DisplayName  string             `json:"displayName"`
	Bio          string             `json:"bio"`
	Avatar       string             `json:"avatar"`
	Location     string             `json:"location"`
	Preferences  *model.Preferences `json:"preferences,omitempty"`
}

// Register creates a user. Usernames and emails are unique; emails are
// compared case-insensitively.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	user, err := s.users.CreateUnique(ctx, model.NewUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		DisplayName:  in.DisplayName,
		Bio:          in.Bio,
		Avatar:       in.Avatar,
		Location:     in.Location,
		Preferences:  in.Preferences,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", string(user.ID)),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Profile returns a user
func (s *Service) Profile(ctx context.Context, userID model.UserID) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes the user's own profile fields. Verification is
// not self-service and is ignored here.
func (s *Service) UpdateProfile(ctx context.Context, userID model.UserID, patch model.UserPatch) (*model.User, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	patch.IsVerified = nil
	return s.users.UpdateUnique(ctx, userID, patch)
}

// ToggleFollow follows or unfollows target and returns whether follower
// now follows them. Both users' lists change together.
func (s *Service) ToggleFollow(ctx context.Context, followerID, targetID model.UserID) (bool, error) {
	following, err := s.users.ToggleFollow(ctx, followerID, targetID)
	if err != nil {
		return false, err
	}

	s.logger.Debug("follow toggled",
		slog.String("follower_id", string(followerID)),
		slog.String("target_id", string(targetID)),
		slog.Bool("following", following),
	)
	return following, nil
}

// Followers returns the users following userID
func (s *Service) Followers(ctx context.Context, userID model.UserID) ([]model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, user.Followers)
}

// Following returns the users userID follows
func (s *Service) Following(ctx context.Context, userID model.UserID) ([]model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, user.Following)
}

// resolve looks up ids in order, skipping users that no longer exist
func (s *Service) resolve(ctx context.Context, ids []model.UserID) ([]model.User, error) {
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.GetByID(ctx, id)
		if errors.Is(err, model.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

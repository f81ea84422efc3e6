package account

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/gameshelf/internal/model"
)

const (
	minUsernameLength    = 3
	maxUsernameLength    = 30
	maxDisplayNameLength = 50
	maxBioLength         = 500
	maxLocationLength    = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateRegister(in RegisterInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username", model.ErrMissingField)
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("%w: email", model.ErrMissingField)
	}
	if in.PasswordHash == "" {
		return fmt.Errorf("%w: password hash", model.ErrMissingField)
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return fmt.Errorf("%w: display name", model.ErrMissingField)
	}
	return validateFields(&in.Username, &in.Email, &in.DisplayName, &in.Bio, &in.Location, in.Preferences)
}

func validatePatch(p model.UserPatch) error {
	if p.PasswordHash != nil && *p.PasswordHash == "" {
		return fmt.Errorf("%w: password hash", model.ErrMissingField)
	}
	if p.DisplayName != nil && strings.TrimSpace(*p.DisplayName) == "" {
		return fmt.Errorf("%w: display name", model.ErrMissingField)
	}
	return validateFields(p.Username, p.Email, p.DisplayName, p.Bio, p.Location, p.Preferences)
}

// validateFields checks every non-nil field
func validateFields(username, email, displayName, bio, location *string, prefs *model.Preferences) error {
	if username != nil {
		name := strings.TrimSpace(*username)
		n := utf8.RuneCountInString(name)
		if n < minUsernameLength || n > maxUsernameLength {
			return fmt.Errorf("%w: username must be %d to %d characters", model.ErrInvalidInput, minUsernameLength, maxUsernameLength)
		}
		if !usernamePattern.MatchString(name) {
			return fmt.Errorf("%w: username may only contain letters, numbers and underscores", model.ErrInvalidInput)
		}
	}
	if email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*email)); err != nil {
			return fmt.Errorf("%w: invalid email address", model.ErrInvalidInput)
		}
	}
	if err := maxLength("display name", displayName, maxDisplayNameLength); err != nil {
		return err
	}
	if err := maxLength("bio", bio, maxBioLength); err != nil {
		return err
	}
	if err := maxLength("location", location, maxLocationLength); err != nil {
		return err
	}
	if prefs != nil && !prefs.ProfileVisibility.Valid() {
		return fmt.Errorf("%w: unknown profile visibility", model.ErrInvalidInput)
	}
	return nil
}

func maxLength(field string, value *string, limit int) error {
	if value != nil && utf8.RuneCountInString(*value) > limit {
		return fmt.Errorf("%w: %s longer than %d characters", model.ErrInvalidInput, field, limit)
	}
	return nil
}

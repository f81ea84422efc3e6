package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/gameshelf/internal/model"
)

const (
	maxTitleLength       = 200
	minContentLength     = 10
	maxContentLength     = 2000
	maxDescriptionLength = 500
)

func validateCreate(in CreateInput) error {
	if !model.ValidRating(in.Rating) {
		return model.ErrInvalidRating
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content", model.ErrMissingField)
	}
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateContent(in.Content); err != nil {
		return err
	}
	if in.HoursPlayed < 0 {
		return model.ErrInvalidHours
	}
	return nil
}

func validatePatch(p model.ReviewPatch) error {
	if p.Rating != nil && !model.ValidRating(*p.Rating) {
		return model.ErrInvalidRating
	}
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Content != nil {
		if err := validateContent(*p.Content); err != nil {
			return err
		}
	}
	if p.HoursPlayed != nil && *p.HoursPlayed < 0 {
		return model.ErrInvalidHours
	}
	return nil
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(strings.TrimSpace(title)) > maxTitleLength {
		return fmt.Errorf("%w: title longer than %d characters", model.ErrInvalidInput, maxTitleLength)
	}
	return nil
}

func validateContent(content string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	if n < minContentLength || n > maxContentLength {
		return fmt.Errorf("%w: content must be %d to %d characters", model.ErrInvalidInput, minContentLength, maxContentLength)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(strings.TrimSpace(description)) > maxDescriptionLength {
		return fmt.Errorf("%w: description longer than %d characters", model.ErrInvalidInput, maxDescriptionLength)
	}
	return nil
}

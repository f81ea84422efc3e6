package library

import (
	"fmt"
	"unicode/utf8"

	"github.com/mcoot/gameshelf/internal/model"
)

const maxNotesLength = 1000

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return fmt.Errorf("%w: notes longer than %d characters", model.ErrInvalidInput, maxNotesLength)
	}
	return nil
}

func validateInput(in EntryInput) error {
	if in.Status != "" && !in.Status.Valid() {
		return model.ErrInvalidStatus
	}
	if in.Rating != nil && !model.ValidRating(*in.Rating) {
		return model.ErrInvalidRating
	}
	if in.HoursPlayed < 0 {
		return model.ErrInvalidHours
	}
	if in.Progress < model.MinProgress || in.Progress > model.MaxProgress {
		return model.ErrInvalidProgress
	}
	return validateNotes(in.Notes)
}

func validatePatch(p model.UserGamePatch) error {
	if p.Status != nil && !p.Status.Valid() {
		return model.ErrInvalidStatus
	}
	if p.Rating != nil && !p.ClearRating && !model.ValidRating(*p.Rating) {
		return model.ErrInvalidRating
	}
	if p.HoursPlayed != nil && *p.HoursPlayed < 0 {
		return model.ErrInvalidHours
	}
	if p.Progress != nil && (*p.Progress < model.MinProgress || *p.Progress > model.MaxProgress) {
		return model.ErrInvalidProgress
	}
	if p.Notes != nil {
		return validateNotes(*p.Notes)
	}
	return nil
}

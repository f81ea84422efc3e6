package model

import (
	"errors"
	"fmt"
)

// Error families. Callers match on these with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")
)

// Common errors used across the application
var (
	// Lookup errors
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrGameNotFound     = fmt.Errorf("game %w", ErrNotFound)
	ErrUserGameNotFound = fmt.Errorf("list entry %w", ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("review %w", ErrNotFound)

	// Uniqueness errors
	ErrUsernameTaken   = fmt.Errorf("%w: username is already taken", ErrConstraintViolation)
	ErrEmailTaken      = fmt.Errorf("%w: email is already registered", ErrConstraintViolation)
	ErrAlreadyInList   = fmt.Errorf("%w: game is already in the user's list", ErrConstraintViolation)
	ErrAlreadyReviewed = fmt.Errorf("%w: user has already reviewed this game", ErrConstraintViolation)
	ErrAlreadyReported = fmt.Errorf("%w: user has already reported this review", ErrConstraintViolation)

	// Field errors
	ErrInvalidRating       = fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	ErrInvalidStatus       = fmt.Errorf("%w: unknown status", ErrInvalidInput)
	ErrInvalidProgress     = fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidInput)
	ErrInvalidHours        = fmt.Errorf("%w: hours played cannot be negative", ErrInvalidInput)
	ErrInvalidReportReason = fmt.Errorf("%w: unknown report reason", ErrInvalidInput)
	ErrMissingField        = fmt.Errorf("%w: required field missing", ErrInvalidInput)

	// Permission errors
	ErrSelfAction = fmt.Errorf("%w: cannot perform this action on yourself", ErrForbidden)
	ErrNotOwner   = fmt.Errorf("%w: record belongs to another user", ErrForbidden)
)

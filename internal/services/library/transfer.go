package library

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/gameshelf/internal/model"
)

// Export returns the user's whole list joined with game info, newest first
func (s *Service) Export(ctx context.Context, userID model.UserID) ([]Entry, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.List(ctx, userID, "")
}

var csvHeader = []string{
	"title", "developer", "status", "rating", "platform",
	"hoursPlayed", "progress", "isFavorite", "dateAdded", "dateCompleted", "tags", "notes",
}

// ExportCSV writes the user's list as CSV with a header row
func (s *Service) ExportCSV(ctx context.Context, userID model.UserID, w io.Writer) error {
	entries, err := s.Export(ctx, userID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(csvRow(e)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(e Entry) []string {
	var title, developer string
	if e.Game != nil {
		title, developer = e.Game.Title, e.Game.Developer
	}
	rating := ""
	if r, ok := e.RatingValue(); ok {
		rating = strconv.Itoa(r)
	}
	completed := ""
	if e.DateCompleted != nil {
		completed = e.DateCompleted.Format(time.RFC3339)
	}
	return []string{
		title,
		developer,
		string(e.Status),
		rating,
		e.Platform,
		strconv.FormatFloat(e.HoursPlayed, 'f', -1, 64),
		strconv.Itoa(e.Progress),
		strconv.FormatBool(e.IsFavorite),
		e.DateAdded.Format(time.RFC3339),
		completed,
		strings.Join(e.Tags, ";"),
		e.Notes,
	}
}

// ImportItem is one game to import, matched to the catalog by title
type ImportItem struct {
	Title string `json:"title"`
	EntryInput
}

// ImportResult reports what an import did. Errors holds one message per
// item that could not be imported.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// Import adds each item to the user's list. Games already on the list are
// skipped; unknown titles and invalid items are reported and do not stop
// the rest of the import.
func (s *Service) Import(ctx context.Context, userID model.UserID, items []ImportItem) (ImportResult, error) {
	result := ImportResult{Errors: []string{}}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return result, err
	}

	for _, item := range items {
		game, err := s.games.GetByTitle(ctx, item.Title)
		if errors.Is(err, model.ErrGameNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("game %q not found", item.Title))
			continue
		}
		if err != nil {
			return result, err
		}

		_, err = s.AddToList(ctx, userID, game.ID, item.EntryInput)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, model.ErrAlreadyInList):
			result.Skipped++
		case errors.Is(err, model.ErrInvalidInput):
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Title, err))
		default:
			return result, err
		}
	}

	s.logger.Info("imported list entries",
		slog.String("user_id", string(userID)),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", len(result.Errors)),
	)
	return result, nil
}

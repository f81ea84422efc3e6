// Package seed populates an empty catalog with a fixed set of games.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/repository"
)

//go:embed games.json
var gamesJSON []byte

// Games returns the fixture catalog. Release dates are kept as written,
// including ones that are not real calendar dates.
func Games() ([]model.NewGame, error) {
	var games []model.NewGame
	if err := json.Unmarshal(gamesJSON, &games); err != nil {
		return nil, fmt.Errorf("decode seed games: %w", err)
	}
	return games, nil
}

// Catalog creates the fixture games when the catalog has none. It returns
// how many games were created. Aggregates start at zero like any new game.
func Catalog(ctx context.Context, games *repository.Games, logger *slog.Logger) (int, error) {
	n, err := games.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	if n > 0 {
		logger.Debug("catalog already populated, skipping seed", slog.Int("games", n))
		return 0, nil
	}

	fixtures, err := Games()
	if err != nil {
		return 0, err
	}
	for i, g := range fixtures {
		if _, err := games.Create(ctx, g); err != nil {
			return i, fmt.Errorf("seed game %q: %w", g.Title, err)
		}
	}

	logger.Info("seeded catalog", slog.Int("games", len(fixtures)))
	return len(fixtures), nil
}

package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameshelf/internal/api/response"
	"github.com/mcoot/gameshelf/internal/model"
)

func newRecomputeCmd() *cobra.Command {
	var gameID, userID string
	var local bool

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute derived aggregates",
		Long: `Recompute rebuilds game ratings, game stats and user stats from the
stored list entries and reviews. With no flags every game and user is
recomputed, which repairs aggregates left stale by an interrupted update.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID != "" && userID != "" {
				return errors.New("--game and --user are mutually exclusive")
			}
			if local {
				return recomputeLocal(cmd, gameID, userID)
			}

			out := outputFor(cmd)
			switch {
			case gameID != "":
				var result response.Recompute
				if err := client.Post(cmd.Context(), fmt.Sprintf("/api/v1/admin/recompute/games/%s", url.PathEscape(gameID)), nil, &result); err != nil {
					return err
				}
				out.Print(result)
			case userID != "":
				var result response.Recompute
				if err := client.Post(cmd.Context(), fmt.Sprintf("/api/v1/admin/recompute/users/%s", url.PathEscape(userID)), nil, &result); err != nil {
					return err
				}
				out.Print(result)
			default:
				var result response.RecomputeAll
				if err := client.Post(cmd.Context(), "/api/v1/admin/recompute", nil, &result); err != nil {
					return err
				}
				out.Print(result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gameID, "game", "", "Recompute a single game")
	cmd.Flags().StringVar(&userID, "user", "", "Recompute a single user")
	cmd.Flags().BoolVar(&local, "local", false, "Open storage directly instead of calling the server")

	return cmd
}

func recomputeLocal(cmd *cobra.Command, gameID, userID string) error {
	app, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	out := outputFor(cmd)
	switch {
	case gameID != "":
		if _, err := app.Repos.Games.GetByID(ctx, model.GameID(gameID)); err != nil {
			return err
		}
		if err := app.Engine.RecomputeGame(ctx, model.GameID(gameID)); err != nil {
			return err
		}
		out.Print(response.Recompute{Kind: "game", ID: gameID})
	case userID != "":
		if _, err := app.Repos.Users.GetByID(ctx, model.UserID(userID)); err != nil {
			return err
		}
		if err := app.Engine.RecomputeUser(ctx, model.UserID(userID)); err != nil {
			return err
		}
		out.Print(response.Recompute{Kind: "user", ID: userID})
	default:
		summary, err := app.Engine.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		out.Print(response.RecomputeAll{Games: summary.Games, Users: summary.Users})
	}
	return nil
}

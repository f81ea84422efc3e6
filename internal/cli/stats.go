package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameshelf/internal/api/response"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show derived aggregates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "game <id>",
		Short: "Show a game's ratings and play stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game

			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/games/%s", url.PathEscape(args[0])), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "user <id>",
		Short: "Show a user's stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UserStats

			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/users/%s/stats", url.PathEscape(args[0])), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameshelf/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the fixture catalog into empty storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := seed.Catalog(cmd.Context(), app.Repos.Games, app.Logger)
			if err != nil {
				return err
			}

			out := outputFor(cmd)
			if n == 0 {
				out.PrintMessage("Catalog already has games, nothing seeded")
				return nil
			}
			out.PrintMessage(fmt.Sprintf("Seeded %d games", n))
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameshelf/internal/api/response"
)

func newVerifyCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check stored data for broken invariants",
		Long: `Verify checks every rating distribution, helpful-vote count, follow
edge and uniqueness rule, and compares stored aggregates with freshly
computed ones. It exits non-zero when any issue is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Verify

			if local {
				app, cleanup, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer cleanup()

				report, err := app.Consistency.Verify(cmd.Context())
				if err != nil {
					return err
				}
				result = response.VerifyFromReport(report)
			} else if err := client.Get(cmd.Context(), "/api/v1/admin/verify", &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			if !result.OK {
				return fmt.Errorf("%d consistency issues found", len(result.Issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Open storage directly instead of calling the server")

	return cmd
}

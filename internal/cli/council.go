package cli

import (
	"context"
	"fmt"

	"github.com/relayforge/conductor/internal/runtime"
	"github.com/spf13/cobra"
)

var councilCmd = &cobra.Command{
	Use:   "council",
	Short: "Run the nightly proposal pipeline",
	Long: `Manually trigger one Council cycle: collect proposals, cross-
validate and dedupe them against the LLM gateway, then quota-dispatch
a batch of them to Forge. Blocks until the cycle finishes.`,
	Example: `  conductor council run`,
}

func init() {
	councilCmd.AddCommand(councilRunCmd)
}

var councilRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one Council cycle now",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtime.Build(appConfig)
		if err != nil {
			return err
		}

		report, err := rt.Council.Convene(context.Background())
		if err != nil {
			return fmt.Errorf("convening council: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "council cycle complete: %d/%d achieved (%d attempted of %d candidates)\n",
			report.Achieved, report.Target, report.TotalAttempted, report.PoolSize)
		return nil
	},
}

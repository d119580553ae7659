package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/runtime"
	"github.com/spf13/cobra"
)

var forgeCmd = &cobra.Command{
	Use:   "forge <mission-file>",
	Short: "Run a single mission through Forge",
	Long: `Run one mission directly through Forge's plan-approval and
refinement loop, bypassing Council entirely. mission-file is a JSON
document matching model.Mission ({"title", "description", "rationale",
"requires_repo", "confidence", "source"}).`,
	Example: `  conductor forge mission.json`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading mission file: %w", err)
		}

		var mission model.Mission
		if err := json.Unmarshal(data, &mission); err != nil {
			return fmt.Errorf("parsing mission file: %w", err)
		}
		if mission.Title == "" {
			return fmt.Errorf("mission file is missing a title")
		}

		rt, err := runtime.Build(appConfig)
		if err != nil {
			return err
		}

		result := rt.Forge.RunMission(context.Background(), mission)

		fmt.Fprintf(cmd.OutOrStdout(), "mission %q: %s\n", result.Title, result.Status)
		if result.PRURL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "pr: %s\n", result.PRURL)
		}
		if result.Reason != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "reason: %s\n", result.Reason)
		}
		return nil
	},
}

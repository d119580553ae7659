package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/relayforge/conductor/internal/config"
	"github.com/relayforge/conductor/internal/gitwrapper"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/staging"
	"github.com/spf13/cobra"
)

var stagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Inspect and decide on staged projects",
	Long: `List Forge-staged projects awaiting a merge/pending/reject
decision, show one in detail, or record a decision for it.`,
	Example: `  conductor staged list
  conductor staged show <id>
  conductor staged decide <id> merge
  conductor staged decide <id> reject --reason "not useful"`,
}

func init() {
	stagedCmd.AddCommand(stagedListCmd)
	stagedCmd.AddCommand(stagedShowCmd)
	stagedCmd.AddCommand(stagedDecideCmd)

	stagedDecideCmd.Flags().StringVar(&decideReason, "reason", "", "Reason recorded with a reject decision")
}

var decideReason string

// stagedStore opens the staging Store this command's config points
// at, using the real GitHub-backed git wrapper.
func stagedStore() *staging.Store {
	return staging.New(config.ExpandHome(appConfig.Memory.RootDir)+"/staging", gitwrapper.NewGitHubClient(appConfig.GitHub.Token))
}

var stagedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staged projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := stagedStore().ListStagedProjects()
		if err != nil {
			return fmt.Errorf("listing staged projects: %w", err)
		}
		if len(projects) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No staged projects.")
			return nil
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cellStyle := lipgloss.NewStyle().Padding(0, 1)

		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{p.ID, p.Title, string(p.Status), p.PRURL})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "TITLE", "STATUS", "PR").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var stagedShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a staged project's detail and diff",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := stagedStore()
		proj, err := store.GetProject(args[0])
		if err != nil {
			return fmt.Errorf("project not found: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n%s\nstatus: %s  pr: %s\n\n",
			proj.Title, proj.ID, proj.Description, proj.Status, proj.PRURL)

		diff, err := store.GetProjectDiff(args[0])
		if err == nil && diff != "" {
			fmt.Fprintln(cmd.OutOrStdout(), diff)
		}
		return nil
	},
}

var stagedDecideCmd = &cobra.Command{
	Use:   "decide <id> <merge|pending|reject>",
	Short: "Record a decision for a staged project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, action := args[0], model.DecisionAction(strings.ToUpper(args[1]))
		store := stagedStore()
		ctx := context.Background()

		switch action {
		case model.DecisionMerge:
			if err := store.AcceptProject(ctx, id); err != nil {
				return err
			}
		case model.DecisionPending:
			if err := store.SetPending(id); err != nil {
				return err
			}
		case model.DecisionReject:
			if err := store.RejectProject(ctx, id, decideReason); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown action %q: must be merge, pending, or reject", action)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, action)
		return nil
	},
}

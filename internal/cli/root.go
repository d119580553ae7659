package cli

import (
	"fmt"
	"os"

	"github.com/relayforge/conductor/internal/config"
	"github.com/relayforge/conductor/internal/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	verbose   bool
	appConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:   "conductor",
		Short: "Autonomous coding-agent orchestrator",
		Long: `Conductor runs three cooperating subsystems against a coding-agent
backend: the Council proposes and quota-dispatches missions overnight,
Forge drives each mission through plan approval and iterative PR
refinement, and Heart watches every in-flight session for review
feedback, sandbox failures, and its own confidence in the result.

Run 'conductor <command> --help' for details on any subcommand.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose)
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	}

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(councilCmd)
	rootCmd.AddCommand(forgeCmd)
	rootCmd.AddCommand(stagedCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	return err
}

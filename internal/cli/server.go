package cli

import (
	"context"
	"fmt"

	"github.com/relayforge/conductor/internal/daemon"
	"github.com/relayforge/conductor/internal/runtime"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the conductor daemon",
	Long: `Start, stop, and manage the conductor background daemon.

The daemon runs Heart's watchdog loop, Council's nightly pipeline,
the Harvester's refresh scheduler, and the HTTP decision surface all
together. It can be run in the foreground for debugging or installed
as a systemd user service for persistent operation.`,
	Example: `  conductor server start
  conductor server start --foreground --port 9090
  conductor server status
  conductor server stop`,
}

var foregroundFlag bool
var portFlag int

func init() {
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStopCmd)
	serverCmd.AddCommand(serverStatusCmd)
	serverCmd.AddCommand(serverInstallCmd)
	serverCmd.AddCommand(serverLogsCmd)

	serverStartCmd.Flags().BoolVar(&foregroundFlag, "foreground", false, "Run in foreground (don't daemonize)")
	serverStartCmd.Flags().IntVar(&portFlag, "port", 0, "HTTP decision-surface port (default from config or 4098)")
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the conductor daemon",
	Long: `Start the conductor daemon process.

By default the daemon forks into the background. Use --foreground
to run in the current terminal (useful for debugging). The port
defaults to the config value or 4098.`,
	Example: `  conductor server start
  conductor server start --foreground
  conductor server start --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if portFlag > 0 {
			appConfig.Server.Port = portFlag
		}
		if appConfig.Server.Port == 0 {
			appConfig.Server.Port = 4098
		}
		logDir := appConfig.Server.LogDir

		return daemon.Start(foregroundFlag, logDir, []string{"server", "start"}, func(ctx context.Context) error {
			rt, err := runtime.Build(appConfig)
			if err != nil {
				return err
			}
			return rt.Run(ctx)
		})
	},
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the conductor daemon",
	Long: `Stop the running conductor daemon process.

Sends a shutdown signal to the daemon identified by its PID file.
Returns an error if no daemon is currently running.`,
	Example: `  conductor server stop`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := daemon.Stop(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
		return nil
	},
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Show whether the conductor daemon is running.

Displays the PID and uptime if the daemon is active, or reports
that it is not running.`,
	Example: `  conductor server status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		running, pid, uptime, err := daemon.Status()
		if err != nil {
			return err
		}

		if running {
			fmt.Fprintf(cmd.OutOrStdout(), "daemon is running (PID %d, uptime %s)\n", pid, uptime.Round(1e9))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "daemon is not running")
		}
		return nil
	},
}

var serverLogsCmd = &cobra.Command{
	Use:     "logs",
	Short:   "Show the daemon log file path",
	Long:    `Print the path to the conductor daemon log file.`,
	Example: `  conductor server logs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := daemon.LogFilePath()
		if path == "" {
			return fmt.Errorf("cannot determine log file path")
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var serverInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install as systemd user service",
	Long: `Install the conductor daemon as a systemd user service.

Creates a systemd unit file under ~/.config/systemd/user/ so the
daemon starts automatically on login. Use 'systemctl --user' to
manage the service after installation.`,
	Example: `  conductor server install`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemon.InstallSystemdService()
	},
}

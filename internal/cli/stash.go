package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsoverlay/internal/ipc"
)

var stashAllCmd = &cobra.Command{
	Use:   "stash-all",
	Short: "Stash every pulled workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stashRequest(cmd, ipc.ActionStashAll)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stash every pulled workspace and stop the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := stashRequest(cmd, ipc.ActionStop); err != nil {
			return err
		}
		if !jsonOutput {
			PrintSuccess(cmd.OutOrStdout(), "Daemon stopped")
		}
		return nil
	},
}

func stashRequest(cmd *cobra.Command, action string) error {
	resp, err := callDaemon(cmd, ipc.Request{Action: action})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputJSON(out, resp.Results)
	}
	if len(resp.Results) == 0 {
		PrintInfo(out, "No workspace is pulled")
		return nil
	}
	printResults(out, resp)
	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsoverlay/internal/ipc"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <workspace>",
	Short: "Pull or stash a workspace",
	Long: `Pull the windows of a workspace onto every workspace, or send them back
if the workspace is already pulled. Workspaces are numbered from 1.`,
	Example: "  wsoverlay toggle 3",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil || number < 1 {
			return fmt.Errorf("invalid workspace number %q: want a number starting at 1", args[0])
		}

		resp, err := callDaemon(cmd, ipc.Request{Action: ipc.ActionToggle, Workspace: number})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), resp.Results)
		}
		printResults(cmd.OutOrStdout(), resp)
		return nil
	},
}

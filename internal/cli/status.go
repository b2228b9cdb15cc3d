package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsoverlay/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show overlay status",
	Long:  `Display the active workspace and the windows each pulled workspace holds.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := callDaemon(cmd, ipc.Request{Action: ipc.ActionStatus})
		if err != nil {
			return err
		}
		state := resp.State
		out := cmd.OutOrStdout()

		if jsonOutput {
			return outputJSON(out, state)
		}
		if state == nil {
			return fmt.Errorf("daemon returned no state")
		}

		PrintSection(out, "Overlay Status")
		PrintLabelValue(out, "Active", workspaceName(state, state.Active))
		PrintLabelValue(out, "Pulled", PrintCount(len(state.Pulled), "workspace", "workspaces"))
		fmt.Fprintln(out)

		rows := make([][]string, 0, len(state.Workspaces))
		highlight := make(map[int]bool)
		for i, ws := range state.Workspaces {
			mark := ""
			if ws.Index == state.Active {
				mark = "*"
			}
			overlayState := "-"
			if ws.Overlay {
				overlayState = "pulled"
				highlight[i] = true
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d%s", ws.Number, mark),
				ws.Label,
				overlayState,
				windowList(ws.Windows),
			})
		}
		if len(rows) == 0 {
			PrintEmptyState(out, "No workspaces")
			return nil
		}
		PrintTable(out, []string{"WORKSPACE", "LABEL", "OVERLAY", "WINDOWS"}, rows, highlight)
		return nil
	},
}

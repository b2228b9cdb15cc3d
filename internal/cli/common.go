package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsoverlay/internal/config"
	"github.com/danieljhkim/wsoverlay/internal/fsops"
	"github.com/danieljhkim/wsoverlay/internal/ipc"
	"github.com/danieljhkim/wsoverlay/internal/overlay"
	"github.com/danieljhkim/wsoverlay/internal/settings"
	"github.com/danieljhkim/wsoverlay/internal/wm"
	"github.com/danieljhkim/wsoverlay/internal/workspace"
)

// loadPaths resolves the default paths and creates their directories.
func loadPaths() (*config.Paths, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	return paths, nil
}

// newSettingsStore opens settings.yaml under the config root.
func newSettingsStore() (*settings.Store, error) {
	paths, err := loadPaths()
	if err != nil {
		return nil, err
	}
	return settings.NewStore(fsops.NewRealFS(), paths.Settings), nil
}

// callDaemon sends one request to the running daemon.
func callDaemon(cmd *cobra.Command, req ipc.Request) (*ipc.Response, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	return ipc.Call(cmd.Context(), paths.Socket, req)
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// workspaceName returns "N" or "N (label)" for an index using the labels
// the daemon reported.
func workspaceName(state *overlay.State, index int) string {
	if state != nil {
		for _, ws := range state.Workspaces {
			if ws.Index == index && ws.Label != "" {
				return fmt.Sprintf("%d (%s)", ws.Number, ws.Label)
			}
		}
	}
	return fmt.Sprint(workspace.Number(index))
}

func windowList(ids []wm.WindowID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// printResults reports what each result did to its workspace.
func printResults(w io.Writer, resp *ipc.Response) {
	for _, res := range resp.Results {
		name := workspaceName(resp.State, res.Workspace)
		count := PrintCount(len(res.Windows), "window", "windows")
		switch res.Action {
		case overlay.ActionPulled:
			PrintSuccess(w, fmt.Sprintf("Pulled workspace %s (%s)", name, count))
		case overlay.ActionStashed:
			PrintSuccess(w, fmt.Sprintf("Stashed workspace %s (%s)", name, count))
		default:
			PrintWarning(w, fmt.Sprintf("Workspace %s unchanged", name))
		}
		if len(res.Skipped) > 0 {
			PrintWarning(w, fmt.Sprintf("Skipped %s: %s",
				PrintCount(len(res.Skipped), "window", "windows"), windowList(res.Skipped)))
		}
	}
}

package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/wsoverlay/internal/keys"
	"github.com/danieljhkim/wsoverlay/internal/settings"
)

var (
	exportCommand string
	exportOutput  string
)

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "Manage overlay hotkeys",
	Long: `Manage the accelerators bound to each workspace toggle.

Bindings are stored in settings.yaml under overlay-workspace-1 through
overlay-workspace-10. wsoverlay does not grab keys itself; use
"bindings export" to generate a configuration for sxhkd.`,
}

var bindingsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List workspace bindings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if jsonOutput {
			return outputJSON(out, s.Bindings)
		}

		PrintSection(out, "Workspace Bindings")
		rows := make([][]string, 0, settings.Slots)
		for n := 1; n <= settings.Slots; n++ {
			accel := s.Accelerator(n)
			if accel == "" {
				accel = "(disabled)"
			}
			rows = append(rows, []string{settings.Key(n), accel, s.Labels[n]})
		}
		PrintTable(out, []string{"KEY", "ACCELERATOR", "LABEL"}, rows, nil)
		return nil
	},
}

var bindingsSetCmd = &cobra.Command{
	Use:     "set <workspace> <accelerator>",
	Short:   "Bind an accelerator to a workspace",
	Example: "  wsoverlay bindings set 3 '<Control><Super>3'",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		s, err := updateSettings(func(s *settings.Settings) error {
			return s.SetAccelerator(number, args[1])
		})
		if err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s = %s", settings.Key(number), s.Accelerator(number)))
		return nil
	},
}

var bindingsClearCmd = &cobra.Command{
	Use:   "clear <workspace>",
	Short: "Disable the binding of a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		if _, err := updateSettings(func(s *settings.Settings) error {
			return s.Clear(number)
		}); err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s disabled", settings.Key(number)))
		return nil
	},
}

var bindingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export bindings in sxhkd syntax",
	Long: `Print an sxhkd configuration that runs "wsoverlay toggle N" for every
enabled binding. Include it from sxhkdrc or write it with --output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		bindings, err := s.ParsedBindings()
		if err != nil {
			return err
		}
		content := keys.ExportSxhkd(bindings, exportCommand)

		if exportOutput == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		}
		if err := os.WriteFile(exportOutput, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Wrote %s to %s",
			PrintCount(len(bindings), "binding", "bindings"), exportOutput))
		return nil
	},
}

var labelCmd = &cobra.Command{
	Use:   "label <workspace> [label]",
	Short: "Set or remove a workspace label",
	Long: `Set the display label of a workspace. Without a label the current one is
removed. Labels are read when the daemon starts.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid workspace number %q", args[0])
		}
		label := ""
		if len(args) == 2 {
			label = args[1]
		}
		if _, err := updateSettings(func(s *settings.Settings) error {
			return s.SetLabel(number, label)
		}); err != nil {
			return err
		}
		if label == "" {
			PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Removed label of workspace %d", number))
		} else {
			PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Workspace %d labeled %q", number, label))
		}
		return nil
	},
}

func init() {
	bindingsExportCmd.Flags().StringVar(&exportCommand, "command", "wsoverlay", "Command sxhkd runs")
	bindingsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	bindingsCmd.AddCommand(bindingsLsCmd)
	bindingsCmd.AddCommand(bindingsSetCmd)
	bindingsCmd.AddCommand(bindingsClearCmd)
	bindingsCmd.AddCommand(bindingsExportCmd)
}

func parseSlot(arg string) (int, error) {
	number, err := strconv.Atoi(arg)
	if err != nil || number < 1 || number > settings.Slots {
		return 0, fmt.Errorf("invalid workspace number %q: want 1..%d", arg, settings.Slots)
	}
	return number, nil
}

func loadSettings() (*settings.Settings, error) {
	store, err := newSettingsStore()
	if err != nil {
		return nil, err
	}
	return store.Load()
}

// updateSettings loads settings, applies fn and saves the result.
func updateSettings(fn func(*settings.Settings) error) (*settings.Settings, error) {
	store, err := newSettingsStore()
	if err != nil {
		return nil, err
	}
	s, err := store.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := store.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

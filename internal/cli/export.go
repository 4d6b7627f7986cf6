package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"classcheckin/internal/checkin"
)

// NewExportCommand creates the export command. Filtering and rendering run
// locally on the fetched snapshot, the same way the live feed does it.
func NewExportCommand(root *RootOptions) *cobra.Command {
	var (
		window string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the visible check-ins to a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := checkin.ParseWindow(window)
			if err != nil {
				return err
			}
			loc, err := root.location()
			if err != nil {
				return err
			}
			records, err := root.client().List(cmd.Context(), "")
			if err != nil {
				return err
			}

			now := time.Now()
			state := checkin.State{}.WithSnapshot(records).WithWindow(w)
			path, ok, err := writeExport(state, now, loc, dir)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "nothing to export in", w.Label())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", "ALL", "ALL, LAST_30_MIN, LAST_1_HOUR, LAST_24_HOURS or LAST_7_DAYS")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory for the CSV file")
	return cmd
}

// writeExport writes the state's export into dir. It creates no file when
// nothing is visible.
func writeExport(state checkin.State, now time.Time, loc *time.Location, dir string) (string, bool, error) {
	table, ok := state.Export(now.Unix(), now, loc)
	if !ok {
		return "", false, nil
	}
	path, err := writeTable(dir, table)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func writeTable(dir string, table checkin.Table) (string, error) {
	path := filepath.Join(dir, table.Filename)
	if err := os.WriteFile(path, []byte(table.Content), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

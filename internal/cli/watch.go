package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"classcheckin/internal/checkin"
)

// NewWatchCommand creates the watch command. It follows the live feed and
// reads commands from stdin: a window name switches the filter and
// "export" writes the visible records to a CSV file.
func NewWatchCommand(root *RootOptions) *cobra.Command {
	var (
		window string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow check-ins as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := checkin.ParseWindow(window)
			if err != nil {
				return err
			}
			loc, err := root.location()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			feed := checkin.NewFeed(root.client(),
				checkin.WithLocation(loc),
				checkin.WithRenderer(func(v checkin.View) {
					Render(out, v, time.Now(), loc)
				}),
			)

			errc := make(chan error, 1)
			go func() { errc <- feed.Run(ctx) }()

			if err := feed.Select(ctx, w); err != nil {
				if runErr := <-errc; runErr != nil {
					return runErr
				}
				return err
			}
			go readCommands(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), feed, dir)

			return <-errc
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", "ALL", "initial time window")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory for exported CSV files")
	return cmd
}

func readCommands(ctx context.Context, in io.Reader, errOut io.Writer, feed *checkin.Feed, dir string) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "export") {
			table, ok, err := feed.Export(ctx)
			if err != nil {
				return
			}
			if !ok {
				fmt.Fprintln(errOut, "nothing to export")
				continue
			}
			path, err := writeTable(dir, table)
			if err != nil {
				fmt.Fprintln(errOut, err)
				continue
			}
			fmt.Fprintln(errOut, "wrote", path)
			continue
		}
		w, err := checkin.ParseWindow(line)
		if err != nil {
			fmt.Fprintf(errOut, "%v; try one of %s or export\n", err, windowNames())
			continue
		}
		if err := feed.Select(ctx, w); err != nil {
			return
		}
	}
}

func windowNames() string {
	names := make([]string, len(checkin.Windows))
	for i, w := range checkin.Windows {
		names[i] = w.String()
	}
	return strings.Join(names, ", ")
}

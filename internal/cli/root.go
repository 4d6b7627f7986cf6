package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"classcheckin/internal/client"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server   string
	Timezone string
}

// NewRootCommand creates the root command for the checkinctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "checkinctl",
		Short:         "Check-in feed client",
		Long:          "Record, list, watch and export class check-ins from a check-in API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("CHECKIN_SERVER")
	if server == "" {
		server = "http://localhost:8081"
	}
	cmd.PersistentFlags().StringVarP(&opts.Server, "server", "s", server, "API base URL")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", "Local", "time zone for dates and times")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func (o *RootOptions) client() *client.Client {
	return client.New(o.Server)
}

func (o *RootOptions) location() (*time.Location, error) {
	return time.LoadLocation(o.Timezone)
}

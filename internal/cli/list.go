package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(root *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored check-ins",
		Long:  "List check-ins in storage order, optionally only those for one email.",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := root.location()
			if err != nil {
				return err
			}
			records, err := root.client().List(cmd.Context(), email)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tTIME")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Email, time.Unix(r.Timestamp, 0).In(loc).Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "only this email")
	return cmd
}

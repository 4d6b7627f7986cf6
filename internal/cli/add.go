package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"classcheckin/internal/checkin"
)

// NewAddCommand creates the add command.
func NewAddCommand(root *RootOptions) *cobra.Command {
	var in checkin.NewRecord

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a check-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timestamp") {
				in.Timestamp = time.Now().Unix()
			}
			id, err := root.client().Insert(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email or student id")
	cmd.Flags().Int64Var(&in.Timestamp, "timestamp", 0, "Unix seconds (default now)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

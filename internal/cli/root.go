package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the refreshwatch command tree
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "refreshwatch [command] [flags]",
		Short:         "refreshwatch follows the dashboard's background refresh job.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewCmdServe())
	cmd.AddCommand(NewCmdWatch())
	cmd.AddCommand(NewCmdVersion())

	return cmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "worker",
		Short:         "Content promotion pipeline worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newDuplicatesCommand())

	return rootCmd
}

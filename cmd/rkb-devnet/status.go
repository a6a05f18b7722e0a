package main

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show container state and chain height for the devnet",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newDevnet()
		if err != nil {
			return err
		}
		return stack.Status(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

package main

import (
	"context"

	"github.com/spf13/cobra"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Tear the devnet down",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newDevnet()
		if err != nil {
			return err
		}
		return stack.Down(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(downCmd)
}

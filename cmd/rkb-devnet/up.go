package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Build, launch, and wait for the devnet to be ready",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := newDevnet()
		if err != nil {
			return err
		}

		// Ctrl-C must propagate into in-flight polling and init steps
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return stack.Up(ctx)
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
}

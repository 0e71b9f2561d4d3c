package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "slactl",
		Short:         "Inspect SLA countdowns and the recruitment board from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("server", "http://localhost:3300", "Base URL of the slatrack server")

	cmd.AddCommand(newBoardCmd())
	cmd.AddCommand(newCountdownCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func main() {
	Execute()
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "drone-show",
	Short: "Drone show flight simulation toolkit",
	Long:  "drone-show runs the drone flight, formation and collision simulation, replays recorded flights and generates VR obstacle courses.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(dashboardCmd)
}

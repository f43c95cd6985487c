package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	actorName  string
	rootCmd    = &cobra.Command{
		Use:   "cutdesk",
		Short: "Cutdesk - video editing task and payroll manager",
		Long: `Cutdesk manages outsourced video-editing work: guarded task status
transitions, drift-proof time tracking, deadline penalties, and the
monthly bonus settlement.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&actorName, "actor", "admin", "username to act as")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

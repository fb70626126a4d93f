package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daysense/daysense-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "daysense-configure",
		Short: "Configuration tool for the DaySense API",
		Long:  "CLI tool for managing the database-backed CORS and rate limit configuration",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

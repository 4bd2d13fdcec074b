package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugtrack/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bugtrack",
		Short: "BugTrack API Server",
		Long:  `BugTrack is a project, task, and bug tracking system with deadline monitoring, audit logging, and reporting.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}

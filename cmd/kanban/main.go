package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Yonela986/kanban-board/internal/util"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "kanban",
		Short:   "Sprint kanban boards with task timers",
		Version: Version,
	}

	rootCmd.PersistentFlags().String("config", util.EnvOrDefault("KANBAN_CONFIG", ""), "Path to YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

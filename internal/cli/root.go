package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maitri",
	Short: "A companion that remembers",
	Long:  "Maitri is an emotionally aware companion daemon. It remembers what you tell it, notices how conversations are going, and gently suggests a break or a game when one would help.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(engagementCmd)
	rootCmd.AddCommand(suggestionsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(eraseCmd)
}

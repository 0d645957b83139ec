package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var apiURL string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with the RAG workshop assistant from the terminal",
	Long: `ragchat talks to a running finchat server and renders each turn's
validation pipeline as it progresses.

Quick start:
  ragchat ask "How did Amazon's revenue grow?"
  ragchat ask --context --chart "What was Google's net income?"
  ragchat history
  ragchat reset`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "finchat API base URL (overrides config)")
}

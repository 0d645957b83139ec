package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askShowContext bool
	askShowChart   bool
	askNewSession  bool
)

// askCmd runs one chat turn.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sessionID := cfg.SessionID
		if askNewSession {
			sessionID = ""
		}

		client := newAPIClient(resolveAPIURL(cfg))
		resp, err := client.Chat(cmd.Context(), sessionID, strings.Join(args, " "))
		if err != nil {
			return err
		}

		cfg.SessionID = resp.SessionID
		if err := saveConfig(cfg); err != nil {
			return err
		}

		fmt.Print(renderAnswer(resp.Message))
		if askShowContext {
			fmt.Print(renderContext(resp.Message))
		}
		if askShowChart {
			fmt.Print(renderChart(resp.Message.Chart))
		}
		return nil
	},
}

// retryCmd replays the last question.
var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Replay the last question as a fresh turn",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.SessionID == "" {
			return fmt.Errorf("no active session; ask a question first")
		}

		client := newAPIClient(resolveAPIURL(cfg))
		resp, err := client.Retry(cmd.Context(), cfg.SessionID)
		if err != nil {
			return err
		}

		fmt.Print(renderAnswer(resp.Message))
		if askShowContext {
			fmt.Print(renderContext(resp.Message))
		}
		if askShowChart {
			fmt.Print(renderChart(resp.Message.Chart))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askShowContext, "context", false, "Show the retrieved context under the answer")
	askCmd.Flags().BoolVar(&askShowChart, "chart", false, "Show the financial chart data when available")
	askCmd.Flags().BoolVar(&askNewSession, "new", false, "Start a new session instead of continuing the current one")
	retryCmd.Flags().BoolVar(&askShowContext, "context", false, "Show the retrieved context under the answer")
	retryCmd.Flags().BoolVar(&askShowChart, "chart", false, "Show the financial chart data when available")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(retryCmd)
}

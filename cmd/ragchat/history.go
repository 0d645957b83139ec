package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd lists recent turns of the current session.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent turns of the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.SessionID == "" {
			return fmt.Errorf("no active session; ask a question first")
		}

		client := newAPIClient(resolveAPIURL(cfg))
		records, err := client.History(cmd.Context(), cfg.SessionID, historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No turns recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tOUTCOME\tQUESTION")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				rec.CreatedAt.Local().Format("Jan 02 15:04"),
				rec.Outcome,
				rec.Question,
			)
		}
		return w.Flush()
	},
}

// resetCmd clears the current session's conversation.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the current conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.SessionID == "" {
			fmt.Println("No active session.")
			return nil
		}

		client := newAPIClient(resolveAPIURL(cfg))
		if err := client.Reset(cmd.Context(), cfg.SessionID); err != nil {
			return err
		}
		fmt.Println("Conversation cleared.")
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum turns to list")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
}

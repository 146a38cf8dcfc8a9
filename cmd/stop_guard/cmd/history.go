package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stop_guard/internal/models"
	"stop_guard/internal/report"
	"stop_guard/internal/stops"
)

var historySince string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarise executed stops",
	Long: `Show every executed stop and win/loss statistics, overall and by stop mode.

Examples:
  stop_guard history
  stop_guard history --since 2025-03-01
  stop_guard history show <id>
  stop_guard history snapshots`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one executed stop",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Show the daily portfolio value history",
	Args:  cobra.NoArgs,
	RunE:  runHistorySnapshots,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySnapshotsCmd)
	historyCmd.Flags().StringVar(&historySince, "since", "", "only stops closed on or after this day (YYYY-MM-DD)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		trades []models.ClosedTrade
		stats  stops.HistoryStats
	)
	if historySince != "" {
		start, err := time.Parse("2006-01-02", historySince)
		if err != nil {
			return fmt.Errorf("invalid --since %q: %w", historySince, err)
		}
		trades, err = a.journal.ListBetween(start, time.Now().Add(time.Minute))
		if err != nil {
			return err
		}
		stats = stops.Analyze(trades)
	} else {
		trades, stats, err = a.watcher.History()
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	report.Trades(out, trades)
	report.History(out, stats)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.journal.Get(args[0])
	if err != nil {
		return err
	}
	report.Trades(cmd.OutOrStdout(), []models.ClosedTrade{t})
	return nil
}

func runHistorySnapshots(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.Close()

	snaps, err := a.journal.Snapshots()
	if err != nil {
		return err
	}
	report.Snapshots(cmd.OutOrStdout(), snaps)
	return nil
}

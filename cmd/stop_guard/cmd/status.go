package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stop_guard/internal/report"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show positions, stops and risk from the saved state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.watcher.Status()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, a.watcher.MarketStatus(cmd.Context()))
	if st.State.LastSync != "" {
		fmt.Fprintf(out, "Last saved: %s\n", st.State.LastSync)
	}
	report.Positions(out, st.Analysis)
	report.Alerts(out, st.Alerts)
	report.Risk(out, st.Risk, st.State.Cash)
	report.Benchmarks(out, st.State.Benchmarks)
	return nil
}

package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"stop_guard/internal/report"
)

var (
	checkPricesFile string
	checkJSON       bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one evaluation cycle and print the result",
	Long: `Fetch prices, ratchet stops, close violated positions and report.

Examples:
  stop_guard check
  stop_guard check --prices prices.yaml
  stop_guard check --json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkPricesFile, "prices", "p", "", "read prices from a YAML/JSON file instead of Alpaca")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the cycle result as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(checkPricesFile)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.watcher.Poll(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if checkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	st, err := a.watcher.Status()
	if err != nil {
		return err
	}
	report.Violations(out, res.Violations)
	report.Targets(out, res.Targets)
	report.Alerts(out, res.Alerts)
	report.Positions(out, st.Analysis)
	report.Risk(out, st.Risk, st.State.Cash)
	if len(res.Missing) > 0 {
		cmd.PrintErrf("no price for: %v\n", res.Missing)
	}
	for _, s := range res.Skipped {
		cmd.PrintErrln(s.Error())
	}
	return nil
}

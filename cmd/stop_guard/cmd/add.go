package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	addSymbol   string
	addShares   string
	addPrice    string
	addCatalyst string
	addSector   string
	addTarget   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Open a position with its initial stop",
	Long: `Record a new position and debit its cost from cash.

Example:
  stop_guard add --symbol CRNX --shares 10 --price 32.50 --catalyst "Phase 3 readout"
  stop_guard add --symbol CRNX --shares 10 --price 32.50 --target 40`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addSymbol, "symbol", "s", "", "ticker symbol")
	addCmd.Flags().StringVarP(&addShares, "shares", "n", "", "number of shares (fractional allowed)")
	addCmd.Flags().StringVarP(&addPrice, "price", "p", "", "entry price per share")
	addCmd.Flags().StringVar(&addCatalyst, "catalyst", "", "why the position was opened")
	addCmd.Flags().StringVar(&addSector, "sector", "", "sector label")
	addCmd.Flags().StringVar(&addTarget, "target", "", "profit target price; part of the position is sold when reached")
	_ = addCmd.MarkFlagRequired("symbol")
	_ = addCmd.MarkFlagRequired("shares")
	_ = addCmd.MarkFlagRequired("price")
}

func runAdd(cmd *cobra.Command, args []string) error {
	shares, err := decimal.NewFromString(addShares)
	if err != nil {
		return fmt.Errorf("invalid --shares %q: %w", addShares, err)
	}
	price, err := decimal.NewFromString(addPrice)
	if err != nil {
		return fmt.Errorf("invalid --price %q: %w", addPrice, err)
	}

	var target decimal.Decimal
	if addTarget != "" {
		if target, err = decimal.NewFromString(addTarget); err != nil {
			return fmt.Errorf("invalid --target %q: %w", addTarget, err)
		}
	}

	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.Close()

	pos, err := a.watcher.AddPosition(addSymbol, shares, price, addCatalyst, addSector)
	if err != nil {
		return err
	}
	if addTarget != "" {
		if pos, err = a.watcher.SetTarget(pos.Symbol, target); err != nil {
			return err
		}
	}

	st, err := a.watcher.Status()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added %s: %s shares @ $%s, cost $%s\n",
		pos.Symbol, pos.Shares, pos.EntryPrice.StringFixed(2), pos.CostBasis().StringFixed(2))
	fmt.Fprintf(out, "Initial stop: $%s\n", pos.StopLevel.StringFixed(2))
	if pos.TargetPrice != nil {
		fmt.Fprintf(out, "Profit target: $%s\n", pos.TargetPrice.StringFixed(2))
	}
	fmt.Fprintf(out, "Remaining cash: $%s\n", st.State.Cash.StringFixed(2))
	return nil
}

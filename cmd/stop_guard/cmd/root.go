package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stop_guard",
	Short: "Trailing stop-loss guard for a small equity portfolio",
	Long: `stop_guard keeps a protective stop under every open position.

Each position starts with a fixed initial stop below its entry. Once the
price has gained enough, the stop trails the highest price seen and never
moves down again. When a price falls to its stop the position is closed,
either on paper or with a market sell through Alpaca.

Configuration comes from an optional YAML/JSON file, a .env file and the
environment, in that order of precedence (environment wins).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
}

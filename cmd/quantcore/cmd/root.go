package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quantcore",
	Short: "Risk-gated strategy execution for systematic trading",
	Long: `Quantcore runs trading strategies through a risk-gated execution
pipeline: signals are aggregated across strategies, checked against hard
risk limits, sized, and executed through an order state machine backed by
a reconciling ledger.

It provides tools for:
  - Paper trading sessions replayed from CSV bar data
  - Deterministic fills with seeded slippage
  - Hard risk limits: drawdown, daily loss, position count, correlation
  - Stop-loss, take-profit and trailing-stop exit management
  - Order and equity journaling to CSV or SQLite
  - A websocket monitoring feed for dashboards`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantcore/config"
	"github.com/rustyeddy/quantcore/engine"
	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/monitor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a paper trading session from a config file",
	Long: `Replay CSV bar data through the strategy and risk pipeline.

The config file sets the account, risk limits, strategies and journal;
the data file supplies the bars (time,symbol,open,high,low,close,volume).

Example:
  quantcore run -f examples/configs/paper.yaml -d examples/data/btc_h1.csv`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDataPath   string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVarP(&runDataPath, "data", "d", "", "path to CSV bar data (required)")
	runCmd.MarkFlagRequired("config")
	runCmd.MarkFlagRequired("data")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bars, err := market.LoadCSV(runDataPath, market.Timeframe(cfg.Trading.Timeframe))
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	fmt.Printf("Running paper session with config: %s\n", runConfigPath)
	fmt.Printf("  Account: $%.2f %s\n", cfg.Account.Balance, cfg.Account.Currency)
	fmt.Printf("  Symbols: %v, %d bars\n", cfg.Trading.Symbols, len(bars))
	fmt.Printf("  Strategies: %v\n", cfg.Strategies.Enabled)
	fmt.Println()

	var hub *monitor.Hub
	if addr := cfg.Monitoring.FeedAddr; addr != "" {
		hub = monitor.NewHub()
		go hub.Run()
		go func() {
			if err := hub.Serve(addr); err != nil {
				log.Printf("monitor feed: %v", err)
			}
		}()
		fmt.Printf("Monitoring feed on ws://%s/ws\n\n", addr)
	}

	session, err := engine.New(cfg, nil, hub)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := session.Run(ctx, market.NewSliceFeed(bars))

	led := session.Ledger()
	fmt.Printf("\nFinal Results:\n")
	fmt.Printf("  Cash: $%.2f\n", led.Cash())
	fmt.Printf("  Equity: $%.2f\n", led.Equity())
	fmt.Printf("  Profit/Loss: $%.2f\n", led.Equity()-cfg.Account.Balance)
	fmt.Printf("  Peak Equity: $%.2f\n", led.PeakEquity())
	fmt.Printf("  Drawdown: %.2f%%\n", led.Drawdown()*100)
	fmt.Printf("  Open Positions: %d\n", led.OpenCount())
	fmt.Printf("  Mode: %s\n", led.Mode())
	if cfg.Journal.Type == "csv" {
		fmt.Printf("\nJournal saved to:\n  - %s\n  - %s\n", cfg.Journal.OrdersFile, cfg.Journal.EquityFile)
	} else if cfg.Journal.Type == "sqlite" {
		fmt.Printf("\nJournal saved to: %s\n", cfg.Journal.DBPath)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

package commands

import (
	"github.com/spf13/cobra"

	"PatternScout/internal/export"
	"PatternScout/internal/notifier"
)

var (
	rsiSymbol string
	rsiRows   int
)

var rsiCmd = &cobra.Command{
	Use:   "rsi",
	Short: "Show the current hourly RSI of a symbol",
	Long: `Compute the Wilder-smoothed hourly RSI of a symbol and print its latest
readings. Period and window come from analysis.rsi_period and analysis.rsi_window.

Examples:
  scout rsi --symbol SOLUSDT
  scout rsi --symbol BTCUSDT --rows 48 --export`,
	RunE: runRSI,
}

func init() {
	rsiCmd.Flags().StringVarP(&rsiSymbol, "symbol", "s", "", "symbol to analyze (default data_source.symbol)")
	rsiCmd.Flags().IntVar(&rsiRows, "rows", 0, "readings to print (default analysis.rsi_window)")
	rootCmd.AddCommand(rsiCmd)
}

func runRSI(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	asset := a.asset(rsiSymbol)
	snap, err := a.collector.Collect(ctx, asset)
	if err != nil {
		return err
	}
	if err := a.recorder.RecordRSI(asset.Symbol, snap.RSI); err != nil {
		a.log.WithError(err).Error("record rsi")
	}
	a.exportRSI(asset.Symbol, export.RSIRows(asset.Symbol, snap.RSI.Window, a.loc))

	printPlain(notifier.FormatRSI(asset, snap.RSI, a.loc, rsiRows))
	printPlain(notifier.FormatSummary(asset, snap.Summary))
	return nil
}

package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	exportOn   bool
	exportFmt  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Hourly price pattern and RSI analytics",
	Long: `PatternScout mines hourly exchange prices for recurring
"buy at day/hour X, sell at day/hour Y" patterns and tracks RSI.

Features:
• Whole-week and single-day pattern mining over months of hourly candles
• Wilder-smoothed RSI with overbought/oversold alerts
• Parallel multi-symbol scans ranked by ROI
• Telegram reports and commands, SQL history, csv/json/parquet export`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&exportOn, "export", false, "also write results to export.dir")
	rootCmd.PersistentFlags().StringVar(&exportFmt, "export-format", "", "override export.format (csv, json, parquet)")
}

package commands

import (
	"time"

	"github.com/spf13/cobra"

	"PatternScout/internal/export"
	"PatternScout/internal/miner"
	"PatternScout/internal/notifier"
	"PatternScout/internal/scanner"
)

var (
	scanDay     string
	scanWeek    bool
	scanWorkers int
	scanRSI     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rank all configured symbols by their best pattern",
	Long: `Mine every configured symbol in parallel and rank the symbols by the ROI
of their best pattern. By default only buys on the schedule's target day
(today or tomorrow) are considered, like the scheduled scan.

Examples:
  scout scan
  scout scan --day tomorrow --workers 8
  scout scan --week --rsi --export`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanDay, "day", "", "buy weekday: Mon..Sun, today or tomorrow (default schedule.target_day)")
	scanCmd.Flags().BoolVar(&scanWeek, "week", false, "mine the whole week instead of a single buy day")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "parallel symbols (default analysis.workers)")
	scanCmd.Flags().BoolVar(&scanRSI, "rsi", false, "attach the current RSI of every symbol")
	rootCmd.AddCommand(scanCmd)
}

// scanOptions builds scanner options from configuration.
func (a *app) scanOptions() scanner.Options {
	return scanner.Options{
		MinOccurrences: a.cfg.Analysis.DayMinOccurrences,
		PerSymbol:      a.cfg.Analysis.PerSymbol,
		MaxSymbols:     a.cfg.Analysis.MaxSymbols,
		Workers:        a.cfg.Analysis.Workers,
		Delay:          a.cfg.DataSource.SymbolDelay,
		RSIPeriod:      a.cfg.Analysis.RSIPeriod,
		RSIWindow:      a.cfg.Analysis.RSIWindow,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := a.scanOptions()
	opts.WithRSI = scanRSI
	if scanWorkers > 0 {
		opts.Workers = scanWorkers
	}
	if scanWeek {
		opts.MinOccurrences = a.cfg.Analysis.MinOccurrences
	} else {
		day, err := parseDay(scanDay, time.Now(), a.loc)
		if err != nil {
			return err
		}
		if day == nil {
			offset, _ := a.cfg.TargetDayOffset()
			d := miner.TargetDay(time.Now(), a.loc, offset)
			day = &d
		}
		opts.BuyDay = day
	}
	opts.Progress = func(done, total int, symbol string) {
		a.log.WithField("symbol", symbol).Infof("scanned %d/%d", done, total)
	}

	report, err := scanner.New(a.collector, opts, a.log).Scan(ctx, a.cfg.Symbols)
	if err != nil {
		return err
	}
	if err := a.recorder.RecordScan(report); err != nil {
		a.log.WithError(err).Error("record scan")
	}

	var rows []export.PatternRow
	for _, res := range report.Ranked {
		rows = append(rows, export.PatternRows(res.Asset.Symbol, res.Patterns)...)
	}
	a.exportPatterns("scan", rows)

	printPlain(notifier.FormatScan(report, a.loc))
	if scanRSI {
		for _, res := range report.Ranked {
			if res.RSI != nil {
				printPlain(notifier.FormatRSIAlert(res.Asset, *res.RSI))
			}
		}
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"PatternScout/internal/export"
	"PatternScout/internal/miner"
	"PatternScout/internal/model"
	"PatternScout/internal/notifier"
	"PatternScout/internal/recorder"
)

var (
	patternsSymbol  string
	patternsDay     string
	patternsMin     int
	patternsTop     int
	patternsSummary bool
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Mine buy/sell day-hour patterns for one symbol",
	Long: `Mine the configured history of one symbol for recurring profitable
buy/sell day-hour pairs.

Examples:
  # Whole-week mining of the default symbol
  scout patterns

  # Only patterns that buy on today's weekday, exported as parquet
  scout patterns --symbol ETHUSDT --day today --export --export-format parquet

  # Top 10 patterns that occurred at least 4 times
  scout patterns --symbol BTCUSDT --min 4 --top 10`,
	RunE: runPatterns,
}

func init() {
	patternsCmd.Flags().StringVarP(&patternsSymbol, "symbol", "s", "", "symbol to analyze (default data_source.symbol)")
	patternsCmd.Flags().StringVar(&patternsDay, "day", "", "restrict buys to a weekday: Mon..Sun, today or tomorrow")
	patternsCmd.Flags().IntVar(&patternsMin, "min", 0, "minimum occurrences (default analysis.min_occurrences or day_min_occurrences)")
	patternsCmd.Flags().IntVar(&patternsTop, "top", 0, "number of patterns to show (default analysis.top_k, -1 for all)")
	patternsCmd.Flags().BoolVar(&patternsSummary, "summary", false, "also print period price statistics")
	rootCmd.AddCommand(patternsCmd)
}

// parseDay resolves --day relative to now in loc.
func parseDay(value string, now time.Time, loc *time.Location) (*model.Weekday, error) {
	var day model.Weekday
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return nil, nil
	case "today":
		day = miner.TargetDay(now, loc, 0)
	case "tomorrow":
		day = miner.TargetDay(now, loc, 1)
	default:
		d, err := model.ParseWeekday(value)
		if err != nil {
			return nil, err
		}
		day = d
	}
	return &day, nil
}

func runPatterns(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	day, err := parseDay(patternsDay, time.Now(), a.loc)
	if err != nil {
		return err
	}
	asset := a.asset(patternsSymbol)

	opts := miner.Options{MinOccurrences: a.cfg.Analysis.MinOccurrences, TopK: a.cfg.Analysis.TopK, BuyDay: day}
	mode, title := recorder.ModeWeek, "whole history"
	if day != nil {
		opts.MinOccurrences = a.cfg.Analysis.DayMinOccurrences
		mode, title = recorder.DayMode(*day), "buying on "+day.String()
	}
	if patternsMin > 0 {
		opts.MinOccurrences = patternsMin
	}
	if patternsTop != 0 {
		opts.TopK = patternsTop
	}

	snap, err := a.collector.Collect(ctx, asset)
	if err != nil {
		return err
	}

	log := a.log.WithField("symbol", asset.Symbol)
	run := miner.NewRun(asset.Symbol, func(done, total int, label string) {
		if done%24 == 0 {
			log.WithFields(logrus.Fields{"day": label, "progress": fmt.Sprintf("%d/%d", done, total)}).Debug("mining")
		}
	})
	patterns, err := miner.Mine(ctx, snap.Points, run.Options(opts))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"run_id":   run.ID.String(),
		"points":   len(snap.Points),
		"patterns": len(patterns),
		"took":     time.Since(run.StartedAt).String(),
	}).Info("mining finished")

	if err := a.recorder.RecordPatterns(run.ID, asset.Symbol, mode, patterns); err != nil {
		log.WithError(err).Error("record patterns")
	}
	a.exportPatterns(asset.Symbol, export.PatternRows(asset.Symbol, patterns))

	if patternsSummary {
		printPlain(notifier.FormatSummary(asset, snap.Summary))
	}
	printPlain(notifier.FormatPatterns(asset, title, patterns, a.loc))
	return nil
}

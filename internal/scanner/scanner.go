// Package scanner runs the pattern miner across many symbols in parallel and
// ranks the symbols by the ROI of their best pattern.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"PatternScout/internal/calculator"
	"PatternScout/internal/miner"
	"PatternScout/internal/model"
)

// ErrCancelled is returned when the context ends before every symbol is done.
var ErrCancelled = errors.New("scan cancelled")

const (
	DefaultPerSymbol  = 1
	DefaultMaxSymbols = 10
	DefaultWorkers    = 4
)

// Source yields the normalized series of a symbol. *collector.Collector
// satisfies it.
type Source interface {
	Points(ctx context.Context, symbol string) ([]model.NormalizedPoint, error)
}

// Options configures a scan.
type Options struct {
	// BuyDay restricts mining to one weekday; nil mines the whole week.
	BuyDay *model.Weekday
	// MinOccurrences is passed to the miner; zero selects its default.
	MinOccurrences int
	// PerSymbol is how many top patterns are kept per symbol.
	PerSymbol int
	// MaxSymbols caps Report.Ranked. Zero selects the default; negative keeps all.
	MaxSymbols int
	Workers    int
	// Delay spaces out symbol starts to stay under exchange rate limits.
	Delay time.Duration
	// WithRSI attaches an RSI report to every successful symbol.
	WithRSI   bool
	RSIPeriod int
	RSIWindow int
	// Progress is called once per finished symbol with that symbol's name.
	Progress miner.ProgressFunc
}

func (o Options) withDefaults() Options {
	if o.PerSymbol <= 0 {
		o.PerSymbol = DefaultPerSymbol
	}
	if o.MaxSymbols == 0 {
		o.MaxSymbols = DefaultMaxSymbols
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// SymbolResult is the outcome for one symbol. A failed symbol has Err set and
// no patterns.
type SymbolResult struct {
	Asset    model.Asset
	Patterns []model.Pattern
	RSI      *model.RSIReport
	Err      error
}

// Best returns the top pattern, if any.
func (r SymbolResult) Best() (model.Pattern, bool) {
	if len(r.Patterns) == 0 {
		return model.Pattern{}, false
	}
	return r.Patterns[0], true
}

// Report is the merged result of a scan.
type Report struct {
	RunID      uuid.UUID
	BuyDay     *model.Weekday
	StartedAt  time.Time
	FinishedAt time.Time
	// Results holds one entry per input asset, in input order.
	Results []SymbolResult
	// Ranked holds the symbols that produced patterns, best ROI first.
	Ranked []SymbolResult
}

// Failed lists the symbols whose fetch, normalization or mining failed.
func (r *Report) Failed() []SymbolResult {
	var failed []SymbolResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Scanner runs the miner over a list of assets.
type Scanner struct {
	source Source
	opts   Options
	log    *logrus.Entry
}

// New creates a Scanner.
func New(source Source, opts Options, log *logrus.Logger) *Scanner {
	return &Scanner{
		source: source,
		opts:   opts.withDefaults(),
		log:    log.WithField("component", "scanner"),
	}
}

// Scan analyzes every asset. Per-symbol failures are recorded in the report
// and never abort the run; only cancellation of ctx does, in which case no
// report is returned.
func (s *Scanner) Scan(ctx context.Context, assets []model.Asset) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		BuyDay:    s.opts.BuyDay,
		StartedAt: time.Now(),
		Results:   make([]SymbolResult, len(assets)),
	}
	log := s.log.WithField("run_id", report.RunID.String())
	log.WithFields(logrus.Fields{"symbols": len(assets), "workers": s.opts.Workers}).Info("scan started")

	var (
		mu        sync.Mutex
		completed int
	)
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)

	for i, asset := range assets {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && s.opts.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.Delay):
			}
		}
		i, asset := i, asset
		g.Go(func() error {
			res := s.analyze(ctx, asset)
			report.Results[i] = res
			if res.Err != nil {
				log.WithError(res.Err).WithField("symbol", asset.Symbol).Warn("symbol failed")
			}

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			if s.opts.Progress != nil {
				s.opts.Progress(done, len(assets), asset.Symbol)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn("scan cancelled")
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	report.Ranked = Rank(report.Results, s.opts.MaxSymbols)
	report.FinishedAt = time.Now()
	log.WithFields(logrus.Fields{
		"ranked":   len(report.Ranked),
		"failed":   len(report.Failed()),
		"duration": report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("scan finished")
	return report, nil
}

func (s *Scanner) analyze(ctx context.Context, asset model.Asset) SymbolResult {
	res := SymbolResult{Asset: asset}
	points, err := s.source.Points(ctx, asset.Symbol)
	if err != nil {
		res.Err = err
		return res
	}
	patterns, err := miner.Mine(ctx, points, miner.Options{
		MinOccurrences: s.opts.MinOccurrences,
		TopK:           s.opts.PerSymbol,
		BuyDay:         s.opts.BuyDay,
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Patterns = patterns
	if s.opts.WithRSI {
		rsi := calculator.BuildRSIReport(points, s.opts.RSIPeriod, s.opts.RSIWindow)
		res.RSI = &rsi
	}
	return res
}

// Rank keeps the results that have a pattern and orders them by the ROI of
// their best pattern, descending. Equal ROIs keep input order, so the outcome
// does not depend on which worker finished first. limit <= 0 keeps all.
func Rank(results []SymbolResult, limit int) []SymbolResult {
	var ranked []SymbolResult
	for _, r := range results {
		if r.Err == nil && len(r.Patterns) > 0 {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Patterns[0].AverageROIPercent > ranked[j].Patterns[0].AverageROIPercent
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

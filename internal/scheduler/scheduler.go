package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"PatternScout/internal/collector"
	"PatternScout/internal/miner"
	"PatternScout/internal/model"
	"PatternScout/internal/notifier"
	"PatternScout/internal/recorder"
	"PatternScout/internal/scanner"
)

// Sender delivers formatted messages. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Settings holds the analysis parameters of scheduled and on-demand runs.
type Settings struct {
	Symbols []model.Asset
	// Primary is the symbol watched by the RSI alert.
	Primary model.Asset
	// TargetDayOffset selects the scan's buy day: 0 today, 1 tomorrow.
	TargetDayOffset int
	MinOccurrences  int
	TopK            int
	// Scan is the template for multi-symbol scans; BuyDay is set per run.
	Scan scanner.Options
}

// Scheduler manages all cron tasks and chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  Sender
	Recorder  recorder.Recorder
	Settings  Settings
	Ctx       context.Context

	log *logrus.Entry
	now func() time.Time

	mu        sync.Mutex
	rsiStatus map[string]model.RSIStatus
}

// NewScheduler creates a new Scheduler. Overlapping runs of a task are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, sender Sender, rec recorder.Recorder, settings Settings, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		Collector: col,
		Notifier:  sender,
		Recorder:  rec,
		Settings:  settings,
		Ctx:       ctx,
		log:       log.WithField("component", "scheduler"),
		now:       time.Now,
		rsiStatus: make(map[string]model.RSIStatus),
	}
}

// RegisterAll registers the scan and RSI alert tasks.
func (s *Scheduler) RegisterAll(scanCron, rsiCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(rsiCron, s.rsiTask); err != nil {
		return fmt.Errorf("register rsi task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunScanNow executes the scan task immediately.
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	day := miner.TargetDay(s.now(), s.Collector.Location(), s.Settings.TargetDayOffset)
	s.scan(s.Ctx, day)
}

func (s *Scheduler) scan(ctx context.Context, day model.Weekday) {
	s.log.WithField("buy_day", day.String()).Info("running scan task")

	opts := s.Settings.Scan
	opts.BuyDay = &day
	report, err := scanner.New(s.Collector, opts, s.log.Logger).Scan(ctx, s.Settings.Symbols)
	if err != nil {
		s.log.WithError(err).Error("scan failed")
		s.trySend(fmt.Sprintf("❌ Scan failed: %v", err))
		return
	}

	s.trySend(notifier.FormatScan(report, s.Collector.Location()))
	if err := s.Recorder.RecordScan(report); err != nil {
		s.log.WithError(err).Error("record scan")
	}
}

func (s *Scheduler) rsiTask() {
	asset := s.Settings.Primary
	snap, err := s.Collector.Collect(s.Ctx, asset)
	if err != nil {
		s.log.WithError(err).WithField("symbol", asset.Symbol).Error("rsi collect")
		return
	}
	if err := s.Recorder.RecordRSI(asset.Symbol, snap.RSI); err != nil {
		s.log.WithError(err).Error("record rsi")
	}
	if !snap.RSI.Available {
		return
	}

	s.mu.Lock()
	prev := s.rsiStatus[asset.Symbol]
	s.rsiStatus[asset.Symbol] = snap.RSI.Status
	s.mu.Unlock()

	// Alert once per entry into a band, not on every run inside it.
	if snap.RSI.Status != model.RSINeutral && snap.RSI.Status != prev {
		s.log.WithFields(logrus.Fields{"symbol": asset.Symbol, "rsi": snap.RSI.Value}).Info("rsi alert")
		s.trySend(notifier.FormatRSIAlert(asset, snap.RSI))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/scan":
		day := miner.TargetDay(s.now(), s.Collector.Location(), s.Settings.TargetDayOffset)
		if len(fields) > 1 {
			d, err := model.ParseWeekday(fields[1])
			if err != nil {
				return fmt.Sprintf("❌ %v", err)
			}
			day = d
		}
		s.scan(ctx, day)
		return ""
	case "/rsi":
		asset := s.lookup(fields[1:])
		snap, err := s.Collector.Collect(ctx, asset)
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", asset.Symbol, err)
		}
		return notifier.FormatRSI(asset, snap.RSI, s.Collector.Location(), 12) + "\n" + notifier.FormatSummary(asset, snap.Summary)
	case "/patterns":
		asset := s.lookup(fields[1:])
		return s.patterns(ctx, asset)
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /scan [day]\n• /rsi SYMBOL\n• /patterns SYMBOL"

func (s *Scheduler) patterns(ctx context.Context, asset model.Asset) string {
	points, err := s.Collector.Points(ctx, asset.Symbol)
	if err != nil {
		return fmt.Sprintf("❌ %s: %v", asset.Symbol, err)
	}
	run := miner.NewRun(asset.Symbol, nil)
	patterns, err := miner.Mine(ctx, points, run.Options(miner.Options{
		MinOccurrences: s.Settings.MinOccurrences,
		TopK:           s.Settings.TopK,
	}))
	if err != nil {
		return fmt.Sprintf("❌ %s: %v", asset.Symbol, err)
	}
	if err := s.Recorder.RecordPatterns(run.ID, asset.Symbol, recorder.ModeWeek, patterns); err != nil {
		s.log.WithError(err).Error("record patterns")
	}
	return notifier.FormatPatterns(asset, "whole history", patterns, s.Collector.Location())
}

// lookup resolves a command argument to a configured asset, falling back to
// the primary symbol.
func (s *Scheduler) lookup(args []string) model.Asset {
	if len(args) == 0 {
		return s.Settings.Primary
	}
	sym := strings.ToUpper(args[0])
	for _, a := range s.Settings.Symbols {
		if a.Symbol == sym {
			return a
		}
	}
	return model.Asset{Symbol: sym}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"PatternScout/internal/collector"
	"PatternScout/internal/config"
	"PatternScout/internal/export"
	"PatternScout/internal/model"
	"PatternScout/internal/recorder"
	"PatternScout/internal/series"
	"PatternScout/pkg/logger"
)

// app is the wiring shared by every command.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	loc       *time.Location
	collector *collector.Collector
	recorder  recorder.Recorder
	saver     export.Saver
	closers   []func() error
}

func setup(ctx context.Context) (*app, error) {
	path := configPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	loc, err := series.LoadLocation(cfg.Analysis.Timezone)
	if err != nil {
		return nil, fmt.Errorf("analysis.timezone: %w", err)
	}

	a := &app{cfg: cfg, log: log, loc: loc}

	if exportOn {
		if exportFmt != "" {
			cfg.Export.Format = exportFmt
		}
		a.saver = export.NewSaver(cfg.Export.Format)
		if a.saver == nil {
			return nil, fmt.Errorf("unsupported export format %q (use csv, json or parquet)", cfg.Export.Format)
		}
	}

	var fetcher collector.Fetcher = collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.Proxy, cfg.DataSource.PageDelay, log)
	if cfg.Redis.Addr != "" {
		client, err := collector.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, fetching without cache")
		} else {
			a.closers = append(a.closers, client.Close)
			fetcher = collector.NewCachedFetcher(fetcher, client, cfg.Redis.TTL, log)
		}
	}
	log.WithField("source", fetcher.Name()).Info("data source ready")

	a.collector = collector.NewCollector(fetcher, collector.Options{
		Location:  loc,
		Months:    cfg.DataSource.Months,
		RSIPeriod: cfg.Analysis.RSIPeriod,
		RSIWindow: cfg.Analysis.RSIWindow,
	}, log)

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			log.WithError(err).Warn("create database dir")
		}
	}
	if cfg.Database.DSN != "" {
		rec, err := recorder.NewSQLRecorder(cfg.Database.Driver, cfg.Database.DSN, log)
		if err != nil {
			log.WithError(err).Warn("init recorder failed, using noop")
		} else {
			a.recorder = rec
		}
	}
	a.closers = append(a.closers, a.recorder.Close)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("close")
		}
	}
}

// asset resolves symbol against the configured list so names are kept.
func (a *app) asset(symbol string) model.Asset {
	if symbol == "" {
		symbol = a.cfg.DataSource.Symbol
	}
	symbol = strings.ToUpper(symbol)
	for _, s := range a.cfg.Symbols {
		if s.Symbol == symbol {
			return s
		}
	}
	return model.Asset{Symbol: symbol}
}

// exportPatterns writes rows when --export is set.
func (a *app) exportPatterns(symbol string, rows []export.PatternRow) {
	if a.saver == nil {
		return
	}
	a.save(symbol, "patterns", func(path string) error { return a.saver.SavePatterns(rows, path) })
}

func (a *app) exportRSI(symbol string, rows []export.RSIRow) {
	if a.saver == nil {
		return
	}
	a.save(symbol, "rsi", func(path string) error { return a.saver.SaveRSI(rows, path) })
}

func (a *app) save(symbol, kind string, write func(path string) error) {
	if err := os.MkdirAll(a.cfg.Export.Dir, 0o755); err != nil {
		a.log.WithError(err).Error("create export dir")
		return
	}
	path := export.Path(a.cfg.Export.Dir, symbol, kind, time.Now(), a.saver)
	if err := write(path); err != nil {
		a.log.WithError(err).WithField("path", path).Error("export failed")
		return
	}
	a.log.WithField("path", path).Info("exported")
}

var plain = strings.NewReplacer("<b>", "", "</b>", "")

// printPlain writes a formatted message to stdout without Telegram markup.
func printPlain(msg string) { fmt.Fprintln(os.Stdout, plain.Replace(msg)) }

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func envTrue(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

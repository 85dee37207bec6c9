package recorder

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"PatternScout/internal/model"
	"PatternScout/internal/scanner"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not map to a bind type.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var _ Recorder = (*SQLRecorder)(nil)

// SQLRecorder persists history to SQLite or PostgreSQL through sqlx.
type SQLRecorder struct {
	db     *sqlx.DB
	driver string
	mu     sync.Mutex
	log    *logrus.Entry
}

type patternRow struct {
	RunID       string  `db:"run_id"`
	RecordedAt  int64   `db:"recorded_at"`
	Symbol      string  `db:"symbol"`
	Mode        string  `db:"mode"`
	Rank        int     `db:"pattern_rank"`
	BuyDay      string  `db:"buy_day"`
	BuyHour     int     `db:"buy_hour"`
	SellDay     string  `db:"sell_day"`
	SellHour    int     `db:"sell_hour"`
	Occurrences int     `db:"occurrences"`
	AvgProfit   float64 `db:"avg_profit"`
	AvgROI      float64 `db:"avg_roi"`
}

type rsiRow struct {
	RecordedAt int64   `db:"recorded_at"`
	Symbol     string  `db:"symbol"`
	Period     int     `db:"period"`
	Value      float64 `db:"value"`
	Status     string  `db:"status"`
	Price      float64 `db:"price"`
}

type scanRow struct {
	RunID      string `db:"run_id"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	BuyDay     string `db:"buy_day"`
	Symbols    int    `db:"symbols"`
	Ranked     int    `db:"ranked"`
	Failed     string `db:"failed"`
}

const (
	insertPattern = `INSERT INTO patterns
		(run_id, recorded_at, symbol, mode, pattern_rank, buy_day, buy_hour, sell_day, sell_hour, occurrences, avg_profit, avg_roi)
		VALUES (:run_id, :recorded_at, :symbol, :mode, :pattern_rank, :buy_day, :buy_hour, :sell_day, :sell_hour, :occurrences, :avg_profit, :avg_roi)`
	insertRSI = `INSERT INTO rsi_readings
		(recorded_at, symbol, period, value, status, price)
		VALUES (:recorded_at, :symbol, :period, :value, :status, :price)`
	insertScan = `INSERT INTO scans
		(run_id, started_at, finished_at, buy_day, symbols, ranked, failed)
		VALUES (:run_id, :started_at, :finished_at, :buy_day, :symbols, :ranked, :failed)`
)

// NewSQLRecorder opens (or creates) the database and runs migrations.
// driver is "sqlite" or "postgres".
func NewSQLRecorder(driver, dsn string, log *logrus.Logger) (*SQLRecorder, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// WAL lets readers query while the daemon writes.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
		db.SetMaxOpenConns(1)
	}

	r := &SQLRecorder{db: db, driver: driver, log: log.WithField("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.WithField("driver", driver).Info("recorder opened")
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.driver == "postgres" {
		id = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patterns (
			` + id + `,
			run_id       TEXT NOT NULL,
			recorded_at  BIGINT NOT NULL,
			symbol       TEXT NOT NULL,
			mode         TEXT NOT NULL,
			pattern_rank INTEGER NOT NULL,
			buy_day      TEXT NOT NULL,
			buy_hour     INTEGER NOT NULL,
			sell_day     TEXT NOT NULL,
			sell_hour    INTEGER NOT NULL,
			occurrences  INTEGER NOT NULL,
			avg_profit   DOUBLE PRECISION,
			avg_roi      DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_patterns_symbol ON patterns(symbol, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_patterns_run ON patterns(run_id)`,

		`CREATE TABLE IF NOT EXISTS rsi_readings (
			` + id + `,
			recorded_at BIGINT NOT NULL,
			symbol      TEXT NOT NULL,
			period      INTEGER NOT NULL,
			value       DOUBLE PRECISION,
			status      TEXT,
			price       DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rsi_symbol ON rsi_readings(symbol, recorded_at)`,

		`CREATE TABLE IF NOT EXISTS scans (
			` + id + `,
			run_id      TEXT NOT NULL,
			started_at  BIGINT NOT NULL,
			finished_at BIGINT NOT NULL,
			buy_day     TEXT,
			symbols     INTEGER NOT NULL,
			ranked      INTEGER NOT NULL,
			failed      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(s), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func patternRows(runID uuid.UUID, symbol, mode string, at int64, patterns []model.Pattern) []patternRow {
	rows := make([]patternRow, len(patterns))
	for i, p := range patterns {
		rows[i] = patternRow{
			RunID:       runID.String(),
			RecordedAt:  at,
			Symbol:      symbol,
			Mode:        mode,
			Rank:        i + 1,
			BuyDay:      p.BuyKey.Day.String(),
			BuyHour:     int(p.BuyKey.Hour),
			SellDay:     p.SellKey.Day.String(),
			SellHour:    int(p.SellKey.Hour),
			Occurrences: p.OccurrenceCount,
			AvgProfit:   p.AverageProfit,
			AvgROI:      p.AverageROIPercent,
		}
	}
	return rows
}

func (r *SQLRecorder) RecordPatterns(runID uuid.UUID, symbol, mode string, patterns []model.Pattern) error {
	if len(patterns) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, row := range patternRows(runID, symbol, mode, time.Now().Unix(), patterns) {
		if _, err := tx.NamedExec(insertPattern, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert pattern: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLRecorder) RecordRSI(symbol string, report model.RSIReport) error {
	if !report.Available {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	row := rsiRow{
		RecordedAt: time.Now().Unix(),
		Symbol:     symbol,
		Period:     report.Period,
		Value:      report.Value,
		Status:     string(report.Status),
	}
	if n := len(report.Window); n > 0 {
		row.Price = report.Window[n-1].Price
	}
	_, err := r.db.NamedExec(insertRSI, row)
	return err
}

func (r *SQLRecorder) RecordScan(report *scanner.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []string
	for _, f := range report.Failed() {
		failed = append(failed, f.Asset.Symbol)
	}
	row := scanRow{
		RunID:      report.RunID.String(),
		StartedAt:  report.StartedAt.Unix(),
		FinishedAt: report.FinishedAt.Unix(),
		Symbols:    len(report.Results),
		Ranked:     len(report.Ranked),
		Failed:     strings.Join(failed, ","),
	}
	mode := ModeWeek
	if report.BuyDay != nil {
		row.BuyDay = report.BuyDay.String()
		mode = DayMode(*report.BuyDay)
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.NamedExec(insertScan, row); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert scan: %w", err)
	}
	at := report.FinishedAt.Unix()
	for _, res := range report.Ranked {
		for _, pr := range patternRows(report.RunID, res.Asset.Symbol, mode, at, res.Patterns) {
			if _, err := tx.NamedExec(insertPattern, pr); err != nil {
				tx.Rollback()
				return fmt.Errorf("insert scan pattern: %w", err)
			}
		}
	}
	return tx.Commit()
}

// PatternCount returns how many pattern rows were stored for symbol.
func (r *SQLRecorder) PatternCount(symbol string) (int, error) {
	var n int
	err := r.db.Get(&n, r.db.Rebind(`SELECT COUNT(*) FROM patterns WHERE symbol = ?`), symbol)
	return n, err
}

// LatestRSI returns the most recent stored RSI value for symbol.
func (r *SQLRecorder) LatestRSI(symbol string) (float64, error) {
	var v float64
	err := r.db.Get(&v, r.db.Rebind(`SELECT value FROM rsi_readings WHERE symbol = ? ORDER BY recorded_at DESC, id DESC LIMIT 1`), symbol)
	return v, err
}

func (r *SQLRecorder) Close() error {
	r.log.Info("closing recorder")
	return r.db.Close()
}

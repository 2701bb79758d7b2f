package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"IntradayScreener/internal/model"
)

type dialect struct {
	name     string
	idColumn string
	numbered bool // $1, $2 placeholders instead of ?
}

var (
	sqliteDialect   = dialect{name: "sqlite", idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	postgresDialect = dialect{name: "postgres", idColumn: "BIGSERIAL PRIMARY KEY", numbered: true}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLRecorder writes scans to a database/sql handle.
type SQLRecorder struct {
	db      *sql.DB
	dialect dialect
	mu      sync.Mutex
	logger  zerolog.Logger
}

func (r *SQLRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id            TEXT PRIMARY KEY,
			started_at    BIGINT NOT NULL,
			finished_at   BIGINT NOT NULL,
			bar_interval  TEXT,
			lookback_days INTEGER,
			symbols       INTEGER,
			fired         INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at)`,

		`CREATE TABLE IF NOT EXISTS scan_rows (
			id          ` + r.dialect.idColumn + `,
			scan_id     TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			label       TEXT,
			signals     TEXT,
			error       TEXT,
			candle_time BIGINT,
			close       DOUBLE PRECISION,
			rsi         DOUBLE PRECISION,
			vwap        DOUBLE PRECISION,
			macd        DOUBLE PRECISION,
			macd_signal DOUBLE PRECISION,
			ema_fast    DOUBLE PRECISION,
			ema_slow    DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_rows_scan ON scan_rows(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_rows_symbol ON scan_rows(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan stores the scan header and one row per symbol in a single transaction.
func (r *SQLRecorder) RecordScan(result *model.ScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fired := 0
	for _, row := range result.Rows {
		if len(row.Fired()) > 0 {
			fired++
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(r.dialect.rebind(`INSERT INTO scans
		(id, started_at, finished_at, bar_interval, lookback_days, symbols, fired)
		VALUES (?,?,?,?,?,?,?)`),
		result.ID, result.StartedAt.Unix(), result.FinishedAt.Unix(),
		string(result.Interval), result.Lookback, len(result.Rows), fired,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	stmt, err := tx.Prepare(r.dialect.rebind(`INSERT INTO scan_rows
		(scan_id, symbol, label, signals, error, candle_time,
		 close, rsi, vwap, macd, macd_signal, ema_fast, ema_slow)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`))
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range result.Rows {
		snap := row.Snapshot
		if snap == nil {
			snap = &model.Snapshot{Close: math.NaN(), RSI: math.NaN(), VWAP: math.NaN(), MACD: math.NaN(),
				MACDSignal: math.NaN(), EMAFast: math.NaN(), EMASlow: math.NaN()}
		}
		var candleTime sql.NullInt64
		if snap.Time != 0 {
			candleTime = sql.NullInt64{Int64: snap.Time, Valid: true}
		}
		_, err := stmt.Exec(
			result.ID, row.Symbol, row.Label, model.SignalNames(row.Signals), row.Error, candleTime,
			nullFloat(snap.Close), nullFloat(snap.RSI), nullFloat(snap.VWAP), nullFloat(snap.MACD),
			nullFloat(snap.MACDSignal), nullFloat(snap.EMAFast), nullFloat(snap.EMASlow),
		)
		if err != nil {
			return fmt.Errorf("insert row %s: %w", row.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug().Str("scan_id", result.ID).Int("rows", len(result.Rows)).Msg("Scan recorded")
	return nil
}

func (r *SQLRecorder) Close() error {
	r.logger.Info().Msg("Closing recorder")
	return r.db.Close()
}

// nullFloat maps NaN and infinities to NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Package scanner runs the fetch-evaluate pipeline over a symbol list.
package scanner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"IntradayScreener/internal/collector"
	"IntradayScreener/internal/model"
	"IntradayScreener/internal/recorder"
	"IntradayScreener/internal/strategy"
)

// Evaluator is the part of strategy.Evaluator the scanner needs.
type Evaluator interface {
	Analyze(series *model.Series) (*strategy.Evaluation, error)
}

// Scanner scans symbols one after another. A failing symbol only affects its
// own row.
type Scanner struct {
	fetcher   collector.Fetcher
	evaluator Evaluator
	recorder  recorder.Recorder
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a Scanner. A nil recorder disables journaling.
func New(fetcher collector.Fetcher, evaluator Evaluator, rec recorder.Recorder) *Scanner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scanner{
		fetcher:   fetcher,
		evaluator: evaluator,
		recorder:  rec,
		logger:    log.With().Str("component", "scanner").Logger(),
		now:       time.Now,
	}
}

// Scan fetches and evaluates every symbol in order and returns one row per
// symbol. It never fails as a whole.
func (s *Scanner) Scan(ctx context.Context, symbols []string, interval model.Interval, lookbackDays int) *model.ScanResult {
	res := &model.ScanResult{
		ID:        newScanID(),
		StartedAt: s.now(),
		Interval:  interval,
		Lookback:  lookbackDays,
		Rows:      make([]model.Row, 0, len(symbols)),
	}
	logger := s.logger.With().Str("scan_id", res.ID).Logger()
	logger.Info().Int("symbols", len(symbols)).Str("interval", string(interval)).
		Int("lookback_days", lookbackDays).Str("source", s.fetcher.Name()).Msg("Scan started")

	for _, symbol := range symbols {
		res.Rows = append(res.Rows, s.scanSymbol(ctx, logger, symbol, interval, lookbackDays))
	}
	res.FinishedAt = s.now()

	fired := 0
	for _, row := range res.Rows {
		if len(row.Fired()) > 0 {
			fired++
		}
	}
	logger.Info().Int("fired", fired).Dur("took", res.FinishedAt.Sub(res.StartedAt)).Msg("Scan complete")

	if err := s.recorder.RecordScan(res); err != nil {
		logger.Warn().Err(err).Msg("Failed to record scan")
	}
	return res
}

func (s *Scanner) scanSymbol(ctx context.Context, logger zerolog.Logger, symbol string, interval model.Interval, lookbackDays int) model.Row {
	row := model.Row{Symbol: symbol}

	var ev *strategy.Evaluation
	series, err := s.fetcher.Fetch(ctx, symbol, interval, lookbackDays)
	if err == nil {
		ev, err = s.evaluator.Analyze(series)
	}
	if err != nil {
		row.Err = err
		row.Error = err.Error()
		row.Label = Label(err)
		logger.Warn().Err(err).Str("symbol", symbol).Msg("Symbol skipped")
		return row
	}

	row.Signals = ev.Signals
	row.Label = model.SignalNames(ev.Signals)
	snap := ev.Snapshot
	row.Snapshot = &snap
	logger.Debug().Str("symbol", symbol).Int("candles", series.Len()).Str("signals", row.Label).Msg("Symbol evaluated")
	return row
}

// Label maps a per-symbol error to the text shown in place of signals.
func Label(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, collector.ErrNoData):
		return "⚠️ No data"
	case errors.Is(err, strategy.ErrInsufficientData):
		return "⚠️ Not enough data"
	case errors.Is(err, strategy.ErrInvalidSeries):
		return "⚠️ Invalid Close price"
	case errors.Is(err, strategy.ErrIndicator):
		return "⚠️ TA Error: " + strings.TrimPrefix(err.Error(), strategy.ErrIndicator.Error()+": ")
	default:
		return "⚠️ Error: " + err.Error()
	}
}

// ParseSymbols splits comma separated inputs, trims and upper-cases each
// symbol and drops empties and repeats while keeping the first-seen order.
func ParseSymbols(inputs ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, in := range inputs {
		for _, part := range strings.Split(in, ",") {
			sym := strings.ToUpper(strings.TrimSpace(part))
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

func newScanID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return "scan-" + time.Now().UTC().Format("20060102T150405.000000000")
	}
	return id.String()
}

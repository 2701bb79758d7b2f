package collector

import (
	"context"
	"fmt"

	"IntradayScreener/internal/model"
)

// SessionFilter wraps a Fetcher and keeps only candles inside the trading
// session, with timestamps converted to the session's time zone.
type SessionFilter struct {
	Fetcher Fetcher
	Session model.Session
}

// WithSession decorates f with a session filter.
func WithSession(f Fetcher, s model.Session) *SessionFilter {
	return &SessionFilter{Fetcher: f, Session: s}
}

func (f *SessionFilter) Name() string { return f.Fetcher.Name() }

func (f *SessionFilter) Fetch(ctx context.Context, symbol string, interval model.Interval, lookbackDays int) (*model.Series, error) {
	series, err := f.Fetcher.Fetch(ctx, symbol, interval, lookbackDays)
	if err != nil {
		return nil, err
	}
	kept := make([]model.Candle, 0, series.Len())
	for _, c := range series.Candles {
		if !f.Session.Contains(c.Time) {
			continue
		}
		c.Time = f.Session.In(c.Time)
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%s: %w in session %s-%s", symbol, ErrNoData, f.Session.Open, f.Session.Close)
	}
	return &model.Series{Symbol: series.Symbol, Interval: series.Interval, Candles: kept}, nil
}

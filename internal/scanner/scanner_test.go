package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IntradayScreener/internal/collector"
	"IntradayScreener/internal/model"
	"IntradayScreener/internal/strategy"
)

var (
	ist = time.FixedZone("IST", 5*3600+30*60)
	nse = model.Session{Location: ist, Open: model.Clock{Hour: 9, Minute: 15}, Close: model.Clock{Hour: 15, Minute: 30}}
)

func rising(n int) []model.Candle {
	start := time.Date(2024, 3, 4, 9, 15, 0, 0, ist)
	out := make([]model.Candle, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = model.Candle{
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c - 1,
			High:   c + 0.1,
			Low:    c - 1.1,
			Close:  c,
			Volume: 1000 + 100*float64(i),
		}
	}
	return out
}

type memRecorder struct {
	scans []*model.ScanResult
	err   error
}

func (m *memRecorder) RecordScan(r *model.ScanResult) error {
	m.scans = append(m.scans, r)
	return m.err
}

func (m *memRecorder) Close() error { return nil }

func newScanner(t *testing.T, rec *memRecorder) *Scanner {
	t.Helper()
	negative := rising(25)
	negative[3].Close = -5

	fetcher := &collector.MockFetcher{
		Bars: map[string][]model.Candle{
			"GOOD.NS":  rising(25),
			"SHORT.NS": rising(5),
			"NEG.NS":   negative,
		},
		Errors: map[string]error{"DOWN.NS": errors.New("connection refused")},
	}
	ev, err := strategy.NewEvaluator(strategy.DefaultConfig(), nse)
	require.NoError(t, err)
	if rec == nil {
		return New(fetcher, ev, nil)
	}
	return New(fetcher, ev, rec)
}

func TestScan_IsolatesFailures(t *testing.T) {
	rec := &memRecorder{}
	s := newScanner(t, rec)
	symbols := []string{"GOOD.NS", "GONE.NS", "SHORT.NS", "NEG.NS", "DOWN.NS", "GOOD.NS"}

	res := s.Scan(context.Background(), symbols, model.Interval5m, 3)
	require.Len(t, res.Rows, len(symbols))
	for i, row := range res.Rows {
		assert.Equal(t, symbols[i], row.Symbol, "order preserved")
	}

	good := res.Rows[0]
	assert.NoError(t, good.Err)
	assert.Contains(t, good.Label, "RSI+VWAP")
	assert.NotEmpty(t, good.Fired())
	require.NotNil(t, good.Snapshot)
	assert.Equal(t, 124.0, good.Snapshot.Close)

	assert.Equal(t, "⚠️ No data", res.Rows[1].Label)
	assert.Equal(t, "⚠️ Not enough data", res.Rows[2].Label)
	assert.Equal(t, "⚠️ Invalid Close price", res.Rows[3].Label)
	assert.Equal(t, "⚠️ Error: connection refused", res.Rows[4].Label)
	assert.Equal(t, good.Label, res.Rows[5].Label, "a failure does not leak into later rows")

	for _, row := range res.Rows[1:5] {
		assert.Error(t, row.Err)
		assert.NotEmpty(t, row.Error)
		assert.Empty(t, row.Signals)
	}

	_, err := uuid.FromString(res.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.Interval5m, res.Interval)
	assert.Equal(t, 3, res.Lookback)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
	require.Len(t, rec.scans, 1)
	assert.Same(t, res, rec.scans[0])
}

func TestScan_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	res := newScanner(t, rec).Scan(context.Background(), []string{"GOOD.NS"}, model.Interval5m, 1)
	require.Len(t, res.Rows, 1)
	assert.NoError(t, res.Rows[0].Err)
}

func TestScan_EmptySymbolList(t *testing.T) {
	res := newScanner(t, nil).Scan(context.Background(), nil, model.Interval5m, 1)
	assert.Empty(t, res.Rows)
	assert.NotEmpty(t, res.ID)
}

func TestScan_BadLookbackIsPerSymbol(t *testing.T) {
	res := newScanner(t, nil).Scan(context.Background(), []string{"GOOD.NS"}, model.Interval5m, 30)
	require.Len(t, res.Rows, 1)
	assert.ErrorIs(t, res.Rows[0].Err, collector.ErrLookbackRange)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("yahoo X: %w", collector.ErrNoData), "⚠️ No data"},
		{fmt.Errorf("%w: 3 candles, need 20", strategy.ErrInsufficientData), "⚠️ Not enough data"},
		{fmt.Errorf("%w at 2024-03-04 09:30", strategy.ErrInvalidSeries), "⚠️ Invalid Close price"},
		{fmt.Errorf("%w: %v", strategy.ErrIndicator, errors.New("techan: division by zero")), "⚠️ TA Error: techan: division by zero"},
		{errors.New("timeout"), "⚠️ Error: timeout"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.err))
	}
}

func TestParseSymbols(t *testing.T) {
	assert.Equal(t, []string{"RELIANCE.NS", "INFY.NS"}, ParseSymbols("reliance.ns, INFY.NS,,"))
	assert.Equal(t, []string{"A", "B", "C"}, ParseSymbols("a,b", " B ", "c,a"))
	assert.Nil(t, ParseSymbols("", " , "))
}

package calculator

import (
	"fmt"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"IntradayScreener/internal/model"
)

// TechanName selects the techan backed engine.
const TechanName = "techan"

// Techan computes indicator columns with github.com/sdcoffey/techan.
type Techan struct{}

func (Techan) Name() string { return TechanName }

// TimeSeries converts a Series into a techan.TimeSeries. Candles whose period
// does not follow the previous one are rejected by techan and skipped.
func TimeSeries(series *model.Series) *techan.TimeSeries {
	ts := techan.NewTimeSeries()
	width := series.Interval.Duration()
	for _, c := range series.Candles {
		candle := techan.NewCandle(techan.NewTimePeriod(c.Time, width))
		candle.OpenPrice = big.NewDecimal(c.Open)
		candle.ClosePrice = big.NewDecimal(c.Close)
		candle.MaxPrice = big.NewDecimal(c.High)
		candle.MinPrice = big.NewDecimal(c.Low)
		candle.Volume = big.NewDecimal(c.Volume)
		ts.AddCandle(candle)
	}
	return ts
}

// Columns evaluates the techan indicators at every index. techan's decimal
// arithmetic panics on undefined results (0/0); that surfaces as an error.
func (Techan) Columns(series *model.Series, p Params) (cols *Columns, err error) {
	defer func() {
		if r := recover(); r != nil {
			cols, err = nil, fmt.Errorf("techan: %v", r)
		}
	}()

	ts := TimeSeries(series)
	n := len(ts.Candles)
	closes := techan.NewClosePriceIndicator(ts)
	cols = &Columns{}

	if p.RSIPeriod > 0 {
		cols.RSI = collect(techan.NewRelativeStrengthIndexIndicator(closes, p.RSIPeriod), n)
	}
	if p.EMAFast > 0 {
		cols.EMAFast = collect(techan.NewEMAIndicator(closes, p.EMAFast), n)
	}
	if p.EMASlow > 0 {
		cols.EMASlow = collect(techan.NewEMAIndicator(closes, p.EMASlow), n)
	}
	if p.macd() {
		macd := techan.NewMACDIndicator(closes, p.MACDFast, p.MACDSlow)
		cols.MACD = collect(macd, n)
		cols.MACDSignal = collect(techan.NewEMAIndicator(macd, p.MACDSignal), n)
	}
	if p.VolumePeriod > 0 {
		cols.VolumeSMA = collect(techan.NewSimpleMovingAverage(techan.NewVolumeIndicator(ts), p.VolumePeriod), n)
	}
	return cols, nil
}

func collect(ind techan.Indicator, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = ind.Calculate(i).Float()
	}
	return out
}

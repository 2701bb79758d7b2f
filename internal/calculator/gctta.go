package calculator

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"IntradayScreener/internal/model"
)

// GCTTAName selects the gct-ta backed engine.
const GCTTAName = "gctta"

// GCTTA computes indicator columns with github.com/thrasher-corp/gct-ta.
type GCTTA struct{}

func (GCTTA) Name() string { return GCTTAName }

// Columns calls into gct-ta only when the input covers the lookback; shorter
// inputs yield all-undefined columns instead.
func (GCTTA) Columns(series *model.Series, p Params) (*Columns, error) {
	closes := series.Closes()
	n := len(closes)
	cols := &Columns{}

	if p.RSIPeriod > 0 {
		if enough(closes, rsiLookback(p.RSIPeriod)) {
			cols.RSI = indicators.RSI(closes, p.RSIPeriod)
		} else {
			cols.RSI = undefined(n)
		}
	}
	cols.EMAFast = gctEMA(closes, p.EMAFast)
	cols.EMASlow = gctEMA(closes, p.EMASlow)

	if p.macd() {
		if enough(closes, macdLookback(max(p.MACDFast, p.MACDSlow), p.MACDSignal)) {
			cols.MACD, cols.MACDSignal, _ = indicators.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
		} else {
			cols.MACD, cols.MACDSignal = undefined(n), undefined(n)
		}
	}

	if p.VolumePeriod > 0 {
		volumes := series.Volumes()
		if enough(volumes, maLookback(p.VolumePeriod)) {
			cols.VolumeSMA = indicators.SMA(volumes, p.VolumePeriod)
		} else {
			cols.VolumeSMA = undefined(n)
		}
	}
	return cols, nil
}

func gctEMA(values []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}
	if !enough(values, maLookback(period)) {
		return undefined(len(values))
	}
	return indicators.EMA(values, period)
}

package calculator

import (
	"math"

	"IntradayScreener/internal/model"
)

// VWAPAnchor decides where the cumulative sums restart.
type VWAPAnchor string

const (
	// AnchorSeries accumulates over the whole fetched series.
	AnchorSeries VWAPAnchor = "series"
	// AnchorSession restarts at the first candle of every trading day.
	AnchorSession VWAPAnchor = "session"
)

// VWAP returns the cumulative typical-price-times-volume over cumulative
// volume for every candle. Rows with no accumulated volume are NaN.
func VWAP(series *model.Series, anchor VWAPAnchor, session model.Session) []float64 {
	out := make([]float64, series.Len())
	var pv, vol float64
	for i, c := range series.Candles {
		if anchor == AnchorSession && i > 0 && !session.SameDay(series.Candles[i-1].Time, c.Time) {
			pv, vol = 0, 0
		}
		typical := (c.High + c.Low + c.Close) / 3
		pv += typical * c.Volume
		vol += c.Volume
		if vol == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = pv / vol
	}
	return out
}

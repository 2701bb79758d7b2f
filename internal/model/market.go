package model

import (
	"math"
	"sort"
	"time"
)

// Candle represents a single OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func (c Candle) valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return !(c.Open == 0 && c.High == 0 && c.Low == 0 && c.Close == 0)
}

// Series holds the candles of one symbol over one interval, oldest first.
type Series struct {
	Symbol   string
	Interval Interval
	Candles  []Candle
}

// NewSeries sorts the candles, drops rows with missing prices and collapses
// duplicate timestamps (the later row wins), so timestamps strictly increase.
func NewSeries(symbol string, interval Interval, candles []Candle) *Series {
	kept := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if c.valid() {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Time.Before(kept[j].Time) })

	out := kept[:0]
	for _, c := range kept {
		if n := len(out); n > 0 && out[n-1].Time.Equal(c.Time) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return &Series{Symbol: symbol, Interval: interval, Candles: out}
}

// Len returns the number of candles.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

// Latest returns the most recent candle. The series must not be empty.
func (s *Series) Latest() Candle {
	return s.Candles[len(s.Candles)-1]
}

func (s *Series) column(pick func(Candle) float64) []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = pick(c)
	}
	return out
}

func (s *Series) Opens() []float64   { return s.column(func(c Candle) float64 { return c.Open }) }
func (s *Series) Highs() []float64   { return s.column(func(c Candle) float64 { return c.High }) }
func (s *Series) Lows() []float64    { return s.column(func(c Candle) float64 { return c.Low }) }
func (s *Series) Closes() []float64  { return s.column(func(c Candle) float64 { return c.Close }) }
func (s *Series) Volumes() []float64 { return s.column(func(c Candle) float64 { return c.Volume }) }

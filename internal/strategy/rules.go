package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"IntradayScreener/internal/model"
)

var hundred = decimal.NewFromInt(100)

// view is the evaluation window: the latest row i and, for crossovers, i-1.
type view struct {
	series  *model.Series
	ind     *model.IndicatorSet
	i       int
	cfg     *Config
	session model.Session
}

// candle returns the candle offset rows before the latest.
func (v view) candle(offset int) model.Candle { return v.series.Candles[v.i-offset] }

// hasPrev reports whether the previous row is past the warm-up.
func (v view) hasPrev() bool { return v.i-1 >= v.ind.WarmUp }

type rule func(v view) (model.Signal, bool)

var ruleSet = map[string]rule{
	RuleRSIVWAP:           rsiVWAP,
	RuleEMACrossover:      emaCrossover,
	RuleORB:               openingRangeBreakout,
	RuleGapAndGo:          gapAndGo,
	RuleVolumeBreakout:    volumeBreakout,
	RuleSupportResistance: supportResistance,
}

func rsiVWAP(v view) (model.Signal, bool) {
	c, rsi, vwap := v.candle(0).Close, v.ind.RSI[v.i], v.ind.VWAP[v.i]
	if c > vwap && rsi > v.cfg.RSIThreshold {
		return model.Signal{
			Name: "RSI+VWAP",
			Kind: model.KindBuy,
			Note: fmt.Sprintf("RSI: %.2f, VWAP: %.2f", rsi, vwap),
		}, true
	}
	return model.Signal{}, false
}

func emaCrossover(v view) (model.Signal, bool) {
	if !v.hasPrev() {
		return model.Signal{}, false
	}
	pf, ps := v.ind.EMAFast[v.i-1], v.ind.EMASlow[v.i-1]
	f, s := v.ind.EMAFast[v.i], v.ind.EMASlow[v.i]
	switch {
	case pf < ps && f > s:
		return model.Signal{
			Name: "EMA Crossover",
			Kind: model.KindBuy,
			Note: fmt.Sprintf("EMA%d %.2f crossed above EMA%d %.2f", v.cfg.EMAFast, f, v.cfg.EMASlow, s),
		}, true
	case v.cfg.EMACrossunder && pf > ps && f < s:
		return model.Signal{
			Name: "EMA Crossunder",
			Kind: model.KindSell,
			Note: fmt.Sprintf("EMA%d %.2f crossed below EMA%d %.2f", v.cfg.EMAFast, f, v.cfg.EMASlow, s),
		}, true
	}
	return model.Signal{}, false
}

// openingRangeBreakout compares the latest close with the range of the
// latest trading day's first orb_minutes (bounds inclusive).
func openingRangeBreakout(v view) (model.Signal, bool) {
	latest := v.candle(0)
	start := v.session.OpenOn(latest.Time)
	end := start.Add(time.Duration(v.cfg.ORBMinutes) * time.Minute)

	high, low := math.Inf(-1), math.Inf(1)
	found := false
	for _, c := range v.series.Candles[:v.i+1] {
		if c.Time.Before(start) || c.Time.After(end) {
			continue
		}
		found = true
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	if !found {
		return model.Signal{}, false
	}

	switch {
	case latest.Close > high:
		return model.Signal{
			Name: "ORB Breakout",
			Kind: model.KindBuy,
			Note: fmt.Sprintf("close %.2f > range high %.2f", latest.Close, high),
		}, true
	case latest.Close < low:
		return model.Signal{
			Name: "ORB Breakdown",
			Kind: model.KindSell,
			Note: fmt.Sprintf("close %.2f < range low %.2f", latest.Close, low),
		}, true
	}
	return model.Signal{}, false
}

func gapAndGo(v view) (model.Signal, bool) {
	if v.i < 1 {
		return model.Signal{}, false
	}
	cur, prev := v.candle(0), v.candle(1)
	prevClose := decimal.NewFromFloat(prev.Close)
	gap := decimal.NewFromFloat(cur.Open).Sub(prevClose).Div(prevClose).Mul(hundred)
	if gap.Abs().LessThan(decimal.NewFromFloat(v.cfg.GapPercent)) {
		return model.Signal{}, false
	}
	pct, _ := gap.Float64()

	switch {
	case gap.IsPositive() && cur.Close > cur.Open:
		return model.Signal{Name: "Gap Up & Go", Kind: model.KindBuy, Note: fmt.Sprintf("gap %+.2f%%", pct)}, true
	case gap.IsNegative() && cur.Close < cur.Open:
		return model.Signal{Name: "Gap Down & Go", Kind: model.KindSell, Note: fmt.Sprintf("gap %+.2f%%", pct)}, true
	}
	return model.Signal{}, false
}

func volumeBreakout(v view) (model.Signal, bool) {
	vol, avg := v.candle(0).Volume, v.ind.VolumeSMA[v.i]
	if vol > v.cfg.VolumeMultiplier*avg {
		return model.Signal{
			Name: "Volume Breakout",
			Kind: model.KindBuy,
			Note: fmt.Sprintf("volume %.0f vs avg %.0f", vol, avg),
		}, true
	}
	return model.Signal{}, false
}

// supportResistance measures distances in decimal so the tolerance is exact.
func supportResistance(v view) (model.Signal, bool) {
	c := v.candle(0).Close
	support, resistance := v.ind.Support[v.i], v.ind.Resistance[v.i]
	tolerance := decimal.NewFromFloat(v.cfg.SRTolerance)
	near := func(level float64) bool {
		if math.IsNaN(level) || math.IsInf(level, 0) {
			return false
		}
		return decimal.NewFromFloat(c).Sub(decimal.NewFromFloat(level)).Abs().LessThanOrEqual(tolerance)
	}

	switch {
	case near(support):
		return model.Signal{
			Name: "Reversal @ Support",
			Kind: model.KindBuy,
			Note: fmt.Sprintf("close %.2f near support %.2f", c, support),
		}, true
	case near(resistance):
		return model.Signal{
			Name: "Reversal @ Resistance",
			Kind: model.KindSell,
			Note: fmt.Sprintf("close %.2f near resistance %.2f", c, resistance),
		}, true
	}
	return model.Signal{}, false
}

// crossover is the single-outcome profile: momentum, trend and price location
// must all agree for BUY or SELL.
func crossover(v view) model.Signal {
	c := v.candle(0).Close
	rsi, macd, sig, vwap := v.ind.RSI[v.i], v.ind.MACD[v.i], v.ind.MACDSignal[v.i], v.ind.VWAP[v.i]
	note := fmt.Sprintf("RSI: %.2f, MACD: %.4f, Signal: %.4f, VWAP: %.2f", rsi, macd, sig, vwap)

	switch {
	case rsi > v.cfg.RSIBuy && macd > sig && c > vwap:
		return model.Signal{Name: string(model.KindBuy), Kind: model.KindBuy, Note: note}
	case rsi < v.cfg.RSISell && macd < sig && c < vwap:
		return model.Signal{Name: string(model.KindSell), Kind: model.KindSell, Note: note}
	}
	s := model.Neutral
	s.Note = note
	return s
}

package calculator

import (
	"errors"
	"fmt"
	"math"

	"IntradayScreener/internal/model"
)

var (
	errInvalidPeriod  = errors.New("invalid period")
	errNoData         = errors.New("no data")
	errUnknownEngine  = errors.New("unknown indicator engine")
	errLengthMismatch = errors.New("indicator length does not match series length")
)

// Params selects the indicator columns to compute. A zero period leaves the
// column out, and it then does not take part in the warm-up.
type Params struct {
	RSIPeriod    int
	EMAFast      int
	EMASlow      int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	VolumePeriod int
	RangePeriod  int
	// VWAP makes undefined VWAP rows (zero cumulative volume) part of the
	// warm-up. The column itself is always computed.
	VWAP       bool
	VWAPAnchor VWAPAnchor
	Session    model.Session
}

func (p Params) macd() bool { return p.MACDFast > 0 && p.MACDSlow > 0 && p.MACDSignal > 0 }

// Columns are the raw outputs of a TA library. Warm-up values are whatever the
// library emits there; Compute masks them.
type Columns struct {
	RSI        []float64
	EMAFast    []float64
	EMASlow    []float64
	MACD       []float64
	MACDSignal []float64
	VolumeSMA  []float64
}

// Engine computes library-backed indicator columns for a series.
type Engine interface {
	Name() string
	Columns(series *model.Series, p Params) (*Columns, error)
}

// NewEngine returns the engine registered under name ("gctta" or "techan").
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", GCTTAName:
		return GCTTA{}, nil
	case TechanName:
		return Techan{}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownEngine, name)
	}
}

// Lookbacks: index of the first defined value for a given period.
func rsiLookback(period int) int { return period }
func maLookback(period int) int { return period - 1 }
func macdLookback(slow, sig int) int { return slow + sig - 2 }
func rangeLookback(period int) int { return period - 1 }

// Compute builds the IndicatorSet for series: library columns from e, VWAP and
// the rolling support/resistance window locally, warm-up rows set to NaN.
func Compute(e Engine, series *model.Series, p Params) (*model.IndicatorSet, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("compute indicators %w", errNoData)
	}
	for _, period := range []int{p.RSIPeriod, p.EMAFast, p.EMASlow, p.MACDFast, p.MACDSlow, p.MACDSignal, p.VolumePeriod, p.RangePeriod} {
		if period < 0 {
			return nil, fmt.Errorf("compute indicators %w %d", errInvalidPeriod, period)
		}
	}
	if p.RSIPeriod == 1 {
		return nil, fmt.Errorf("compute indicators rsi %w %d", errInvalidPeriod, p.RSIPeriod)
	}

	cols, err := e.Columns(series, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	n := series.Len()
	set := &model.IndicatorSet{}
	warm := 0
	var lengthErr error
	mask := func(col []float64, lookback int) []float64 {
		if col == nil {
			return nil
		}
		if len(col) != n {
			lengthErr = fmt.Errorf("%s: %w (%d != %d)", e.Name(), errLengthMismatch, len(col), n)
			return undefined(n)
		}
		for i := 0; i < lookback && i < n; i++ {
			col[i] = math.NaN()
		}
		if lookback > warm {
			warm = lookback
		}
		return col
	}

	if p.RSIPeriod > 0 {
		set.RSI = mask(cols.RSI, rsiLookback(p.RSIPeriod))
	}
	if p.EMAFast > 0 {
		set.EMAFast = mask(cols.EMAFast, maLookback(p.EMAFast))
	}
	if p.EMASlow > 0 {
		set.EMASlow = mask(cols.EMASlow, maLookback(p.EMASlow))
	}
	if p.macd() {
		lb := macdLookback(max(p.MACDFast, p.MACDSlow), p.MACDSignal)
		set.MACD = mask(cols.MACD, lb)
		set.MACDSignal = mask(cols.MACDSignal, lb)
	}
	if p.VolumePeriod > 0 {
		set.VolumeSMA = mask(cols.VolumeSMA, maLookback(p.VolumePeriod))
	}
	if p.RangePeriod > 0 {
		set.Support = mask(RollingMin(series.Lows(), p.RangePeriod), rangeLookback(p.RangePeriod))
		set.Resistance = mask(RollingMax(series.Highs(), p.RangePeriod), rangeLookback(p.RangePeriod))
	}

	if lengthErr != nil {
		return nil, lengthErr
	}

	set.VWAP = VWAP(series, p.VWAPAnchor, p.Session)
	if p.VWAP {
		for i := warm; i < n && math.IsNaN(set.VWAP[i]); i++ {
			warm = i + 1
		}
	}
	set.WarmUp = warm
	return set, nil
}

// enough reports whether values are long enough for the library call to be safe.
func enough(values []float64, lookback int) bool {
	return lookback >= 0 && len(values) > lookback
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

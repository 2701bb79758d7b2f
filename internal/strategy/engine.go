package strategy

import (
	"errors"
	"fmt"
	"math"

	"IntradayScreener/internal/calculator"
	"IntradayScreener/internal/model"
)

var (
	// ErrInsufficientData means the series is shorter than the warm-up window.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidSeries means the close column holds unusable values.
	ErrInvalidSeries = errors.New("invalid close price")
	// ErrIndicator wraps failures of the indicator engine.
	ErrIndicator = errors.New("indicator computation failed")
)

// Evaluation is the outcome for one series.
type Evaluation struct {
	Signals  []model.Signal
	Snapshot model.Snapshot
}

// Evaluator turns a series into signals. It holds no per-series state and is
// safe for concurrent use.
type Evaluator struct {
	cfg     Config
	session model.Session
	engine  calculator.Engine
	rules   []rule
}

// NewEvaluator validates cfg and builds an evaluator for the given session.
func NewEvaluator(cfg Config, session model.Session) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := calculator.NewEngine(cfg.IndicatorEngine)
	if err != nil {
		return nil, err
	}
	e := &Evaluator{cfg: cfg, session: session, engine: engine}
	for _, name := range AllRules {
		if cfg.enabled(name) {
			e.rules = append(e.rules, ruleSet[name])
		}
	}
	return e, nil
}

// Config returns the evaluator's configuration.
func (e *Evaluator) Config() Config { return e.cfg }

// params requests only the columns the active rules read, so unused
// indicators do not lengthen the warm-up.
func (e *Evaluator) params() calculator.Params {
	p := calculator.Params{
		VWAPAnchor: calculator.VWAPAnchor(e.cfg.VWAPAnchor),
		Session:    e.session,
	}
	if e.cfg.Profile == ProfileCrossover {
		p.RSIPeriod, p.VWAP = e.cfg.RSIPeriod, true
		p.MACDFast, p.MACDSlow, p.MACDSignal = e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal
		return p
	}
	if e.cfg.enabled(RuleRSIVWAP) {
		p.RSIPeriod, p.VWAP = e.cfg.RSIPeriod, true
	}
	if e.cfg.enabled(RuleEMACrossover) {
		p.EMAFast, p.EMASlow = e.cfg.EMAFast, e.cfg.EMASlow
	}
	if e.cfg.enabled(RuleVolumeBreakout) {
		p.VolumePeriod = e.cfg.VolumePeriod
	}
	if e.cfg.enabled(RuleSupportResistance) {
		p.RangePeriod = e.cfg.RangePeriod
	}
	return p
}

// Evaluate returns the signals for the latest candle of series.
func (e *Evaluator) Evaluate(series *model.Series) ([]model.Signal, error) {
	ev, err := e.Analyze(series)
	if err != nil {
		return nil, err
	}
	return ev.Signals, nil
}

// Analyze is Evaluate plus the indicator snapshot of the latest candle.
func (e *Evaluator) Analyze(series *model.Series) (*Evaluation, error) {
	n := series.Len()
	if n < e.cfg.MinCandles {
		return nil, fmt.Errorf("%w: %d candles, need %d", ErrInsufficientData, n, e.cfg.MinCandles)
	}
	for _, c := range series.Candles {
		if math.IsNaN(c.Close) || math.IsInf(c.Close, 0) || c.Close <= 0 {
			return nil, fmt.Errorf("%w at %s", ErrInvalidSeries, c.Time.Format("2006-01-02 15:04"))
		}
	}

	set, err := calculator.Compute(e.engine, series, e.params())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndicator, err)
	}
	last := n - 1
	if last < set.WarmUp {
		return nil, fmt.Errorf("%w: %d candles, warm-up needs %d", ErrInsufficientData, n, set.WarmUp+1)
	}

	v := view{series: series, ind: set, i: last, cfg: &e.cfg, session: e.session}
	var signals []model.Signal
	if e.cfg.Profile == ProfileCrossover {
		signals = []model.Signal{crossover(v)}
	} else {
		for _, r := range e.rules {
			if sig, ok := r(v); ok {
				signals = append(signals, sig)
			}
		}
		if len(signals) == 0 {
			signals = []model.Signal{model.NoSetup}
		}
	}

	return &Evaluation{Signals: signals, Snapshot: snapshot(v)}, nil
}

func snapshot(v view) model.Snapshot {
	at := func(col []float64) float64 {
		if col == nil {
			return math.NaN()
		}
		return col[v.i]
	}
	latest := v.candle(0)
	return model.Snapshot{
		Time:       latest.Time.Unix(),
		Close:      latest.Close,
		RSI:        at(v.ind.RSI),
		VWAP:       at(v.ind.VWAP),
		MACD:       at(v.ind.MACD),
		MACDSignal: at(v.ind.MACDSignal),
		EMAFast:    at(v.ind.EMAFast),
		EMASlow:    at(v.ind.EMASlow),
	}
}

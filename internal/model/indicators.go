package model

// IndicatorSet holds per-candle indicator columns aligned with a Series.
// Undefined values are NaN; a column that was not requested is nil.
type IndicatorSet struct {
	RSI        []float64
	MACD       []float64
	MACDSignal []float64
	VWAP       []float64
	EMAFast    []float64
	EMASlow    []float64
	VolumeSMA  []float64
	Support    []float64
	Resistance []float64

	// WarmUp is the first index at which every requested column is defined.
	WarmUp int
}

// Snapshot is the indicator state of the latest candle, kept for reports and the scan journal.
type Snapshot struct {
	Time       int64
	Close      float64
	RSI        float64
	VWAP       float64
	MACD       float64
	MACDSignal float64
	EMAFast    float64
	EMASlow    float64
}

package model

import (
	"strings"
	"time"
)

// Kind is the trade direction a signal points to.
type Kind string

const (
	KindBuy     Kind = "BUY"
	KindSell    Kind = "SELL"
	KindNeutral Kind = "NEUTRAL"
)

// Signal is one rule outcome for the latest candle.
type Signal struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Note string `json:"note,omitempty"`
}

// NoSetup is reported when no rule fired.
var NoSetup = Signal{Name: "No setup", Kind: KindNeutral}

// Neutral is the crossover profile's "nothing to do" outcome.
var Neutral = Signal{Name: string(KindNeutral), Kind: KindNeutral}

// Fired reports whether the signal is actionable.
func (s Signal) Fired() bool { return s.Kind == KindBuy || s.Kind == KindSell }

// Row is the scan outcome for one symbol.
type Row struct {
	Symbol   string    `json:"symbol"`
	Signals  []Signal  `json:"signals,omitempty"`
	Label    string    `json:"label"`
	Error    string    `json:"error,omitempty"`
	Err      error     `json:"-"`
	Snapshot *Snapshot `json:"-"`
}

// Fired returns the actionable signals of the row.
func (r Row) Fired() []Signal {
	var out []Signal
	for _, s := range r.Signals {
		if s.Fired() {
			out = append(out, s)
		}
	}
	return out
}

// SignalNames joins the signal names with ", ".
func SignalNames(signals []Signal) string {
	names := make([]string, len(signals))
	for i, s := range signals {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

// ScanResult is the output of one pass over a symbol list.
type ScanResult struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Interval   Interval  `json:"interval"`
	Lookback   int       `json:"lookback_days"`
	Rows       []Row     `json:"rows"`
}

package strategy

import (
	"fmt"

	"IntradayScreener/internal/calculator"
)

// Profile selects the rule set.
type Profile string

const (
	// ProfileMulti reports every pattern rule that fired.
	ProfileMulti Profile = "multi"
	// ProfileCrossover reports a single BUY, SELL or NEUTRAL.
	ProfileCrossover Profile = "crossover"
)

// Rule identifiers accepted in Config.Rules.
const (
	RuleRSIVWAP           = "rsi_vwap"
	RuleEMACrossover      = "ema_crossover"
	RuleORB               = "orb"
	RuleGapAndGo          = "gap_and_go"
	RuleVolumeBreakout    = "volume_breakout"
	RuleSupportResistance = "support_resistance"
)

// AllRules is the evaluation order of the multi profile.
var AllRules = []string{
	RuleRSIVWAP,
	RuleEMACrossover,
	RuleORB,
	RuleGapAndGo,
	RuleVolumeBreakout,
	RuleSupportResistance,
}

// Config holds every threshold and period used by the evaluator.
type Config struct {
	Profile         Profile  `yaml:"profile"`
	IndicatorEngine string   `yaml:"indicator_engine"`
	Rules           []string `yaml:"rules"`
	MinCandles      int      `yaml:"min_candles"`

	RSIPeriod    int    `yaml:"rsi_period"`
	EMAFast      int    `yaml:"ema_fast"`
	EMASlow      int    `yaml:"ema_slow"`
	MACDFast     int    `yaml:"macd_fast"`
	MACDSlow     int    `yaml:"macd_slow"`
	MACDSignal   int    `yaml:"macd_signal"`
	VolumePeriod int    `yaml:"volume_period"`
	RangePeriod  int    `yaml:"range_period"`
	VWAPAnchor   string `yaml:"vwap_anchor"`

	RSIThreshold     float64 `yaml:"rsi_threshold"`
	RSIBuy           float64 `yaml:"rsi_buy"`
	RSISell          float64 `yaml:"rsi_sell"`
	GapPercent       float64 `yaml:"gap_percent"`
	VolumeMultiplier float64 `yaml:"volume_multiplier"`
	SRTolerance      float64 `yaml:"sr_tolerance"`
	ORBMinutes       int     `yaml:"orb_minutes"`
	EMACrossunder    bool    `yaml:"ema_crossunder"`
}

// DefaultConfig returns the thresholds of the dashboard screener.
func DefaultConfig() Config {
	c := Config{
		RSIThreshold:     55,
		RSIBuy:           55,
		RSISell:          45,
		GapPercent:       2,
		VolumeMultiplier: 2,
		SRTolerance:      0.5,
	}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero periods, names and the rule list. Thresholds are
// left alone because zero is a valid threshold; start from DefaultConfig to
// get their defaults.
func (c *Config) ApplyDefaults() {
	if c.Profile == "" {
		c.Profile = ProfileMulti
	}
	if c.IndicatorEngine == "" {
		c.IndicatorEngine = calculator.GCTTAName
	}
	if len(c.Rules) == 0 {
		c.Rules = append([]string(nil), AllRules...)
	}
	if c.MinCandles == 0 {
		c.MinCandles = 20
	}
	if c.RSIPeriod == 0 {
		c.RSIPeriod = 14
	}
	if c.EMAFast == 0 {
		c.EMAFast = 5
	}
	if c.EMASlow == 0 {
		c.EMASlow = 20
	}
	if c.MACDFast == 0 {
		c.MACDFast = 12
	}
	if c.MACDSlow == 0 {
		c.MACDSlow = 26
	}
	if c.MACDSignal == 0 {
		c.MACDSignal = 9
	}
	if c.VolumePeriod == 0 {
		c.VolumePeriod = 10
	}
	if c.RangePeriod == 0 {
		c.RangePeriod = 20
	}
	if c.VWAPAnchor == "" {
		c.VWAPAnchor = string(calculator.AnchorSeries)
	}
	if c.ORBMinutes == 0 {
		c.ORBMinutes = 15
	}
}

// Validate checks the configuration for values the evaluator cannot use.
func (c *Config) Validate() error {
	switch c.Profile {
	case ProfileMulti, ProfileCrossover:
	default:
		return fmt.Errorf("strategy.profile %q is not one of %q, %q", c.Profile, ProfileMulti, ProfileCrossover)
	}
	if _, err := calculator.NewEngine(c.IndicatorEngine); err != nil {
		return fmt.Errorf("strategy.indicator_engine: %w", err)
	}
	for _, r := range c.Rules {
		if !knownRule(r) {
			return fmt.Errorf("strategy.rules: unknown rule %q", r)
		}
	}
	switch calculator.VWAPAnchor(c.VWAPAnchor) {
	case calculator.AnchorSeries, calculator.AnchorSession:
	default:
		return fmt.Errorf("strategy.vwap_anchor %q is not one of %q, %q", c.VWAPAnchor, calculator.AnchorSeries, calculator.AnchorSession)
	}
	if c.RSIPeriod < 2 {
		return fmt.Errorf("strategy.rsi_period must be at least 2")
	}
	if c.EMAFast <= 0 || c.EMASlow <= 0 || c.EMAFast >= c.EMASlow {
		return fmt.Errorf("strategy.ema_fast must be positive and below ema_slow")
	}
	if c.MACDFast <= 0 || c.MACDSlow <= 0 || c.MACDSignal <= 0 || c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("strategy.macd periods must be positive with macd_fast below macd_slow")
	}
	if c.VolumePeriod <= 0 || c.RangePeriod <= 0 || c.ORBMinutes <= 0 {
		return fmt.Errorf("strategy.volume_period, range_period and orb_minutes must be positive")
	}
	if c.MinCandles < 2 {
		return fmt.Errorf("strategy.min_candles must be at least 2")
	}
	if c.RSISell > c.RSIBuy {
		return fmt.Errorf("strategy.rsi_sell must not exceed rsi_buy")
	}
	if c.SRTolerance < 0 || c.GapPercent < 0 || c.VolumeMultiplier < 0 {
		return fmt.Errorf("strategy thresholds must not be negative")
	}
	return nil
}

func knownRule(name string) bool {
	for _, r := range AllRules {
		if r == name {
			return true
		}
	}
	return false
}

func (c *Config) enabled(rule string) bool {
	for _, r := range c.Rules {
		if r == rule {
			return true
		}
	}
	return false
}

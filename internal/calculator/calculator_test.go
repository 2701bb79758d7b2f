package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IntradayScreener/internal/model"
)

var testStart = time.Date(2024, 3, 4, 3, 45, 0, 0, time.UTC) // 09:15 IST

func makeSeries(n int, closeAt func(i int) float64) *model.Series {
	candles := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		candles[i] = model.Candle{
			Time:   testStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c - 0.2,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000 + float64(i)*10,
		}
	}
	return model.NewSeries("TEST", model.Interval5m, candles)
}

// risingWithDips climbs 0.5 per bar and dips every fourth bar, so losses are never zero.
func risingWithDips(i int) float64 {
	c := 100 + 0.5*float64(i)
	if i%4 == 3 {
		c -= 0.8
	}
	return c
}

func defaultParams() Params {
	return Params{
		RSIPeriod:    14,
		EMAFast:      5,
		EMASlow:      20,
		VolumePeriod: 10,
		RangePeriod:  20,
		VWAP:         true,
		VWAPAnchor:   AnchorSeries,
	}
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine("")
	require.NoError(t, err)
	assert.Equal(t, GCTTAName, e.Name())

	e, err = NewEngine(TechanName)
	require.NoError(t, err)
	assert.Equal(t, TechanName, e.Name())

	_, err = NewEngine("talib")
	assert.ErrorIs(t, err, errUnknownEngine)
}

func TestCompute_WarmUpIsMasked(t *testing.T) {
	for _, e := range []Engine{GCTTA{}, Techan{}} {
		t.Run(e.Name(), func(t *testing.T) {
			series := makeSeries(40, risingWithDips)
			set, err := Compute(e, series, defaultParams())
			require.NoError(t, err)

			assert.Equal(t, 19, set.WarmUp)
			for i := 0; i < 14; i++ {
				assert.True(t, math.IsNaN(set.RSI[i]), "rsi %d", i)
			}
			for i := 0; i < 19; i++ {
				assert.True(t, math.IsNaN(set.EMASlow[i]), "ema slow %d", i)
				assert.True(t, math.IsNaN(set.Support[i]), "support %d", i)
			}
			for i := set.WarmUp; i < series.Len(); i++ {
				assert.False(t, math.IsNaN(set.RSI[i]), "rsi %d", i)
				assert.False(t, math.IsNaN(set.EMAFast[i]), "ema fast %d", i)
				assert.False(t, math.IsNaN(set.EMASlow[i]), "ema slow %d", i)
				assert.False(t, math.IsNaN(set.VolumeSMA[i]), "volume sma %d", i)
				assert.False(t, math.IsNaN(set.VWAP[i]), "vwap %d", i)
			}
			assert.Nil(t, set.MACD, "macd not requested")
		})
	}
}

func TestCompute_EnginesAgreeOnDirection(t *testing.T) {
	series := makeSeries(60, risingWithDips)
	p := defaultParams()
	p.MACDFast, p.MACDSlow, p.MACDSignal = 12, 26, 9

	for _, e := range []Engine{GCTTA{}, Techan{}} {
		t.Run(e.Name(), func(t *testing.T) {
			set, err := Compute(e, series, p)
			require.NoError(t, err)
			last := series.Len() - 1

			assert.Equal(t, 33, set.WarmUp)
			assert.Greater(t, set.RSI[last], 55.0)
			assert.Less(t, set.RSI[last], 100.0)
			assert.Greater(t, set.EMAFast[last], set.EMASlow[last])
			assert.Greater(t, set.MACD[last], 0.0)
			assert.Greater(t, series.Latest().Close, set.VWAP[last])
		})
	}
}

func TestCompute_ShortSeries(t *testing.T) {
	series := makeSeries(10, risingWithDips)
	set, err := Compute(GCTTA{}, series, defaultParams())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, set.WarmUp, series.Len())
	for _, v := range set.EMASlow {
		assert.True(t, math.IsNaN(v))
	}
}

func TestCompute_Errors(t *testing.T) {
	_, err := Compute(GCTTA{}, model.NewSeries("X", model.Interval5m, nil), defaultParams())
	assert.ErrorIs(t, err, errNoData)

	p := defaultParams()
	p.RSIPeriod = -1
	_, err = Compute(GCTTA{}, makeSeries(30, risingWithDips), p)
	assert.ErrorIs(t, err, errInvalidPeriod)

	_, err = Compute(brokenEngine{}, makeSeries(30, risingWithDips), defaultParams())
	assert.ErrorIs(t, err, errLengthMismatch)

	_, err = Compute(failingEngine{}, makeSeries(30, risingWithDips), defaultParams())
	assert.ErrorContains(t, err, "boom")
}

type brokenEngine struct{}

func (brokenEngine) Name() string { return "broken" }
func (brokenEngine) Columns(_ *model.Series, _ Params) (*Columns, error) {
	return &Columns{RSI: []float64{1, 2, 3}}, nil
}

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }
func (failingEngine) Columns(_ *model.Series, _ Params) (*Columns, error) {
	return nil, errors.New("boom")
}

func TestVWAP(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	session := model.Session{Location: ist}

	day1 := time.Date(2024, 3, 4, 10, 0, 0, 0, ist)
	day2 := day1.AddDate(0, 0, 1)
	series := model.NewSeries("X", model.Interval5m, []model.Candle{
		{Time: day1, Open: 10, High: 10, Low: 10, Close: 10, Volume: 100},
		{Time: day1.Add(5 * time.Minute), Open: 20, High: 20, Low: 20, Close: 20, Volume: 300},
		{Time: day2, Open: 30, High: 30, Low: 30, Close: 30, Volume: 100},
	})

	cumulative := VWAP(series, AnchorSeries, session)
	assert.InDelta(t, 10.0, cumulative[0], 1e-9)
	assert.InDelta(t, 17.5, cumulative[1], 1e-9)
	assert.InDelta(t, 20.0, cumulative[2], 1e-9)

	daily := VWAP(series, AnchorSession, session)
	assert.InDelta(t, 17.5, daily[1], 1e-9)
	assert.InDelta(t, 30.0, daily[2], 1e-9)
}

func TestVWAP_ZeroVolume(t *testing.T) {
	series := model.NewSeries("X", model.Interval5m, []model.Candle{
		{Time: testStart, Open: 1, High: 1, Low: 1, Close: 1, Volume: 0},
		{Time: testStart.Add(5 * time.Minute), Open: 2, High: 2, Low: 2, Close: 2, Volume: 10},
	})
	v := VWAP(series, AnchorSeries, model.Session{})
	assert.True(t, math.IsNaN(v[0]))
	assert.InDelta(t, 2.0, v[1], 1e-9)
}

func TestCompute_ZeroVolumeWarmUp(t *testing.T) {
	candles := makeSeries(40, risingWithDips).Candles
	for i := range candles {
		candles[i].Volume = 0
	}
	series := model.NewSeries("^NSEI", model.Interval5m, candles)

	p := Params{EMAFast: 5, EMASlow: 20, VWAPAnchor: AnchorSeries}
	set, err := Compute(GCTTA{}, series, p)
	require.NoError(t, err)
	assert.Equal(t, 19, set.WarmUp, "unread vwap does not extend the warm-up")
	assert.True(t, math.IsNaN(set.VWAP[series.Len()-1]))

	p.VWAP = true
	set, err = Compute(GCTTA{}, series, p)
	require.NoError(t, err)
	assert.Equal(t, series.Len(), set.WarmUp)
}

func TestRollingMinMax(t *testing.T) {
	values := []float64{5, 3, 4, 1, 6, 2}

	lows := RollingMin(values, 3)
	highs := RollingMax(values, 3)
	assert.True(t, math.IsNaN(lows[0]))
	assert.True(t, math.IsNaN(highs[1]))
	assert.Equal(t, []float64{3, 1, 1, 1}, lows[2:])
	assert.Equal(t, []float64{5, 4, 6, 6}, highs[2:])

	for _, v := range RollingMin(values, 0) {
		assert.True(t, math.IsNaN(v))
	}
}

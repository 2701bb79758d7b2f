package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"IntradayScreener/internal/model"
)

// Provider names accepted by New.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderMock  = "mock"
)

// Options selects and configures a Fetcher.
type Options struct {
	// Provider is yahoo, rest or mock. Empty picks rest when BaseURL is set
	// and yahoo otherwise.
	Provider string
	BaseURL  string
	APIKey   string
	Client   ClientOptions
	// Session, when FilterSession is set, restricts candles to trading hours.
	Session       model.Session
	FilterSession bool
}

// New builds the configured Fetcher.
func New(opts Options) (Fetcher, error) {
	provider := opts.Provider
	if provider == "" {
		provider = ProviderYahoo
		if opts.BaseURL != "" {
			provider = ProviderREST
		}
	}

	var f Fetcher
	switch provider {
	case ProviderMock:
		f = &MockFetcher{Price: 1000, Session: opts.Session}
	case ProviderYahoo, ProviderREST:
		client, err := NewClient(opts.Client)
		if err != nil {
			return nil, err
		}
		if provider == ProviderYahoo {
			f = NewYahooFetcher(opts.BaseURL, client)
			break
		}
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("provider %q needs a base url", provider)
		}
		f = NewRESTFetcher(opts.BaseURL, opts.APIKey, client)
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}

	if opts.FilterSession {
		return WithSession(f, opts.Session), nil
	}
	return f, nil
}

// MockFetcher returns controllable data for development and testing.
// Bars and Errors are looked up by symbol; other symbols get a generated
// intraday wave around Price, or ErrNoData when Price is zero.
type MockFetcher struct {
	Bars    map[string][]model.Candle
	Errors  map[string]error
	Price   float64
	Session model.Session
	Now     func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(ctx context.Context, symbol string, interval model.Interval, lookbackDays int) (*model.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRequest(symbol, interval, lookbackDays); err != nil {
		return nil, fmt.Errorf("mock %s: %w", symbol, err)
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}

	var candles []model.Candle
	if bars, ok := m.Bars[symbol]; ok {
		candles = bars
	} else if m.Price > 0 {
		candles = m.generate(symbol, interval, lookbackDays)
	}

	series := model.NewSeries(symbol, interval, candles)
	if series.Len() == 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}
	return series, nil
}

// generate walks every weekday session of the lookback window up to now.
// The wave phase depends on the symbol so different symbols differ.
func (m *MockFetcher) generate(symbol string, interval model.Interval, lookbackDays int) []model.Candle {
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	h := fnv.New32a()
	h.Write([]byte(symbol))
	phase := float64(h.Sum32()%628) / 100

	var out []model.Candle
	k := 0
	prev := m.Price
	for d := lookbackDays - 1; d >= 0; d-- {
		day := now.AddDate(0, 0, -d)
		if wd := m.Session.In(day).Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		end := m.Session.CloseOn(day)
		for t := m.Session.OpenOn(day); !t.After(end) && !t.After(now); t = t.Add(interval.Duration()) {
			p := m.Price * (1 + 0.01*math.Sin(float64(k)/6+phase))
			out = append(out, model.Candle{
				Time:   t,
				Open:   prev,
				High:   math.Max(prev, p) * 1.001,
				Low:    math.Min(prev, p) * 0.999,
				Close:  p,
				Volume: 100000 * (1 + 0.5*math.Abs(math.Sin(float64(k)/4))),
			})
			prev = p
			k++
		}
	}
	return out
}

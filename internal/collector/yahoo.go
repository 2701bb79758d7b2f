package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"IntradayScreener/internal/model"
)

// DefaultYahooURL is the public Yahoo Finance host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance v8 chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *Client
	SymbolMap map[string]string // maps screener symbol to Yahoo ticker
	logger    zerolog.Logger
}

// NewYahooFetcher creates a Yahoo fetcher. An empty baseURL selects DefaultYahooURL.
func NewYahooFetcher(baseURL string, client *Client) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		SymbolMap: map[string]string{
			"NIFTY":     "^NSEI",
			"NIFTY50":   "^NSEI",
			"BANKNIFTY": "^NSEBANK",
			"SENSEX":    "^BSESN",
		},
		logger: log.With().Str("component", "yahoo_fetcher").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Quote values are pointers because Yahoo reports missing bars as null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch downloads lookbackDays of interval candles.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol string, interval model.Interval, lookbackDays int) (*model.Series, error) {
	if err := checkRequest(symbol, interval, lookbackDays); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}

	q := url.Values{}
	q.Set("interval", string(interval))
	q.Set("range", fmt.Sprintf("%dd", lookbackDays))
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())
	f.logger.Debug().Str("symbol", symbol).Str("url", endpoint).Msg("Fetching candles")

	body, err := f.Client.Get(ctx, endpoint, http.Header{"User-Agent": {"Mozilla/5.0"}})
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo %s: %w: %s", symbol, ErrNoData, chart.Chart.Error.Description)
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		v, okV := at(quote.Volume, i)
		if !okO || !okH || !okL || !okC || !okV {
			continue // null bar
		}
		candles = append(candles, model.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	series := model.NewSeries(symbol, interval, candles)
	if series.Len() == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return series, nil
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

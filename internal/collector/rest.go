package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"IntradayScreener/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted bars endpoint.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *Client
	logger  zerolog.Logger
}

// NewRESTFetcher creates a fetcher for {baseURL}/api/v1/bars.
func NewRESTFetcher(baseURL, apiKey string, client *Client) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
		logger:  log.With().Str("component", "rest_fetcher").Logger(),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars endpoint.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Fetch calls GET {base}/api/v1/bars?symbol=&interval=&days=.
func (f *RESTFetcher) Fetch(ctx context.Context, symbol string, interval model.Interval, lookbackDays int) (*model.Series, error) {
	if err := checkRequest(symbol, interval, lookbackDays); err != nil {
		return nil, fmt.Errorf("rest %s: %w", symbol, err)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(interval))
	q.Set("days", strconv.Itoa(lookbackDays))
	endpoint := f.BaseURL + "/api/v1/bars?" + q.Encode()
	f.logger.Debug().Str("symbol", symbol).Str("url", endpoint).Msg("Fetching candles")

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	body, err := f.Client.Get(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}

	var bars []restBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("decode bars %s: %w", symbol, err)
	}
	candles := make([]model.Candle, len(bars))
	for i, b := range bars {
		candles[i] = model.Candle{
			Time:   time.Unix(b.Timestamp, 0).UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	series := model.NewSeries(symbol, interval, candles)
	if series.Len() == 0 {
		return nil, fmt.Errorf("rest %s: %w", symbol, ErrNoData)
	}
	return series, nil
}

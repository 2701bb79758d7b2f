package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IntradayScreener/internal/model"
)

var (
	ist = time.FixedZone("IST", 5*3600+30*60)
	nse = model.Session{Location: ist, Open: model.Clock{Hour: 9, Minute: 15}, Close: model.Clock{Hour: 15, Minute: 30}}
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{Timeout: 5 * time.Second, RequestsPerSec: 100})
	require.NoError(t, err)
	return c
}

func TestValidateLookback(t *testing.T) {
	for _, days := range []int{1, 5, 10} {
		assert.NoError(t, ValidateLookback(days))
	}
	for _, days := range []int{-1, 0, 11} {
		assert.ErrorIs(t, ValidateLookback(days), ErrLookbackRange)
	}
}

const yahooBody = `{"chart":{"result":[{
  "timestamp":[1709523900,1709524200,1709524500],
  "indicators":{"quote":[{
    "open":[100.0,null,101.0],
    "high":[101.0,null,102.5],
    "low":[99.5,null,100.5],
    "close":[100.5,null,102.0],
    "volume":[1200,null,1500]
  }]}
}],"error":null}}`

func TestYahooFetcher_Fetch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, testClient(t))
	series, err := f.Fetch(context.Background(), "RELIANCE.NS", model.Interval5m, 3)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/RELIANCE.NS", gotPath)
	assert.Equal(t, "interval=5m&range=3d", gotQuery)
	require.Equal(t, 2, series.Len(), "null bar dropped")
	assert.Equal(t, []float64{100.5, 102.0}, series.Closes())
	assert.Equal(t, time.Unix(1709523900, 0).UTC(), series.Candles[0].Time)
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	_, err := NewYahooFetcher(srv.URL, testClient(t)).Fetch(context.Background(), "NIFTY", model.Interval15m, 1)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^NSEI", gotPath)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		noData bool
	}{
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, true},
		{"all null", http.StatusOK, `{"chart":{"result":[{"timestamp":[1709523900],"indicators":{"quote":[{"open":[null],"high":[null],"low":[null],"close":[null],"volume":[null]}]}}]}}`, true},
		{"unknown symbol", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, true},
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"bad json", http.StatusOK, `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewYahooFetcher(srv.URL, testClient(t)).Fetch(context.Background(), "XYZ", model.Interval5m, 2)
			require.Error(t, err)
			assert.Equal(t, tt.noData, errors.Is(err, ErrNoData), err.Error())
		})
	}
}

func TestYahooFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewYahooFetcher(srv.URL, testClient(t)).Fetch(context.Background(), "XYZ", model.Interval5m, 2)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestFetch_RejectsBadRequests(t *testing.T) {
	f := NewYahooFetcher("http://127.0.0.1:1", testClient(t))
	_, err := f.Fetch(context.Background(), "X", model.Interval5m, 11)
	assert.ErrorIs(t, err, ErrLookbackRange)

	_, err = f.Fetch(context.Background(), "X", model.Interval("1h"), 2)
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "", model.Interval5m, 2)
	assert.Error(t, err)
}

func TestRESTFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "INFY.NS", r.URL.Query().Get("symbol"))
		assert.Equal(t, "30m", r.URL.Query().Get("interval"))
		assert.Equal(t, "4", r.URL.Query().Get("days"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[
			{"timestamp":1709525700,"open":2,"high":3,"low":1,"close":2.5,"volume":10},
			{"timestamp":1709523900,"open":1,"high":2,"low":0.5,"close":1.5,"volume":20}
		]`)
	}))
	defer srv.Close()

	series, err := NewRESTFetcher(srv.URL+"/", "secret", testClient(t)).Fetch(context.Background(), "INFY.NS", model.Interval30m, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, series.Closes(), "sorted oldest first")
}

func TestRESTFetcher_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := NewRESTFetcher(srv.URL, "", testClient(t)).Fetch(context.Background(), "INFY.NS", model.Interval5m, 1)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSessionFilter(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, ist)
	at := func(h, m int) model.Candle {
		return model.Candle{Time: day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute).UTC(), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	}
	mock := &MockFetcher{Bars: map[string][]model.Candle{
		"A": {at(9, 10), at(9, 15), at(12, 0), at(15, 30), at(15, 35)},
		"B": {at(8, 0), at(16, 0)},
	}}
	f := WithSession(mock, nse)

	series, err := f.Fetch(context.Background(), "A", model.Interval5m, 1)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, "09:15", series.Candles[0].Time.Format("15:04"))
	assert.Equal(t, "15:30", series.Latest().Time.Format("15:04"))
	assert.Equal(t, ist, series.Candles[0].Time.Location())

	_, err = f.Fetch(context.Background(), "B", model.Interval5m, 1)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, "mock", f.Name())
}

func TestMockFetcher(t *testing.T) {
	boom := errors.New("boom")
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, ist) // Wednesday
	m := &MockFetcher{
		Errors:  map[string]error{"BAD": boom},
		Price:   500,
		Session: nse,
		Now:     func() time.Time { return now },
	}

	_, err := m.Fetch(context.Background(), "BAD", model.Interval5m, 2)
	assert.ErrorIs(t, err, boom)

	series, err := m.Fetch(context.Background(), "GOOD", model.Interval15m, 3)
	require.NoError(t, err)
	// Two full sessions of 26 bars each (09:15..15:30) plus 09:15..12:00 today.
	assert.Equal(t, 26+26+12, series.Len())
	assert.False(t, series.Latest().Time.After(now))

	again, err := m.Fetch(context.Background(), "GOOD", model.Interval15m, 3)
	require.NoError(t, err)
	assert.Equal(t, series.Closes(), again.Closes())

	empty := &MockFetcher{}
	_, err = empty.Fetch(context.Background(), "GOOD", model.Interval5m, 1)
	assert.ErrorIs(t, err, ErrNoData)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Fetch(ctx, "GOOD", model.Interval5m, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	f, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, "yahoo", f.Name())

	f, err = New(Options{BaseURL: "http://bars.local"})
	require.NoError(t, err)
	assert.Equal(t, "rest", f.Name())

	f, err = New(Options{Provider: ProviderMock, Session: nse, FilterSession: true})
	require.NoError(t, err)
	assert.IsType(t, &SessionFilter{}, f)

	_, err = New(Options{Provider: ProviderREST})
	assert.Error(t, err)
	_, err = New(Options{Provider: "bloomberg"})
	assert.Error(t, err)
	_, err = New(Options{Client: ClientOptions{ProxyURL: "://bad"}})
	assert.Error(t, err)
}

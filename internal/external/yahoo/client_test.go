package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/pkg/config"
	"github.com/wonny/catalyst-alpha/pkg/httputil"
	"github.com/wonny/catalyst-alpha/pkg/logger"
	"github.com/wonny/catalyst-alpha/pkg/redis"
)

// 2024-12-18..20 09:30 America/New_York, gmtoffset -18000
const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "ITCI", "gmtoffset": -18000},
      "timestamp": [1734532200, 1734618600, 1734705000],
      "indicators": {
        "quote": [{"close": [101.5, 102.0, 99.0]}],
        "adjclose": [{"adjclose": [101.0, null, 98.5]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, cache *redis.Cache) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{HTTP: config.HTTPConfig{Timeout: 5 * time.Second, RequestsPerSec: 1000, Burst: 10}}
	return NewClient(httputil.New(cfg, logger.Nop()).DisableRetry(), server.URL, cache, 0, logger.Nop())
}

func TestDailyCloses(t *testing.T) {
	from := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/ITCI", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, fmt.Sprint(from.Unix()), q.Get("period1"))
		assert.Equal(t, fmt.Sprint(to.Unix()), q.Get("period2"))
		assert.Equal(t, "1d", q.Get("interval"))
		assert.Equal(t, "true", q.Get("includeAdjustedClose"))
		fmt.Fprint(w, chartBody)
	}, nil)

	points, err := client.DailyCloses(context.Background(), "itci", from, to)
	require.NoError(t, err)

	assert.Equal(t, []contracts.PricePoint{
		{Date: time.Date(2024, 12, 18, 0, 0, 0, 0, time.UTC), AdjClose: 101.0},
		{Date: time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC), AdjClose: 98.5},
	}, points)
}

func TestDailyCloses_RangeIsHalfOpen(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}, nil)

	points, err := client.DailyCloses(context.Background(), "ITCI",
		time.Date(2024, 12, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, points, "the only close in range is null")
}

func TestDailyCloses_UnknownSymbol(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"404", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
		}},
		{"error body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		}},
		{"empty result", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler, redis.NewCache(redis.Disabled(), "test"))
			points, err := client.DailyCloses(context.Background(), "DELISTED", time.Now().AddDate(-1, 0, 0), time.Now())
			require.NoError(t, err)
			assert.NotNil(t, points)
			assert.Empty(t, points)
		})
	}
}

func TestDailyCloses_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, nil)
		_, err := client.DailyCloses(context.Background(), "ITCI", time.Now().AddDate(-1, 0, 0), time.Now())
		assert.Error(t, err)
	})

	t.Run("chart error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`)
		}, nil)
		_, err := client.DailyCloses(context.Background(), "ITCI", time.Now().AddDate(-1, 0, 0), time.Now())
		assert.ErrorContains(t, err, "Bad Request")
	})
}

package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/pkg/httputil"
	"github.com/wonny/catalyst-alpha/pkg/logger"
	"github.com/wonny/catalyst-alpha/pkg/redis"
)

// DefaultBaseURL is the Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches adjusted daily closes from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	cacheTTL   time.Duration
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a chart client. cache may be nil.
func NewClient(httpClient *httputil.Client, baseURL string, cache *redis.Cache, cacheTTL time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cacheTTL <= 0 {
		cacheTTL = redis.TTLDaily
	}
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     log.WithComponent("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// DailyCloses returns adjusted closes for symbol over [from, to).
// Unknown symbols yield an empty slice; rows with a null close are dropped.
func (c *Client) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := redis.PriceSeriesKey(symbol, from, to)

	if c.cache != nil {
		var cached []contracts.PricePoint
		hit, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Price cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	var resp chartResponse
	err := c.httpClient.GetJSON(ctx, c.chartURL(symbol, from, to), &resp)

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		c.logger.WithField("symbol", symbol).Warn("Symbol not found")
		return []contracts.PricePoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return []contracts.PricePoint{}, nil
		}
		return nil, fmt.Errorf("chart error for %s: %s: %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	points := resp.points(from, to)

	if c.cache != nil && len(points) > 0 {
		if err := c.cache.Set(ctx, key, points, c.cacheTTL); err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Price cache write failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"points": len(points),
	}).Debug("Fetched daily closes")

	return points, nil
}

func (c *Client) chartURL(symbol string, from, to time.Time) string {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")
	params.Set("includeAdjustedClose", "true")

	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
}

// === wire format ===

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// points converts exchange-local timestamps to civil dates within [from, to).
// The adjusted close is preferred; the raw close is used when the series lacks one.
func (r chartResponse) points(from, to time.Time) []contracts.PricePoint {
	out := []contracts.PricePoint{}
	if len(r.Chart.Result) == 0 {
		return out
	}
	res := r.Chart.Result[0]

	var closes []*float64
	if len(res.Indicators.AdjClose) > 0 {
		closes = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}

	lo, hi := contracts.CivilDate(from), contracts.CivilDate(to)
	seen := make(map[time.Time]bool, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil || math.IsNaN(*closes[i]) {
			continue
		}

		d := contracts.CivilDate(time.Unix(ts+res.Meta.GMTOffset, 0).UTC())
		if d.Before(lo) || !d.Before(hi) || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, contracts.PricePoint{Date: d, AdjClose: *closes[i]})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

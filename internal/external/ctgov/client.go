package ctgov

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/catalyst-alpha/pkg/httputil"
	"github.com/wonny/catalyst-alpha/pkg/logger"
	"github.com/wonny/catalyst-alpha/pkg/redis"
)

// DefaultBaseURL is the ClinicalTrials.gov API v2 root
const DefaultBaseURL = "https://clinicaltrials.gov/api/v2"

const maxPageSize = 1000

// Client handles communication with the ClinicalTrials.gov registry
// ⭐ SSOT: ClinicalTrials.gov API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	cache      *redis.Cache
	cacheTTL   time.Duration
}

// NewClient creates a new registry client; an empty baseURL uses DefaultBaseURL
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("ctgov"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Query selects registry studies
type Query struct {
	Condition  string   // disease area, e.g. "oncology"
	Phase      string   // PHASE1 .. PHASE4, empty for any
	Statuses   []string // overall statuses, empty for DefaultStatuses
	MaxResults int
}

// WithCache caches registry pages by request URL
func (c *Client) WithCache(cache *redis.Cache, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = redis.TTLShort
	}
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// DefaultStatuses are the statuses that can still produce a readout
func DefaultStatuses() []string {
	return []string{"COMPLETED", "ACTIVE_NOT_RECRUITING", "RECRUITING"}
}

// FetchTrials pages through /studies until MaxResults trials are collected
// or the registry runs out of pages.
func (c *Client) FetchTrials(ctx context.Context, q Query) ([]Trial, error) {
	if q.MaxResults <= 0 {
		return nil, fmt.Errorf("max results must be > 0, got %d", q.MaxResults)
	}

	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses()
	}

	trials := make([]Trial, 0, q.MaxResults)
	pageToken := ""
	for page := 1; len(trials) < q.MaxResults; page++ {
		pageSize := q.MaxResults - len(trials)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		resp, err := c.fetchPage(ctx, c.studiesURL(q, statuses, pageSize, pageToken))
		if err != nil {
			return nil, fmt.Errorf("fetch studies page %d: %w", page, err)
		}

		for _, s := range resp.Studies {
			trials = append(trials, s.toTrial())
		}

		c.logger.WithFields(map[string]interface{}{
			"page":      page,
			"studies":   len(resp.Studies),
			"collected": len(trials),
		}).Debug("Fetched studies page")

		if resp.NextPageToken == "" || len(resp.Studies) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(trials) > q.MaxResults {
		trials = trials[:q.MaxResults]
	}

	c.logger.WithFields(map[string]interface{}{
		"condition": q.Condition,
		"phase":     q.Phase,
		"trials":    len(trials),
	}).Info("Fetched trials")

	return trials, nil
}

func (c *Client) studiesURL(q Query, statuses []string, pageSize int, pageToken string) string {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("filter.overallStatus", strings.Join(statuses, ","))
	if q.Condition != "" {
		params.Set("query.cond", q.Condition)
	}
	if q.Phase != "" {
		params.Set("filter.advanced", fmt.Sprintf("AREA[Phase]%s", strings.ToUpper(q.Phase)))
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	return fmt.Sprintf("%s/studies?%s", c.baseURL, params.Encode())
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*studiesResponse, error) {
	var resp studiesResponse
	if c.cache == nil {
		err := c.httpClient.GetJSON(ctx, pageURL, &resp)
		return &resp, err
	}

	sum := sha256.Sum256([]byte(pageURL))
	key := "ctgov:" + hex.EncodeToString(sum[:8])

	hit, err := c.cache.Get(ctx, key, &resp)
	if err != nil {
		c.logger.WithError(err).Warn("Registry cache read failed")
	}
	if hit {
		return &resp, nil
	}

	if err := c.httpClient.GetJSON(ctx, pageURL, &resp); err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, resp, c.cacheTTL); err != nil {
		c.logger.WithError(err).Warn("Registry cache write failed")
	}
	return &resp, nil
}

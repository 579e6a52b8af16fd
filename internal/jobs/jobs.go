// Package jobs fetches job postings from the JSearch API on RapidAPI.
package jobs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultHost  = "jsearch.p.rapidapi.com"
	DefaultLimit = 40
	userAgent    = "spigell/job-recommender"
)

type Client struct {
	key        string
	host       string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	// APIURL overrides https://<host>. Used by tests.
	APIURL string
}

func New(logger *zap.Logger, key, host string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		key:    strings.TrimSpace(key),
		host:   host,
		logger: logger,
		APIURL: fmt.Sprintf("https://%s", host),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// Search returns at most limit postings for params. A non-positive limit uses DefaultLimit.
func (c *Client) Search(ctx context.Context, params *SearchParams, limit int) (*Jobs, error) {
	return c.search(ctx, params, limit)
}

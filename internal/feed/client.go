package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mautomic/optrader/internal/models"
)

const defaultTimeout = 20 * time.Second

// Client is the HTTP implementation of Feed against a TD-style option chain
// endpoint.
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

var _ Feed = (*Client)(nil)

// NewClient creates a feed client. An empty timeout uses the default.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// GetOptionChain implements Feed.
func (c *Client) GetOptionChain(ctx context.Context, ticker, maxExpiration string, strikeCount int) (*models.Snapshot, error) {
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("toDate", maxExpiration)
	params.Set("strikeCount", strconv.Itoa(strikeCount))

	endpoint := fmt.Sprintf("%s/marketdata/chains?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build chain request for %s: %w", ticker, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request chain for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chain response for %s: %w", ticker, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var wire chainResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode chain for %s: %w", ticker, err)
	}
	return wire.toSnapshot(), nil
}

package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wildberries-scraper/models"
)

// ProductSource fetches product listings for a set of query parameters.
type ProductSource interface {
	FetchProducts(ctx context.Context, params url.Values) ([]models.ProductSummary, error)
}

// Client reads the product listing endpoint over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns a Client for endpoint, e.g. http://localhost:8080/api/products/.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

// FetchProducts issues GET endpoint?params. Transport errors, non-2xx
// statuses and undecodable bodies are all returned as errors.
func (c *Client) FetchProducts(ctx context.Context, params url.Values) ([]models.ProductSummary, error) {
	target, err := c.buildURL(params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("GET %s: unexpected status %d", target, resp.StatusCode)
	}

	var products []models.ProductSummary
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// buildURL merges params into any query already present on the endpoint.
func (c *Client) buildURL(params url.Values) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPChecker queries GET {baseURL}/payments/{ref}/status.
type HTTPChecker struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPChecker(baseURL, apiKey string, timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *HTTPChecker) CheckStatus(ctx context.Context, transactionRef string) (*StatusResult, error) {
	u := c.baseURL + "/payments/" + url.PathEscape(transactionRef) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	// The bank has not seen the reference yet.
	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusResult{Status: StatusPending}, nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status endpoint returned %d", ErrTransient, resp.StatusCode)
	}

	var out StatusResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode status response: %v", ErrTransient, err)
	}
	switch out.Status {
	case StatusPending, StatusFailed:
	case StatusSuccess:
		if out.ExternalTransactionID == "" {
			return nil, fmt.Errorf("%w: success without external transaction id", ErrTransient)
		}
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrTransient, out.Status)
	}
	return &out, nil
}

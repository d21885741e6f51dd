package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"basket-backtest/internal/model"
)

// QuoteClient fetches panels from an HTTP close-price service that answers
// GET /v1/closes?tickers=A,B&start=YYYY-MM-DD&end=YYYY-MM-DD with a PanelFile body.
type QuoteClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Log     *zap.Logger
}

func NewQuoteClient(apiKey, baseURL string, log *zap.Logger) *QuoteClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuoteClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Log: log,
	}
}

// QuoteServiceError is a non-200 answer from the quote service.
type QuoteServiceError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string
}

func (e *QuoteServiceError) Error() string {
	return e.Message
}

func (c *QuoteClient) LoadPanel(ctx context.Context, tickers []string, start, end time.Time) (*model.PricePanel, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("quote service URL is required")
	}
	if len(tickers) == 0 {
		return model.NewPricePanel(nil)
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, fmt.Errorf("start must not be after end")
	}

	u, err := url.Parse(c.BaseURL + "/v1/closes")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("tickers", strings.Join(tickers, ","))
	if !start.IsZero() {
		q.Set("start", start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		q.Set("end", end.Format("2006-01-02"))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	began := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(began)
	if err != nil {
		c.Log.Warn("quote request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.Log.Debug("quote response",
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int("tickers", len(tickers)),
		zap.Duration("duration", duration),
	)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &QuoteServiceError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "quote service rejected the API key",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &QuoteServiceError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("rate limit exceeded, retry after %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &QuoteServiceError{
			StatusCode: resp.StatusCode,
			Code:       "QUOTE_SERVICE_ERROR",
			Message:    fmt.Sprintf("quote service returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var pf PanelFile
	if err := json.NewDecoder(resp.Body).Decode(&pf); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return pf.Panel()
}

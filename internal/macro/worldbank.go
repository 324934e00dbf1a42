package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/config"
)

// ProviderInterface defines the interface for the macro data provider.
type ProviderInterface interface {
	Indicator(ctx context.Context, economy, indicator string) ([]ProviderPoint, error)
}

// ProviderPoint is one observation as returned by the provider.
type ProviderPoint struct {
	Economy   string
	Indicator string
	Date      string
	Value     decimal.Decimal
}

// Provider is a client for a World Bank style indicator API.
// It implements the ProviderInterface.
type Provider struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ ProviderInterface = (*Provider)(nil)

// NewProvider creates a new macro data provider client.
func NewProvider(cfg *config.Macro, logger *zap.Logger) *Provider {
	client := resty.New().SetBaseURL(cfg.BaseURL)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Provider{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// wbEntry mirrors one element of the World Bank v2 data array. Values may be
// null for years without data.
type wbEntry struct {
	Indicator struct {
		ID string `json:"id"`
	} `json:"indicator"`
	Country struct {
		ID string `json:"id"`
	} `json:"country"`
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// Indicator fetches the recent observations of one indicator for one economy.
func (p *Provider) Indicator(ctx context.Context, economy, indicator string) ([]ProviderPoint, error) {
	url := fmt.Sprintf("/country/%s/indicator/%s", economy, indicator)
	req := p.client.R().
		SetQueryParam("format", "json").
		SetQueryParam("per_page", "100").
		SetHeader("Accept", "application/json")

	resp, err := p.doRequest(ctx, http.MethodGet, url, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", economy, indicator, err)
	}

	// The v2 response is a two-element array: [paging metadata, entries].
	var envelope []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("unexpected provider response: %w", err)
	}
	if len(envelope) < 2 {
		return nil, fmt.Errorf("unexpected provider response: %d elements", len(envelope))
	}
	var entries []wbEntry
	if err := json.Unmarshal(envelope[1], &entries); err != nil {
		return nil, fmt.Errorf("unexpected provider entries: %w", err)
	}

	points := make([]ProviderPoint, 0, len(entries))
	for _, e := range entries {
		if e.Value == nil {
			continue
		}
		points = append(points, ProviderPoint{
			Economy:   economy,
			Indicator: indicator,
			Date:      e.Date,
			Value:     decimal.NewFromFloat(*e.Value),
		})
	}
	return points, nil
}

// doRequest executes the request with rate limiting and retry on throttling
// or server errors.
func (p *Provider) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		p.logger.Debug("Executing provider request", zap.String("method", method), zap.String("url", p.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			shouldRetry = true // network or client-side error
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s", resp.Status())
		}

		retryAfter := time.Duration(math.Pow(2, float64(i))) * time.Second
		p.logger.Warn("Provider request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

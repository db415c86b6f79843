package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
)

// Client pulls the priced catalog from the company price-feed API.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type feedResponse struct {
	Items    []feedItem `json:"items"`
	NextPage string     `json:"nextPage"`
}

type feedItem struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
	Currency    string  `json:"currency"`
	UpdatedAt   string  `json:"updatedAt"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.PriceFeedTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.PriceFeedRateLimitRPS),
	}
}

// FetchAll walks the feed's page cursor until exhausted.
func (c *Client) FetchAll(ctx context.Context) ([]internal.CatalogItem, error) {
	all := make([]internal.CatalogItem, 0)
	seen := map[string]struct{}{}
	page := ""

	for {
		params := map[string]string{}
		if page != "" {
			params["page"] = page
		}

		body, err := c.fetchJSON(ctx, "catalog/items", params)
		if err != nil {
			return nil, err
		}

		var payload feedResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}

		for _, raw := range payload.Items {
			item, err := toCatalogItem(raw)
			if err != nil {
				continue
			}
			all = append(all, item)
		}

		if payload.NextPage == "" || len(payload.Items) == 0 {
			break
		}
		if _, ok := seen[payload.NextPage]; ok {
			break
		}
		seen[payload.NextPage] = struct{}{}
		page = payload.NextPage
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	base := strings.TrimRight(c.cfg.PriceFeedBaseURL, "/")
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	target := base + "/" + endpoint
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.PriceFeedToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("price feed status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("price feed error: status=%d body=%s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("price feed request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toCatalogItem(raw feedItem) (internal.CatalogItem, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return internal.CatalogItem{}, errors.New("empty item name")
	}
	if raw.UnitPrice < 0 {
		return internal.CatalogItem{}, errors.New("negative unit price")
	}
	return internal.CatalogItem{
		Name:        name,
		Code:        strings.TrimSpace(raw.Code),
		Description: strings.TrimSpace(raw.Description),
		Unit:        strings.TrimSpace(raw.Unit),
		UnitPrice:   raw.UnitPrice,
		Currency:    strings.TrimSpace(raw.Currency),
		UpdatedAt:   raw.UpdatedAt,
	}, nil
}

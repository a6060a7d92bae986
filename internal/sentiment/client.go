package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
)

// Verdict — ответ emotion-сервиса на переданный текст.
type Verdict struct {
	Feeling     string  `json:"feeling"`
	Temperature float64 `json:"temperature"`
	Text        string  `json:"text"`
}

// Provider — контракт анализа текста, за которым прячется транспорт.
type Provider interface {
	Analyze(ctx context.Context, text string) (*Verdict, error)
}

// Client — голый HTTP-транспорт без политик повторов:
// надежность навешивается оберткой ReliabilityWrapper.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(cfg infra.SentimentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Analyze(ctx context.Context, text string) (*Verdict, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentiment call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// Сервис сам сообщает, когда вернуться
		retryAfter := 1 * time.Second
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, &ThrottleError{RetryAfter: retryAfter, Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sentiment returned status %d: %s", resp.StatusCode, data)
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &verdict, nil
}

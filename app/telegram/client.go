package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lysyi3m/rss-relay/app/errs"
)

const DefaultBaseURL = "https://api.telegram.org"

type Config struct {
	BaseURL       string
	Token         string
	RetryAttempts int
	RetryDelay    time.Duration
	HTTPClient    *http.Client
}

type Client struct {
	baseURL       string
	token         string
	retryAttempts int
	retryDelay    time.Duration
	httpClient    *http.Client

	// timer is nil outside of tests, which makes backoff use a real timer.
	timer backoff.Timer
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:       baseURL,
		token:         cfg.Token,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		httpClient:    httpClient,
	}
}

func (c *Client) SendMessage(ctx context.Context, chatID, text, parseMode string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
}

func (c *Client) SendPhoto(ctx context.Context, chatID, photo, caption, parseMode string) error {
	return c.call(ctx, "sendPhoto", sendPhotoRequest{
		ChatID:    chatID,
		Photo:     photo,
		Caption:   caption,
		ParseMode: parseMode,
	})
}

// call posts payload to method, retrying per retryPolicy. Once the attempt
// budget is spent the last failure is returned as a delivery error.
func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s request: %w", errs.ErrDelivery, method, err)
	}

	policy := newRetryPolicy(c.retryAttempts, c.retryDelay)

	operation := func() error {
		err := c.do(ctx, method, body)

		var rateLimit *RateLimitError
		if errors.As(err, &rateLimit) {
			rateLimitedTotal.WithLabelValues(method).Inc()
			policy.rateLimited(rateLimit.RetryAfter)
		}

		return err
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("Telegram request failed, retrying", "method", method, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(policy, ctx), notify, c.timer); err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%w: %s: %w", errs.ErrDelivery, method, err)
	}

	requestsTotal.WithLabelValues(method, "ok").Inc()
	return nil
}

func (c *Client) do(ctx context.Context, method string, body []byte) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %s", method, redact(err.Error(), c.token))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var result apiResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("unexpected %s response: HTTP %d", method, resp.StatusCode)
	}

	if result.OK {
		return nil
	}

	apiErr := APIError{
		Method:      method,
		StatusCode:  resp.StatusCode,
		ErrorCode:   result.ErrorCode,
		Description: result.Description,
	}

	if result.ErrorCode == http.StatusTooManyRequests && result.Parameters != nil && result.Parameters.RetryAfter > 0 {
		return &RateLimitError{
			APIError:   apiErr,
			RetryAfter: time.Duration(result.Parameters.RetryAfter) * time.Second,
		}
	}

	return &apiErr
}

// redact keeps the bot token out of logged transport errors, which embed
// the request URL.
func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}

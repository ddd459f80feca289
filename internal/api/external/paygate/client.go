// Package paygate is the HTTP client for the external payment gateway.
package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"OrderPayments/internal/api/domain/gateway"
	"OrderPayments/pkg/metrics"
	"OrderPayments/pkg/pointers"
)

const (
	DefaultBaseURL = "https://reqres.in/api"
	DefaultPath    = "/users"
	DefaultAPIKey  = "reqres-free-v1"
	DefaultTimeout = 10 * time.Second

	currency = "USD"
)

type Config struct {
	BaseURL string
	Path    string
	APIKey  string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.APIKey == "" {
		c.APIKey = DefaultAPIKey
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

type Client struct {
	url    string
	apiKey string
	HTTP   *http.Client
}

func New(cfg Config, httpClient *http.Client) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Path, "/"),
		apiKey: cfg.APIKey,
		HTTP:   httpClient,
	}
}

type chargeReq struct {
	Name     string      `json:"name"`
	Job      string      `json:"job"`
	Amount   json.Number `json:"amount"`
	OrderID  string      `json:"order_id"`
	Currency string      `json:"currency"`
}

type chargeResp struct {
	ID json.RawMessage `json:"id"`
}

// Attempt never returns an error: transport failures, timeouts and unreadable
// bodies are folded into an unsuccessful Outcome.
func (c *Client) Attempt(ctx context.Context, req gateway.AttemptRequest) gateway.Outcome {
	start := time.Now()
	outcome := c.attempt(ctx, req)
	metrics.GatewayRequestDuration.WithLabelValues(outcome.Label()).Observe(time.Since(start).Seconds())

	attrs := []any{
		"order_id", req.OrderID,
		"amount", req.Amount.StringFixed(2),
		"success", outcome.Success,
		"status_code", pointers.Deref(outcome.StatusCode),
	}
	if outcome.ErrorMessage != nil {
		slog.ErrorContext(ctx, "Payment gateway request failed", append(attrs, "error", *outcome.ErrorMessage)...)
	} else {
		slog.InfoContext(ctx, "Payment gateway response", append(attrs, "transaction_id", pointers.Deref(outcome.TransactionReference))...)
	}
	return outcome
}

func (c *Client) attempt(ctx context.Context, req gateway.AttemptRequest) gateway.Outcome {
	body := chargeReq{
		Name:     "Payment Order " + req.OrderID,
		Job:      "payment",
		Amount:   json.Number(req.Amount.StringFixed(2)),
		OrderID:  req.OrderID,
		Currency: currency,
	}

	j, err := json.Marshal(body)
	if err != nil {
		return failure(fmt.Errorf("marshal charge request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(j))
	if err != nil {
		return failure(fmt.Errorf("create charge request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return failure(fmt.Errorf("http charge request: %w", err))
	}
	defer resp.Body.Close()

	statusCode := resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		out := failure(fmt.Errorf("read charge response: %w", err))
		out.StatusCode = &statusCode
		return out
	}

	var parsed chargeResp
	if err := json.Unmarshal(raw, &parsed); err != nil {
		out := failure(fmt.Errorf("unmarshal charge response: %w", err))
		out.StatusCode = &statusCode
		return out
	}

	outcome := gateway.Outcome{
		RawResponse: raw,
		StatusCode:  &statusCode,
	}
	if statusCode != http.StatusCreated {
		return outcome
	}

	ref := transactionReference(parsed.ID)
	if ref == nil {
		return outcome
	}
	outcome.Success = true
	outcome.TransactionReference = ref
	return outcome
}

// transactionReference accepts both string and numeric ids; null or missing is nil.
func transactionReference(id json.RawMessage) *string {
	if len(id) == 0 || string(id) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(id, &s); err == nil {
		return &s
	}
	ref := string(id)
	return &ref
}

func failure(err error) gateway.Outcome {
	msg := err.Error()
	return gateway.Outcome{ErrorMessage: &msg}
}

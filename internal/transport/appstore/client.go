// Package appstore validates App Store receipts via verifyReceipt.
package appstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/user"
	"github.com/kailas-cloud/zokey/internal/metrics"
	"github.com/kailas-cloud/zokey/internal/resilience"
)

const (
	ProductionURL = "https://buy.itunes.apple.com/verifyReceipt"
	SandboxURL    = "https://sandbox.itunes.apple.com/verifyReceipt"

	providerName   = "appstore"
	statusOK       = 0
	statusSandbox  = 21007
	defaultTimeout = 15 * time.Second
)

// maxResponseBody caps how much of a verifyReceipt response is read.
var maxResponseBody int64 = 1 << 20

var statusMessages = map[int]string{
	21000: "The App Store could not read the receipt",
	21002: "The receipt data was malformed",
	21003: "The receipt could not be authenticated",
	21004: "The shared secret does not match",
	21005: "The receipt server is not available",
	21006: "This receipt is valid but the subscription has expired",
	21007: "This receipt is from the test environment",
	21008: "This receipt is from the production environment",
	21010: "This receipt could not be authorized",
}

// StatusMessage describes a non-zero verifyReceipt status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Unknown error: " + strconv.Itoa(status)
}

// Config holds the App Store client settings.
type Config struct {
	SharedSecret  string
	ProductionURL string
	SandboxURL    string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Executor      *resilience.Executor
	Logger        *zap.Logger
}

// Client talks to the verifyReceipt endpoints.
type Client struct {
	secret        string
	productionURL string
	sandboxURL    string
	http          *http.Client
	executor      *resilience.Executor
	logger        *zap.Logger
	now           func() time.Time
}

// NewClient creates an App Store client.
func NewClient(cfg *Config) *Client {
	c := &Client{
		secret:        cfg.SharedSecret,
		productionURL: cfg.ProductionURL,
		sandboxURL:    cfg.SandboxURL,
		http:          cfg.HTTPClient,
		executor:      cfg.Executor,
		logger:        cfg.Logger,
		now:           time.Now,
	}
	if c.productionURL == "" {
		c.productionURL = ProductionURL
	}
	if c.sandboxURL == "" {
		c.sandboxURL = SandboxURL
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Validate checks a base64 receipt. A rejected receipt yields an invalid
// Subscription with a reason; only transport failures return an error.
func (c *Client) Validate(ctx context.Context, receiptData string) (user.Subscription, error) {
	if c.secret == "" {
		return invalid("Apple shared secret not configured"), nil
	}

	resp, err := c.verify(ctx, c.productionURL, receiptData)
	if err == nil && resp.Status == statusSandbox {
		c.logger.Debug("Receipt is from sandbox, retrying against sandbox endpoint")
		resp, err = c.verify(ctx, c.sandboxURL, receiptData)
	}
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return user.Subscription{}, fmt.Errorf("verify receipt: %w: %w", domain.ErrUpstream, err)
	}
	metrics.ProviderRequestsTotal.WithLabelValues(providerName, "success").Inc()
	return parseReceipt(resp, c.now()), nil
}

func (c *Client) verify(ctx context.Context, url, receiptData string) (receiptResponse, error) {
	body, err := json.Marshal(verifyRequest{
		ReceiptData:            receiptData,
		Password:               c.secret,
		ExcludeOldTransactions: true,
	})
	if err != nil {
		return receiptResponse{}, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.ProviderRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	}()

	var out receiptResponse
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if int64(len(raw)) > maxResponseBody {
			return fmt.Errorf("read response: body exceeds %d bytes: %w", maxResponseBody, domain.ErrMalformedResponse)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode response: %w: %w", domain.ErrMalformedResponse, err)
		}
		return nil
	}

	if c.executor != nil {
		return out, c.executor.Execute(ctx, providerName, call, resilience.ClassifyHTTP)
	}
	return out, call(ctx)
}

func invalid(reason string) user.Subscription {
	return user.Subscription{Valid: false, Status: user.StatusNone, Error: reason}
}

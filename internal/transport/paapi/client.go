// Package paapi is a Product Advertising API 5.0 SearchItems client.
package paapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/metrics"
	"github.com/kailas-cloud/zokey/internal/resilience"
)

const (
	providerName = "paapi"
	serviceName  = "ProductAdvertisingAPI"
	searchPath   = "/paapi5/searchitems"
	searchTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 1024
)

// maxResponseBody caps how much of a SearchItems response is read.
var maxResponseBody int64 = 4 << 20

var searchResources = []string{
	"Images.Primary.Large",
	"ItemInfo.Title",
	"ItemInfo.Features",
	"Offers.Listings.Price",
	"Offers.Listings.SavingBasis",
	"Offers.Listings.DeliveryInfo.IsPrimeEligible",
	"Offers.Listings.Availability.Message",
	"CustomerReviews.Count",
	"CustomerReviews.StarRating",
}

// Config holds the PA-API client settings.
type Config struct {
	AccessKey string
	SecretKey string
	// PartnerTags maps region to associate tag. Missing regions use the marketplace default.
	PartnerTags map[string]string
	// BaseURL overrides https://<marketplace host>; used by tests.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Executor   *resilience.Executor
	Logger     *zap.Logger
}

// Client searches the Amazon catalog.
type Client struct {
	creds       aws.Credentials
	partnerTags map[string]string
	baseURL     string
	http        *http.Client
	signer      *v4.Signer
	executor    *resilience.Executor
	logger      *zap.Logger
	now         func() time.Time
}

// NewClient creates a PA-API client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		creds: aws.Credentials{
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			Source:          "zokey-config",
		},
		partnerTags: cfg.PartnerTags,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        httpClient,
		signer:      v4.NewSigner(),
		executor:    cfg.Executor,
		logger:      logger,
		now:         time.Now,
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.creds.AccessKeyID != "" && c.creds.SecretAccessKey != ""
}

// Search implements retrieval.Provider. Zero matches return an empty slice and a nil error.
func (c *Client) Search(ctx context.Context, req product.SearchRequest) ([]product.Product, error) {
	if !c.Configured() {
		return nil, domain.ErrProviderNotConfigured
	}
	m := domain.MarketplaceFor(req.Region)
	payload, err := json.Marshal(c.buildPayload(req, m))
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	start := time.Now()
	var resp searchResponse
	call := func(ctx context.Context) error {
		r, err := c.do(ctx, m, payload)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, providerName, call, resilience.ClassifyHTTP)
	} else {
		err = call(ctx)
	}
	metrics.ProviderRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("search items: %w: %w", domain.ErrUpstream, err)
	}
	if resp.noResults() {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "no_results").Inc()
		return []product.Product{}, nil
	}
	if len(resp.Errors) > 0 && resp.SearchResult == nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("search items: %s: %w", resp.Errors[0].Message, domain.ErrMalformedResponse)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(providerName, "success").Inc()
	return resp.products(m), nil
}

func (c *Client) do(ctx context.Context, m domain.Marketplace, payload []byte) (searchResponse, error) {
	base := c.baseURL
	if base == "" {
		base = "https://" + m.Host
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+searchPath, bytes.NewReader(payload))
	if err != nil {
		return searchResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Content-Encoding", "amz-1.0")
	httpReq.Header.Set("X-Amz-Target", searchTarget)

	sum := sha256.Sum256(payload)
	if err := c.signer.SignHTTP(ctx, c.creds, httpReq, hex.EncodeToString(sum[:]), serviceName, m.AWSRegion, c.now()); err != nil {
		return searchResponse{}, fmt.Errorf("sign request: %w", err)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return searchResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody+1))
	if err != nil {
		return searchResponse{}, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > maxResponseBody {
		return searchResponse{}, fmt.Errorf("read response: body exceeds %d bytes: %w", maxResponseBody, domain.ErrMalformedResponse)
	}

	var parsed searchResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		if decodeErr == nil && parsed.noResults() {
			return parsed, nil
		}
		return searchResponse{}, &resilience.StatusError{StatusCode: httpResp.StatusCode, Body: truncate(body)}
	}
	if decodeErr != nil {
		return searchResponse{}, fmt.Errorf("decode response: %w: %w", domain.ErrMalformedResponse, decodeErr)
	}
	return parsed, nil
}

func (c *Client) partnerTag(m domain.Marketplace) string {
	if tag := c.partnerTags[m.Region]; tag != "" {
		return tag
	}
	return m.DefaultTag
}

func (c *Client) buildPayload(req product.SearchRequest, m domain.Marketplace) searchPayload {
	itemCount := req.ResultCap
	if itemCount <= 0 || itemCount > product.DefaultResultCap {
		itemCount = product.DefaultResultCap
	}
	searchIndex := req.CategoryHint
	if searchIndex == "" {
		searchIndex = "All"
	}
	p := searchPayload{
		Keywords:    req.Keywords,
		SearchIndex: searchIndex,
		ItemCount:   itemCount,
		Resources:   searchResources,
		PartnerTag:  c.partnerTag(m),
		PartnerType: "Associates",
		Marketplace: marketplaceDomain(m),
		Brand:       req.Brand,
	}
	if req.PriceMin != nil {
		v := minorUnits(*req.PriceMin)
		p.MinPrice = &v
	}
	if req.PriceMax != nil {
		v := minorUnits(*req.PriceMax)
		p.MaxPrice = &v
	}
	switch req.SortBy {
	case query.SortPriceLow:
		p.SortBy = "Price:LowToHigh"
	case query.SortPriceHigh:
		p.SortBy = "Price:HighToLow"
	case query.SortRating:
		p.SortBy = "AvgCustomerReviews"
	}
	return p
}

func minorUnits(amount float64) int64 {
	return int64(math.Floor(amount * 100))
}

func marketplaceDomain(m domain.Marketplace) string {
	return strings.TrimPrefix(m.SiteURL, "https://")
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return string(body)
}

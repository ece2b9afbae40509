package paapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/domain/product"
	"github.com/kailas-cloud/zokey/internal/domain/query"
	"github.com/kailas-cloud/zokey/internal/metrics"
	"github.com/kailas-cloud/zokey/internal/resilience"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

func ptr(f float64) *float64 { return &f }

const searchBody = `{
  "SearchResult": {
    "Items": [
      {
        "ASIN": "B0TEST0001",
        "DetailPageURL": "https://www.amazon.co.uk/dp/B0TEST0001?tag=custom-21",
        "ItemInfo": {
          "Title": {"DisplayValue": "Test Laptop 14"},
          "Features": {"DisplayValues": ["16GB RAM", "1TB SSD"]}
        },
        "Images": {"Primary": {"Large": {"URL": "https://m.media-amazon.com/images/test.jpg"}}},
        "Offers": {"Listings": [{
          "Price": {"Amount": 899.99},
          "SavingBasis": {"Amount": 999.99},
          "DeliveryInfo": {"IsPrimeEligible": true},
          "Availability": {"Message": "In stock"}
        }]},
        "CustomerReviews": {"StarRating": {"Value": 4.5}, "Count": {"Value": 1234}}
      },
      {"ASIN": "B0TEST0002"},
      {"ItemInfo": {"Title": {"DisplayValue": "no asin"}}}
    ]
  }
}`

func newTestClient(url string) *Client {
	return NewClient(&Config{
		AccessKey:   "AKIDTEST",
		SecretKey:   "secret",
		PartnerTags: map[string]string{domain.RegionUK: "custom-21"},
		BaseURL:     url,
	})
}

func TestClient_Search(t *testing.T) {
	var got searchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/paapi5/searchitems" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Amz-Target") != searchTarget {
			t.Errorf("target header: %q", r.Header.Get("X-Amz-Target"))
		}
		if r.Header.Get("Content-Encoding") != "amz-1.0" {
			t.Errorf("content encoding: %q", r.Header.Get("Content-Encoding"))
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDTEST/") ||
			!strings.Contains(auth, "/eu-west-1/ProductAdvertisingAPI/aws4_request") {
			t.Errorf("authorization: %q", auth)
		}
		if r.Header.Get("X-Amz-Date") == "" {
			t.Error("missing X-Amz-Date")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	products, err := c.Search(context.Background(), product.SearchRequest{
		Keywords:     "laptops work",
		CategoryHint: "Computers",
		PriceMin:     ptr(500),
		PriceMax:     ptr(1499.995),
		Brand:        "dell",
		SortBy:       query.SortPriceLow,
		ResultCap:    10,
		Region:       domain.RegionUK,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got.Keywords != "laptops work" || got.SearchIndex != "Computers" || got.ItemCount != 10 {
		t.Errorf("payload: %+v", got)
	}
	if got.PartnerTag != "custom-21" || got.PartnerType != "Associates" || got.Marketplace != "www.amazon.co.uk" {
		t.Errorf("payload partner fields: %+v", got)
	}
	if got.MinPrice == nil || *got.MinPrice != 50000 || got.MaxPrice == nil || *got.MaxPrice != 149999 {
		t.Errorf("price range: %v %v", got.MinPrice, got.MaxPrice)
	}
	if got.Brand != "dell" || got.SortBy != "Price:LowToHigh" {
		t.Errorf("brand/sort: %q %q", got.Brand, got.SortBy)
	}
	if len(got.Resources) != len(searchResources) {
		t.Errorf("resources: %v", got.Resources)
	}

	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	p := products[0]
	if p.ASIN != "B0TEST0001" || p.Title != "Test Laptop 14" || p.Price != 899.99 || p.Currency != "GBP" {
		t.Errorf("product: %+v", p)
	}
	if p.OriginalPrice == nil || *p.OriginalPrice != 999.99 || !p.IsPrime || p.Rating != 4.5 || p.ReviewCount != 1234 {
		t.Errorf("product offer fields: %+v", p)
	}
	if p.Availability != "In stock" || len(p.Features) != 2 {
		t.Errorf("product details: %+v", p)
	}

	bare := products[1]
	if bare.Title != unknownTitle || bare.Availability != unknownAvailability {
		t.Errorf("defaults: %+v", bare)
	}
	if bare.AmazonURL != "https://www.amazon.co.uk/dp/B0TEST0002" {
		t.Errorf("default url: %s", bare.AmazonURL)
	}
	if bare.Features == nil {
		t.Error("features must not be nil")
	}
}

func TestClient_SearchUSDefaults(t *testing.T) {
	var got searchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Authorization"), "/us-east-1/") {
			t.Errorf("authorization: %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"SearchResult":{"Items":[{"ASIN":"B1"}]}}`))
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).Search(context.Background(), product.SearchRequest{
		Keywords: "toys",
		Region:   domain.RegionUS,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.PartnerTag != "shopai-us-20" || got.Marketplace != "www.amazon.com" || got.SearchIndex != "All" {
		t.Errorf("payload: %+v", got)
	}
	if got.MinPrice != nil || got.MaxPrice != nil || got.Brand != "" || got.SortBy != "" {
		t.Errorf("unexpected optional fields: %+v", got)
	}
	if products[0].Currency != "USD" || products[0].AmazonURL != "https://www.amazon.com/dp/B1" {
		t.Errorf("product: %+v", products[0])
	}
}

func TestClient_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"Errors":[{"Code":"NoResults","Message":"No results"}]}`))
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).Search(context.Background(), product.SearchRequest{Keywords: "zzz"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", products)
	}
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"Errors":[{"Code":"InvalidSignature","Message":"bad"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), product.SearchRequest{Keywords: "x"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	var se *resilience.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected StatusError 401, got %v", err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), product.SearchRequest{Keywords: "x"})
	if !errors.Is(err, domain.ErrUpstream) || !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected upstream malformed error, got %v", err)
	}
}

func TestClient_OversizedBody(t *testing.T) {
	prev := maxResponseBody
	maxResponseBody = 64
	t.Cleanup(func() { maxResponseBody = prev })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"SearchResult":{"Items":[{"ASIN":"` + strings.Repeat("B", 128) + `"}]}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), product.SearchRequest{Keywords: "x"})
	if !errors.Is(err, domain.ErrUpstream) || !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected upstream malformed error, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds 64 bytes") {
		t.Errorf("error should name the cap: %v", err)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"SearchResult":{"Items":[{"ASIN":"B1"}]}}`))
	}))
	defer server.Close()

	cfg := resilience.DefaultConfig()
	cfg.RetryInitialBackoff = time.Millisecond
	c := NewClient(&Config{
		AccessKey: "AKIDTEST",
		SecretKey: "secret",
		BaseURL:   server.URL,
		Executor:  resilience.NewExecutor(cfg, nil),
	})

	products, err := c.Search(context.Background(), product.SearchRequest{Keywords: "x"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(products) != 1 || calls.Load() != 2 {
		t.Errorf("products %d, calls %d", len(products), calls.Load())
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(&Config{})
	if c.Configured() {
		t.Error("expected unconfigured client")
	}
	_, err := c.Search(context.Background(), product.SearchRequest{Keywords: "x"})
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

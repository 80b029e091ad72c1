package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL  = "https://world.openfoodfacts.org/api/v0/product"
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 24 * time.Hour
	userAgent       = "shoplist/1.0 (barcode lookup)"
)

// Config holds catalog lookup configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// ProductInfo is what the catalog knows about a barcode.
type ProductInfo struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Brand   string `json:"brand,omitempty"`
}

// Result is delivered by ResolveAsync. Found is false for every kind of
// failure.
type Result struct {
	Info  ProductInfo
	Found bool
}

// Failure describes why a lookup produced no result. It is logged, never
// returned to callers of Resolve.
type Failure struct {
	Barcode string
	Reason  string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("lookup %s: %s: %v", f.Barcode, f.Reason, f.Err)
	}
	return fmt.Sprintf("lookup %s: %s", f.Barcode, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type cacheEntry struct {
	info      ProductInfo
	fetchedAt time.Time
}

// Client resolves barcodes against an Open Food Facts compatible catalog.
// Successful answers are cached and concurrent lookups of the same barcode
// share one request.
type Client struct {
	config  Config
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	group   singleflight.Group
	mu      sync.RWMutex
	cache   map[string]cacheEntry
}

// NewClient creates a lookup client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
		cache:   make(map[string]cacheEntry),
	}
}

// Resolve returns the product name for barcode. Any transport error, non-200
// status, malformed payload or missing product_name yields false.
func (c *Client) Resolve(ctx context.Context, barcode string) (ProductInfo, bool) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return ProductInfo{}, false
	}

	if info, ok := c.cached(barcode); ok {
		return info, true
	}

	// The shared fetch must not die with whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(barcode, func() (any, error) {
		return c.fetch(fetchCtx, barcode)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			c.logger.Debug("barcode lookup failed", "barcode", barcode, "error", res.Err)
			return ProductInfo{}, false
		}
		info := res.Val.(ProductInfo)
		c.store(info)
		return info, true
	case <-ctx.Done():
		c.logger.Debug("barcode lookup abandoned", "barcode", barcode, "error", ctx.Err())
		return ProductInfo{}, false
	}
}

// ResolveAsync runs Resolve on its own goroutine. The channel receives
// exactly one Result and is then closed.
func (c *Client) ResolveAsync(ctx context.Context, barcode string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		info, ok := c.Resolve(ctx, barcode)
		out <- Result{Info: info, Found: ok}
	}()
	return out
}

func (c *Client) cached(barcode string) (ProductInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.cache[barcode]
	if !ok || time.Since(e.fetchedAt) >= c.config.CacheTTL {
		return ProductInfo{}, false
	}
	return e.info, true
}

func (c *Client) store(info ProductInfo) {
	c.mu.Lock()
	c.cache[info.Barcode] = cacheEntry{info: info, fetchedAt: time.Now()}
	c.mu.Unlock()
}

type apiResponse struct {
	Status  int `json:"status"`
	Product *struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
	} `json:"product"`
}

func (c *Client) fetch(ctx context.Context, barcode string) (ProductInfo, error) {
	endpoint := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(barcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ProductInfo{}, &Failure{Barcode: barcode, Reason: "create request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ProductInfo{}, &Failure{Barcode: barcode, Reason: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProductInfo{}, &Failure{Barcode: barcode, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return ProductInfo{}, &Failure{Barcode: barcode, Reason: "decode response", Err: err}
	}
	if apiResp.Product == nil {
		return ProductInfo{}, &Failure{Barcode: barcode, Reason: "product not in catalog"}
	}

	name := strings.TrimSpace(apiResp.Product.ProductName)
	if name == "" {
		return ProductInfo{}, &Failure{Barcode: barcode, Reason: "missing product_name"}
	}

	return ProductInfo{
		Barcode: barcode,
		Name:    name,
		Brand:   strings.TrimSpace(apiResp.Product.Brands),
	}, nil
}

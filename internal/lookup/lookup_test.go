package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	c := NewClient(Config{BaseURL: server.URL + "/api/v0/product", Timeout: 2 * time.Second}, slog.Default())
	return c, &hits
}

func TestResolveFound(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"status":1,"product":{"product_name":" Nutella ","brands":"Ferrero"}}`)
	})

	info, ok := c.Resolve(context.Background(), "3017620422003")
	if !ok {
		t.Fatal("expected lookup to succeed")
	}
	if info.Name != "Nutella" {
		t.Errorf("name = %q, want %q", info.Name, "Nutella")
	}
	if info.Brand != "Ferrero" {
		t.Errorf("brand = %q, want %q", info.Brand, "Ferrero")
	}
	if gotPath != "/api/v0/product/3017620422003.json" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestResolveNoResult(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"product":`)
		}},
		{"product missing", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":0,"status_verbose":"product not found"}`)
		}},
		{"name missing", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":1,"product":{"brands":"Acme"}}`)
		}},
		{"name empty", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":1,"product":{"product_name":""}}`)
		}},
		{"name wrong type", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":1,"product":{"product_name":42}}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			if info, ok := c.Resolve(context.Background(), "0001234567"); ok {
				t.Errorf("expected no result, got %+v", info)
			}
		})
	}
}

func TestResolveTransportError(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, slog.Default())
	if _, ok := c.Resolve(context.Background(), "0001234567"); ok {
		t.Error("expected no result for unreachable catalog")
	}
}

func TestResolveEmptyBarcode(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"product":{"product_name":"X"}}`)
	})
	if _, ok := c.Resolve(context.Background(), "  "); ok {
		t.Error("expected no result for empty barcode")
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Error("expected no request for empty barcode")
	}
}

func TestResolveHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"product":{"product_name":"Late"}}`)
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, ok := c.Resolve(ctx, "0001234567"); ok {
		t.Error("expected no result after deadline")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("resolve took %v, expected to return at the deadline", elapsed)
	}
}

func TestResolveCachesHits(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"product":{"product_name":"Milk"}}`)
	})

	for i := 0; i < 3; i++ {
		info, ok := c.Resolve(context.Background(), "111")
		if !ok || info.Name != "Milk" {
			t.Fatalf("resolve #%d = %+v, %v", i, info, ok)
		}
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestResolveDoesNotCacheMisses(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"product":{"product_name":"Milk"}}`)
	})

	if _, ok := c.Resolve(context.Background(), "111"); ok {
		t.Fatal("expected first lookup to fail")
	}
	fail.Store(false)
	if _, ok := c.Resolve(context.Background(), "111"); !ok {
		t.Fatal("expected second lookup to succeed")
	}
	if got := atomic.LoadInt32(hits); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestCacheExpires(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"product":{"product_name":"Milk"}}`)
	})

	c.mu.Lock()
	c.cache["111"] = cacheEntry{
		info:      ProductInfo{Barcode: "111", Name: "Stale"},
		fetchedAt: time.Now().Add(-2 * c.config.CacheTTL),
	}
	c.mu.Unlock()

	info, ok := c.Resolve(context.Background(), "111")
	if !ok || info.Name != "Milk" {
		t.Errorf("resolve = %+v, %v; want fresh Milk", info, ok)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestResolveAsyncDeliversOnce(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"product":{"product_name":"Tea"}}`)
	})

	ch := c.ResolveAsync(context.Background(), "222")
	res, ok := <-ch
	if !ok {
		t.Fatal("expected a result")
	}
	if !res.Found || res.Info.Name != "Tea" {
		t.Errorf("result = %+v", res)
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after one result")
	}
}

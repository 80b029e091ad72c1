package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/shoplist/internal/database"
	"github.com/dukerupert/shoplist/internal/lookup"
	"github.com/dukerupert/shoplist/internal/store"
)

// fakeResolver answers from a map, or blocks until its context ends when
// block is set.
type fakeResolver struct {
	names map[string]string
	block bool
	calls int
}

func (f *fakeResolver) ResolveAsync(ctx context.Context, barcode string) <-chan lookup.Result {
	f.calls++
	out := make(chan lookup.Result, 1)
	go func() {
		defer close(out)
		if f.block {
			<-ctx.Done()
			out <- lookup.Result{}
			return
		}
		name, ok := f.names[barcode]
		out <- lookup.Result{Info: lookup.ProductInfo{Barcode: barcode, Name: name}, Found: ok}
	}()
	return out
}

func setupServices(t *testing.T, resolver Resolver) (*ListService, *ProductService) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rs := store.NewRecordStore(db)
	logger := slog.Default()
	return NewListService(rs, logger), NewProductService(rs, resolver, 200*time.Millisecond, logger)
}

func waitResult(t *testing.T, ch <-chan BarcodeResult) BarcodeResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for barcode result")
		return BarcodeResult{}
	}
}

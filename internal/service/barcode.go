package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/shoplist/internal/lookup"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/store"
)

const defaultLookupTimeout = 5 * time.Second

// FallbackName is the product name used when a barcode cannot be resolved.
func FallbackName(barcode string) string {
	return "Barcode Product: " + barcode
}

type commitCheckKey struct{}

// WithCommitCheck attaches a check that AddProductFromBarcode runs inside the
// product write, right before it commits. Returning an error discards the
// product. The scan manager uses it to claim the session atomically with the
// write.
func WithCommitCheck(ctx context.Context, check func() error) context.Context {
	return context.WithValue(ctx, commitCheckKey{}, check)
}

// Resolver answers barcode lookups asynchronously. The channel delivers one
// Result and is closed.
type Resolver interface {
	ResolveAsync(ctx context.Context, barcode string) <-chan lookup.Result
}

// BarcodeResult is the outcome of AddProductFromBarcode.
type BarcodeResult struct {
	Barcode string
	Product *model.Product
	// Resolved is true when the catalog supplied the name.
	Resolved bool
	// Discarded is true when ctx ended before the product was stored.
	Discarded bool
	Err       error
}

// AddProductFromBarcode resolves barcode off the caller's goroutine and adds
// one product to the list, category Unknown and priority Medium. A failed or
// timed-out lookup still adds the product under FallbackName. ctx is the scan
// session: once it is done, a late result is dropped without touching the
// store.
func (s *ProductService) AddProductFromBarcode(ctx context.Context, listID, barcode string) <-chan BarcodeResult {
	out := make(chan BarcodeResult, 1)
	go func() {
		defer close(out)
		out <- s.addFromBarcode(ctx, listID, strings.TrimSpace(barcode))
	}()
	return out
}

func (s *ProductService) addFromBarcode(ctx context.Context, listID, barcode string) BarcodeResult {
	res := BarcodeResult{Barcode: barcode}
	if barcode == "" {
		res.Err = store.Invalid("barcode", "must not be empty")
		return res
	}

	name := FallbackName(barcode)

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	select {
	case r, ok := <-s.resolver.ResolveAsync(lookupCtx, barcode):
		if ok && r.Found && strings.TrimSpace(r.Info.Name) != "" {
			name = strings.TrimSpace(r.Info.Name)
			res.Resolved = true
		}
	case <-lookupCtx.Done():
		if ctx.Err() == nil {
			s.logger.Warn("barcode lookup timed out", "barcode", barcode, "timeout", s.lookupTimeout)
		}
	}
	cancel()

	if err := ctx.Err(); err != nil {
		s.logger.Info("scan ended before lookup completed, discarding", "barcode", barcode, "list_id", listID)
		res.Discarded = true
		res.Err = fmt.Errorf("scan session ended: %w", err)
		return res
	}

	// A session that ends while the write is in flight must not leave a
	// product behind, so the context is checked again inside the transaction.
	var aborted error
	extra, _ := ctx.Value(commitCheckKey{}).(func() error)
	check := func() error {
		aborted = ctx.Err()
		if aborted == nil && extra != nil {
			aborted = extra()
		}
		return aborted
	}

	p, err := s.records.AddProductChecked(listID, name, model.CategoryUnknown, model.PriorityMedium, check)
	if err != nil {
		if aborted != nil {
			s.logger.Info("scan ended during write, product discarded", "barcode", barcode, "list_id", listID)
			res.Discarded = true
			res.Err = fmt.Errorf("scan session ended: %w", aborted)
			return res
		}
		res.Err = err
		return res
	}
	res.Product = p
	s.logger.Info("product added from barcode",
		"list_id", listID, "product_id", p.ID, "barcode", barcode, "resolved", res.Resolved)
	return res
}

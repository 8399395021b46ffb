package service

import (
	"context"

	"github.com/GTDGit/paytraq_sync/internal/models"
	"github.com/GTDGit/paytraq_sync/pkg/paytraq"
)

// Catalog is the product source consumed by ProductService. Satisfied by
// *paytraq.Client; a stub stands in for tests.
type Catalog interface {
	FetchAllProducts(ctx context.Context, opts paytraq.FetchOptions) ([]paytraq.Product, []string, error)
}

// ProductService fetches the full catalog and normalizes it into
// spreadsheet-shaped records.
type ProductService struct {
	catalog Catalog
}

// NewProductService constructs a ProductService.
func NewProductService(catalog Catalog) *ProductService {
	return &ProductService{catalog: catalog}
}

// FetchCatalog walks the whole catalog and returns normalized records plus
// the paging debug trail.
func (s *ProductService) FetchCatalog(ctx context.Context, withSuppliers bool) ([]models.ProductRecord, []string, error) {
	raw, debug, err := s.catalog.FetchAllProducts(ctx, paytraq.FetchOptions{Suppliers: withSuppliers})
	if err != nil {
		return nil, debug, err
	}

	records := make([]models.ProductRecord, 0, len(raw))
	for _, p := range raw {
		records = append(records, NormalizeProduct(p, withSuppliers))
	}
	return records, debug, nil
}

// UpdatedWithin filters records whose UpdatedUTC falls inside the window.
func UpdatedWithin(records []models.ProductRecord, win Window) []models.ProductRecord {
	out := []models.ProductRecord{}
	for _, r := range records {
		if win.ContainsISO(r.UpdatedUTC) {
			out = append(out, r)
		}
	}
	return out
}

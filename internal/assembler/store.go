package assembler

import (
	"context"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

// Store is the read surface the engine needs from the backing schema. The
// sqlite client satisfies it in production; tests substitute a fake.
type Store interface {
	// ListEventIDs resolves a brand/window filter to capture event IDs in
	// capture order.
	ListEventIDs(ctx context.Context, f models.EventFilter) ([]int64, error)

	// FetchFactRecords returns one raw joined record per event ID that
	// exists; IDs with no matching event are absent, not errors.
	FetchFactRecords(ctx context.Context, eventIDs []int64) ([]models.RawFactRecord, error)

	// ListBrands returns every brand owned by a customer.
	ListBrands(ctx context.Context, customerID int64) ([]models.Brand, error)
}

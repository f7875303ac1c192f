package assembler

import (
	"context"
	"fmt"
	"strings"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

// AssembleTopicComparison builds the cross-brand competitor comparison:
// competitor rows for the requested topics across every brand the customer
// owns, after self-exclusion and allow-list filtering. Rows with no signal
// at all (share, visibility and sentiment all absent) are dropped; this
// view feeds comparative charts where an all-null row is noise.
func (e *Engine) AssembleTopicComparison(ctx context.Context, req TopicJoinRequest) Result[CompetitorRow] {
	return assemble(e, "topics", func() ([]CompetitorRow, error) {
		brands, err := e.store.ListBrands(ctx, req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("list brands: %w", err)
		}

		var collectorTypes []string
		if len(req.ProviderKeys) > 0 {
			collectorTypes = e.resolver.ResolveAll(req.ProviderKeys)
		}

		var ids []int64
		for _, b := range brands {
			brandIDs, err := e.store.ListEventIDs(ctx, models.EventFilter{
				BrandID:        b.ID,
				CustomerID:     req.CustomerID,
				Start:          req.Start,
				End:            req.End,
				CollectorTypes: collectorTypes,
				Topics:         req.Topics,
			})
			if err != nil {
				return nil, fmt.Errorf("list events for brand %d: %w", b.ID, err)
			}
			ids = append(ids, brandIDs...)
		}

		records, err := e.fetchRecords(ctx, ids)
		if err != nil {
			return nil, err
		}

		allowed := make(map[string]bool, len(req.AllowedCompetitors))
		for _, name := range req.AllowedCompetitors {
			allowed[normalizeName(name)] = true
		}

		var rows []CompetitorRow
		for _, rec := range records {
			for _, row := range buildCompetitorRows(rec, true, "") {
				if strings.EqualFold(row.CompetitorName, req.BrandName) {
					continue
				}
				if len(allowed) > 0 && !allowed[normalizeName(row.CompetitorName)] {
					continue
				}
				if row.ShareOfAnswers == nil && row.VisibilityIndex == nil && row.SentimentScore == nil {
					continue
				}
				rows = append(rows, row)
			}
		}
		return rows, nil
	})
}

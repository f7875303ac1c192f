package assembler

import (
	"context"
	"time"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

// AssembleBrandView returns one row per capture event. Events that exist
// but have not been scored yet are included with all metric fields nil so
// callers can tell "no data yet" from "filtered out".
func (e *Engine) AssembleBrandView(ctx context.Context, req Request) Result[BrandRow] {
	return assemble(e, "brand", func() ([]BrandRow, error) {
		records, err := e.loadRecords(ctx, req)
		if err != nil {
			return nil, err
		}

		includeSentiment := req.IncludeSentiment == nil || *req.IncludeSentiment

		rows := make([]BrandRow, 0, len(records))
		for _, rec := range records {
			rows = append(rows, buildBrandRow(rec, includeSentiment))
		}
		return rows, nil
	})
}

func buildBrandRow(rec models.FactRecord, includeSentiment bool) BrandRow {
	row := BrandRow{
		EventID:       rec.EventID,
		BrandID:       rec.BrandID,
		QueryID:       rec.QueryID,
		CollectorType: rec.CollectorType,
		CapturedAt:    rec.CapturedAt,
		Keywords:      rec.Keywords,
	}

	if rec.Fact != nil {
		row.Topic = rec.Fact.Topic
		row.ProcessedAt = timePtr(time.Unix(rec.Fact.ProcessedAt, 0).UTC())
	}

	if m := rec.BrandMetric; m != nil {
		row.VisibilityIndex = m.VisibilityIndex
		row.ShareOfAnswers = m.ShareOfAnswers
		row.TotalMentions = intPtr(m.TotalMentions)
		row.TotalProductMentions = intPtr(m.TotalProductMentions)
		row.HasPresence = boolPtr(m.HasPresence)
		row.MentionPositions = m.MentionPositions
		row.FirstPosition = m.FirstPosition
	}

	if includeSentiment {
		if s := rec.BrandSentiment; s != nil {
			row.SentimentScore = s.Score
			row.SentimentLabel = s.Label
			row.PositiveSentences = s.PositiveSentences
			row.NegativeSentences = s.NegativeSentences
		}
	}

	return row
}

package assembler

import (
	"context"
	"strings"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

// AssembleCompetitorView fans out to one row per (capture event,
// competitor metric) pair actually present. Sentiment is matched to the
// metric by competitor identity within the same fact.
func (e *Engine) AssembleCompetitorView(ctx context.Context, req Request) Result[CompetitorRow] {
	return assemble(e, "competitor", func() ([]CompetitorRow, error) {
		records, err := e.loadRecords(ctx, req)
		if err != nil {
			return nil, err
		}

		includeSentiment := req.IncludeSentiment == nil || *req.IncludeSentiment

		rows := make([]CompetitorRow, 0, len(records))
		for _, rec := range records {
			rows = append(rows, buildCompetitorRows(rec, includeSentiment, req.ExcludeBrandName)...)
		}
		return rows, nil
	})
}

func buildCompetitorRows(rec models.FactRecord, includeSentiment bool, excludeBrandName string) []CompetitorRow {
	if len(rec.CompetitorMetrics) == 0 {
		return nil
	}

	sentiments := make(map[int64]models.CompetitorSentiment, len(rec.CompetitorSentiments))
	for _, s := range rec.CompetitorSentiments {
		if _, ok := sentiments[s.CompetitorID]; !ok {
			sentiments[s.CompetitorID] = s
		}
	}

	var topic *string
	if rec.Fact != nil {
		topic = rec.Fact.Topic
	}

	rows := make([]CompetitorRow, 0, len(rec.CompetitorMetrics))
	for _, cm := range rec.CompetitorMetrics {
		if excludeBrandName != "" && strings.EqualFold(cm.CompetitorName, excludeBrandName) {
			continue
		}

		row := CompetitorRow{
			EventID:          rec.EventID,
			BrandID:          rec.BrandID,
			QueryID:          rec.QueryID,
			CollectorType:    rec.CollectorType,
			CapturedAt:       rec.CapturedAt,
			Topic:            topic,
			CompetitorName:   cm.CompetitorName,
			VisibilityIndex:  cm.VisibilityIndex,
			ShareOfAnswers:   cm.ShareOfAnswers,
			MentionCount:     cm.MentionCount,
			MentionPositions: cm.MentionPositions,
		}

		if includeSentiment {
			if s, ok := sentiments[cm.CompetitorID]; ok {
				row.SentimentScore = s.Score
				row.SentimentLabel = s.Label
			}
		}

		rows = append(rows, row)
	}
	return rows
}

package assembler

import (
	"context"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

// AssemblePromptsAnalytics returns one row per capture event with
// competitor metrics rolled into per-event totals and name-keyed lookup
// maps for cross-entity comparison tables.
func (e *Engine) AssemblePromptsAnalytics(ctx context.Context, req Request) Result[PromptRow] {
	return assemble(e, "prompts", func() ([]PromptRow, error) {
		records, err := e.loadRecords(ctx, req)
		if err != nil {
			return nil, err
		}

		includeSentiment := req.IncludeSentiment == nil || *req.IncludeSentiment

		rows := make([]PromptRow, 0, len(records))
		for _, rec := range records {
			rows = append(rows, buildPromptRow(rec, includeSentiment))
		}
		return rows, nil
	})
}

func buildPromptRow(rec models.FactRecord, includeSentiment bool) PromptRow {
	row := PromptRow{
		EventID:              rec.EventID,
		BrandID:              rec.BrandID,
		QueryID:              rec.QueryID,
		CollectorType:        rec.CollectorType,
		CapturedAt:           rec.CapturedAt,
		CompetitorVisibility: make(map[string]*float64),
		CompetitorSentiment:  make(map[string]*float64),
		CompetitorMentions:   make(map[string]int),
		CompetitorPositions:  make(map[string][]int),
	}

	if rec.Fact != nil {
		row.Topic = rec.Fact.Topic
	}

	if m := rec.BrandMetric; m != nil {
		row.VisibilityIndex = m.VisibilityIndex
		row.ShareOfAnswers = m.ShareOfAnswers
		row.TotalMentions = intPtr(m.TotalMentions)
		row.HasPresence = boolPtr(m.HasPresence)
		row.FirstPosition = m.FirstPosition
	}

	if includeSentiment {
		if s := rec.BrandSentiment; s != nil {
			row.SentimentScore = s.Score
			row.SentimentLabel = s.Label
		}
	}

	names := make(map[int64]string, len(rec.CompetitorMetrics))
	for _, cm := range rec.CompetitorMetrics {
		key := normalizeName(cm.CompetitorName)
		names[cm.CompetitorID] = key

		// Missing counts as 0 for the rollup only; the map entries keep
		// each competitor's nil-vs-zero intact.
		row.TotalCompetitorMentions += cm.MentionCount

		row.CompetitorVisibility[key] = cm.VisibilityIndex
		row.CompetitorMentions[key] = cm.MentionCount
		row.CompetitorPositions[key] = cm.MentionPositions
	}

	if includeSentiment {
		for _, cs := range rec.CompetitorSentiments {
			key, ok := names[cs.CompetitorID]
			if !ok {
				continue
			}
			if _, exists := row.CompetitorSentiment[key]; !exists {
				row.CompetitorSentiment[key] = cs.Score
			}
		}
	}

	return row
}

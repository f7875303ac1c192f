package assembler

import (
	"context"
	"net/url"
	"strings"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

// AssembleSourceAttribution composes the brand view with citation records:
// one row per (capture event, citation), carrying the citation's domain
// alongside the event's flattened brand metrics and the summed competitor
// mentions for that event.
func (e *Engine) AssembleSourceAttribution(ctx context.Context, req Request) Result[SourceRow] {
	return assemble(e, "sources", func() ([]SourceRow, error) {
		records, err := e.loadRecords(ctx, req)
		if err != nil {
			return nil, err
		}

		var rows []SourceRow
		for _, rec := range records {
			rows = append(rows, buildSourceRows(rec)...)
		}
		return rows, nil
	})
}

func buildSourceRows(rec models.FactRecord) []SourceRow {
	if len(rec.Citations) == 0 {
		return nil
	}

	var topic *string
	if rec.Fact != nil {
		topic = rec.Fact.Topic
	}

	totalCompetitorMentions := sumCompetitorMentions(rec.CompetitorMetrics)

	rows := make([]SourceRow, 0, len(rec.Citations))
	for _, ci := range rec.Citations {
		row := SourceRow{
			EventID:                 rec.EventID,
			QueryID:                 rec.QueryID,
			CollectorType:           rec.CollectorType,
			CapturedAt:              rec.CapturedAt,
			Topic:                   topic,
			URL:                     ci.URL,
			Domain:                  ci.Domain,
			Position:                ci.Position,
			TotalCompetitorMentions: totalCompetitorMentions,
		}
		if row.Domain == "" {
			row.Domain = domainFromURL(ci.URL)
		}

		if m := rec.BrandMetric; m != nil {
			row.VisibilityIndex = m.VisibilityIndex
			row.ShareOfAnswers = m.ShareOfAnswers
			row.TotalMentions = intPtr(m.TotalMentions)
		}

		rows = append(rows, row)
	}
	return rows
}

func sumCompetitorMentions(metrics []models.CompetitorMetric) int {
	total := 0
	for _, cm := range metrics {
		total += cm.MentionCount
	}
	return total
}

func domainFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

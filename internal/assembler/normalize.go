package assembler

import (
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

// normalizeRecord resolves every relation of a raw joined record through
// the shape normalizer. This is the only place raw relation shapes are
// touched.
func (e *Engine) normalizeRecord(raw models.RawFactRecord) (models.FactRecord, error) {
	rec := models.FactRecord{
		EventID:       raw.EventID,
		BrandID:       raw.BrandID,
		CustomerID:    raw.CustomerID,
		QueryID:       raw.QueryID,
		CollectorType: raw.CollectorType,
		CapturedAt:    raw.CapturedAt,
	}

	var fact models.MetricFact
	ok, err := e.norm.One("metric_fact", raw.Fact, &fact)
	if err != nil {
		return rec, err
	}
	if ok {
		rec.Fact = &fact
	}

	var brandMetric models.BrandMetric
	ok, err = e.norm.One("brand_metric", raw.BrandMetric, &brandMetric)
	if err != nil {
		return rec, err
	}
	if ok {
		rec.BrandMetric = &brandMetric
	}

	var brandSentiment models.BrandSentiment
	ok, err = e.norm.One("brand_sentiment", raw.BrandSentiment, &brandSentiment)
	if err != nil {
		return rec, err
	}
	if ok {
		rec.BrandSentiment = &brandSentiment
	}

	if err := e.norm.Many("competitor_metrics", raw.CompetitorMetrics, &rec.CompetitorMetrics); err != nil {
		return rec, err
	}
	if err := e.norm.Many("competitor_sentiments", raw.CompetitorSentiments, &rec.CompetitorSentiments); err != nil {
		return rec, err
	}

	var extractions []models.KeywordExtraction
	if err := e.norm.Many("keyword_extractions", raw.Keywords, &extractions); err != nil {
		return rec, err
	}
	for _, ex := range extractions {
		rec.Keywords = append(rec.Keywords, ex.Keywords...)
	}

	if err := e.norm.Many("citations", raw.Citations, &rec.Citations); err != nil {
		return rec, err
	}

	return rec, nil
}

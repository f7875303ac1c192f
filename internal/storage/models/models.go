package models

import (
	"encoding/json"
	"time"
)

type Brand struct {
	ID         int64
	CustomerID int64
	Name       string
}

type CaptureEvent struct {
	ID            int64
	BrandID       int64
	CustomerID    int64
	QueryID       int64
	CollectorType string
	CapturedAt    time.Time
	AnswerText    string
}

// MetricFact is the central fact row, at most one per capture event.
// Written by the scoring pipeline, read-only here.
type MetricFact struct {
	ID             int64   `json:"id"`
	CaptureEventID int64   `json:"capture_event_id"`
	BrandID        int64   `json:"brand_id"`
	CustomerID     int64   `json:"customer_id"`
	Topic          *string `json:"topic"`
	ProcessedAt    int64   `json:"processed_at"`
}

// BrandMetric and its siblings use pointers where the underlying column is
// nullable. A nil pointer means "not scored", a zero value means "scored,
// legitimately zero"; the two are never interchangeable.
type BrandMetric struct {
	ID                   int64    `json:"id"`
	FactID               int64    `json:"fact_id"`
	VisibilityIndex      *float64 `json:"visibility_index"`
	ShareOfAnswers       *float64 `json:"share_of_answers"`
	TotalMentions        int      `json:"total_mentions"`
	TotalProductMentions int      `json:"total_product_mentions"`
	HasPresence          bool     `json:"has_presence"`
	MentionPositions     []int    `json:"mention_positions"`
	FirstPosition        *int     `json:"first_position"`
}

type CompetitorMetric struct {
	ID               int64    `json:"id"`
	FactID           int64    `json:"fact_id"`
	CompetitorID     int64    `json:"competitor_id"`
	CompetitorName   string   `json:"competitor_name"`
	VisibilityIndex  *float64 `json:"visibility_index"`
	ShareOfAnswers   *float64 `json:"share_of_answers"`
	MentionCount     int      `json:"mention_count"`
	MentionPositions []int    `json:"mention_positions"`
}

type Competitor struct {
	ID      int64
	BrandID int64
	Name    string
}

type BrandSentiment struct {
	ID                int64    `json:"id"`
	FactID            int64    `json:"fact_id"`
	Score             *float64 `json:"score"`
	Label             *string  `json:"label"`
	PositiveSentences []string `json:"positive_sentences"`
	NegativeSentences []string `json:"negative_sentences"`
}

type CompetitorSentiment struct {
	ID                int64    `json:"id"`
	FactID            int64    `json:"fact_id"`
	CompetitorID      int64    `json:"competitor_id"`
	Score             *float64 `json:"score"`
	Label             *string  `json:"label"`
	PositiveSentences []string `json:"positive_sentences"`
	NegativeSentences []string `json:"negative_sentences"`
}

type KeywordExtraction struct {
	ID             int64    `json:"id"`
	CaptureEventID int64    `json:"capture_event_id"`
	Keywords       []string `json:"keywords"`
}

type Citation struct {
	ID             int64  `json:"id"`
	CaptureEventID int64  `json:"capture_event_id"`
	URL            string `json:"url"`
	Domain         string `json:"domain"`
	Position       int    `json:"position"`
}

// RawFactRecord is one capture event with its relations still in wire shape.
// A to-one relation may arrive as a bare object, a one-element array, or
// null; a to-many relation as an array, a bare object, or null. Consumers
// must go through shape.Normalizer before touching relation fields.
type RawFactRecord struct {
	EventID       int64
	BrandID       int64
	CustomerID    int64
	QueryID       int64
	CollectorType string
	CapturedAt    time.Time

	Fact                 json.RawMessage
	BrandMetric          json.RawMessage
	BrandSentiment       json.RawMessage
	CompetitorMetrics    json.RawMessage
	CompetitorSentiments json.RawMessage
	Keywords             json.RawMessage
	Citations            json.RawMessage
}

// FactRecord is the normalized form of a RawFactRecord.
type FactRecord struct {
	EventID       int64
	BrandID       int64
	CustomerID    int64
	QueryID       int64
	CollectorType string
	CapturedAt    time.Time

	Fact                 *MetricFact
	BrandMetric          *BrandMetric
	BrandSentiment       *BrandSentiment
	CompetitorMetrics    []CompetitorMetric
	CompetitorSentiments []CompetitorSentiment
	Keywords             []string
	Citations            []Citation
}

// EventFilter selects capture events by brand and window instead of
// explicit IDs.
type EventFilter struct {
	BrandID        int64
	CustomerID     int64
	Start          time.Time
	End            time.Time
	CollectorTypes []string
	Topics         []string
}

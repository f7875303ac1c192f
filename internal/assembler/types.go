package assembler

import (
	"time"
)

// Request selects the capture events a view is assembled over: either an
// explicit event ID list, or a brand + date window with optional filters.
type Request struct {
	EventIDs []int64 `json:"eventIds"`

	BrandID    int64     `json:"brandId"`
	CustomerID int64     `json:"customerId"`
	Start      time.Time `json:"startDate"`
	End        time.Time `json:"endDate"`

	ProviderKeys     []string `json:"providerKeys"`
	Topics           []string `json:"topics"`
	IncludeSentiment *bool    `json:"includeSentiment"`

	// ExcludeBrandName drops competitor rows whose resolved display name
	// case-insensitively equals the tracked brand's own name (a known
	// self-reference data-quality case). Competitor views only.
	ExcludeBrandName string `json:"excludeBrandName"`
}

// TopicJoinRequest drives the cross-brand competitor comparison view.
type TopicJoinRequest struct {
	CustomerID         int64     `json:"customerId"`
	BrandName          string    `json:"brandName"`
	Topics             []string  `json:"topics"`
	Start              time.Time `json:"startDate"`
	End                time.Time `json:"endDate"`
	ProviderKeys       []string  `json:"providerKeys"`
	AllowedCompetitors []string  `json:"allowedCompetitors"`
}

// Result is the uniform envelope every assembler returns. Failure is
// signaled via Success=false and Error; nothing is thrown across this
// boundary. DurationMs is reported on every call regardless of outcome.
// Success=false must not be read as "no data", only as "query did not
// complete".
type Result[T any] struct {
	Success    bool   `json:"success"`
	Data       []T    `json:"data"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// BrandRow is one flattened record per capture event. Pointer fields are
// nil iff the dependent row does not exist; a concrete zero means the row
// exists and the value really is zero.
type BrandRow struct {
	EventID       int64     `json:"event_id"`
	BrandID       int64     `json:"brand_id"`
	QueryID       int64     `json:"query_id"`
	CollectorType string    `json:"collector_type"`
	CapturedAt    time.Time `json:"captured_at"`

	Topic       *string    `json:"topic"`
	ProcessedAt *time.Time `json:"processed_at"`

	VisibilityIndex      *float64 `json:"visibility_index"`
	ShareOfAnswers       *float64 `json:"share_of_answers"`
	TotalMentions        *int     `json:"total_mentions"`
	TotalProductMentions *int     `json:"total_product_mentions"`
	HasPresence          *bool    `json:"has_presence"`
	MentionPositions     []int    `json:"mention_positions"`
	FirstPosition        *int     `json:"first_position"`

	SentimentScore    *float64 `json:"sentiment_score,omitempty"`
	SentimentLabel    *string  `json:"sentiment_label,omitempty"`
	PositiveSentences []string `json:"positive_sentences,omitempty"`
	NegativeSentences []string `json:"negative_sentences,omitempty"`

	Keywords []string `json:"keywords,omitempty"`
}

// CompetitorRow is one flattened record per (capture event, competitor)
// pair. It carries the competitor's display name, never its internal ID.
type CompetitorRow struct {
	EventID       int64     `json:"event_id"`
	BrandID       int64     `json:"brand_id"`
	QueryID       int64     `json:"query_id"`
	CollectorType string    `json:"collector_type"`
	CapturedAt    time.Time `json:"captured_at"`
	Topic         *string   `json:"topic"`

	CompetitorName string `json:"competitor_name"`

	VisibilityIndex  *float64 `json:"visibility_index"`
	ShareOfAnswers   *float64 `json:"share_of_answers"`
	MentionCount     int      `json:"mention_count"`
	MentionPositions []int    `json:"mention_positions"`

	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	SentimentLabel *string  `json:"sentiment_label,omitempty"`
}

// SourceRow is one flattened record per (capture event, citation).
type SourceRow struct {
	EventID       int64     `json:"event_id"`
	QueryID       int64     `json:"query_id"`
	CollectorType string    `json:"collector_type"`
	CapturedAt    time.Time `json:"captured_at"`
	Topic         *string   `json:"topic"`

	URL      string `json:"url"`
	Domain   string `json:"domain"`
	Position int    `json:"position"`

	VisibilityIndex         *float64 `json:"visibility_index"`
	ShareOfAnswers          *float64 `json:"share_of_answers"`
	TotalMentions           *int     `json:"total_mentions"`
	TotalCompetitorMentions int      `json:"total_competitor_mentions"`
}

// PromptRow is one record per capture event with competitor lookups keyed
// by normalized competitor name. The aggregate TotalCompetitorMentions
// treats a missing count as 0 for summation only; the map entries keep
// nil-vs-zero intact.
type PromptRow struct {
	EventID       int64     `json:"event_id"`
	BrandID       int64     `json:"brand_id"`
	QueryID       int64     `json:"query_id"`
	CollectorType string    `json:"collector_type"`
	CapturedAt    time.Time `json:"captured_at"`
	Topic         *string   `json:"topic"`

	VisibilityIndex *float64 `json:"visibility_index"`
	ShareOfAnswers  *float64 `json:"share_of_answers"`
	TotalMentions   *int     `json:"total_mentions"`
	HasPresence     *bool    `json:"has_presence"`
	FirstPosition   *int     `json:"first_position"`
	SentimentScore  *float64 `json:"sentiment_score,omitempty"`
	SentimentLabel  *string  `json:"sentiment_label,omitempty"`

	TotalCompetitorMentions int `json:"total_competitor_mentions"`

	CompetitorVisibility map[string]*float64 `json:"competitor_visibility"`
	CompetitorSentiment  map[string]*float64 `json:"competitor_sentiment"`
	CompetitorMentions   map[string]int      `json:"competitor_mentions"`
	CompetitorPositions  map[string][]int    `json:"competitor_positions"`
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
	"github.com/vikasmalikst/evidently-aeo-sub013/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// InitSchema creates the star schema tables. The projection engine only
// reads them; the write paths below exist for the upstream collaborators
// and for test fixtures.
func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS brands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		name TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_brands_customer ON brands(customer_id);

	CREATE TABLE IF NOT EXISTS capture_events (
		id INTEGER PRIMARY KEY,
		brand_id INTEGER NOT NULL,
		customer_id INTEGER NOT NULL,
		query_id INTEGER NOT NULL,
		collector_type TEXT NOT NULL,
		captured_at INTEGER NOT NULL,
		answer_text TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_brand_date ON capture_events(brand_id, captured_at);
	CREATE INDEX IF NOT EXISTS idx_events_collector ON capture_events(collector_type);

	CREATE TABLE IF NOT EXISTS metric_facts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_event_id INTEGER NOT NULL UNIQUE,
		brand_id INTEGER NOT NULL,
		customer_id INTEGER NOT NULL,
		topic TEXT,
		processed_at INTEGER NOT NULL,
		FOREIGN KEY (capture_event_id) REFERENCES capture_events(id)
	);
	CREATE INDEX IF NOT EXISTS idx_facts_topic ON metric_facts(topic);

	CREATE TABLE IF NOT EXISTS brand_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fact_id INTEGER NOT NULL,
		visibility_index REAL,
		share_of_answers REAL,
		total_mentions INTEGER NOT NULL DEFAULT 0,
		total_product_mentions INTEGER NOT NULL DEFAULT 0,
		has_presence INTEGER NOT NULL DEFAULT 0,
		mention_positions TEXT NOT NULL DEFAULT '[]',
		first_position INTEGER,
		FOREIGN KEY (fact_id) REFERENCES metric_facts(id)
	);
	CREATE INDEX IF NOT EXISTS idx_brand_metrics_fact ON brand_metrics(fact_id);

	CREATE TABLE IF NOT EXISTS competitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		brand_id INTEGER NOT NULL,
		name TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_competitors_brand ON competitors(brand_id);

	CREATE TABLE IF NOT EXISTS competitor_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fact_id INTEGER NOT NULL,
		competitor_id INTEGER NOT NULL,
		visibility_index REAL,
		share_of_answers REAL,
		mention_count INTEGER NOT NULL DEFAULT 0,
		mention_positions TEXT NOT NULL DEFAULT '[]',
		FOREIGN KEY (fact_id) REFERENCES metric_facts(id),
		FOREIGN KEY (competitor_id) REFERENCES competitors(id)
	);
	CREATE INDEX IF NOT EXISTS idx_competitor_metrics_fact ON competitor_metrics(fact_id);

	CREATE TABLE IF NOT EXISTS brand_sentiments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fact_id INTEGER NOT NULL,
		score REAL,
		label TEXT,
		positive_sentences TEXT NOT NULL DEFAULT '[]',
		negative_sentences TEXT NOT NULL DEFAULT '[]',
		FOREIGN KEY (fact_id) REFERENCES metric_facts(id)
	);
	CREATE INDEX IF NOT EXISTS idx_brand_sentiments_fact ON brand_sentiments(fact_id);

	CREATE TABLE IF NOT EXISTS competitor_sentiments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fact_id INTEGER NOT NULL,
		competitor_id INTEGER NOT NULL,
		score REAL,
		label TEXT,
		positive_sentences TEXT NOT NULL DEFAULT '[]',
		negative_sentences TEXT NOT NULL DEFAULT '[]',
		FOREIGN KEY (fact_id) REFERENCES metric_facts(id),
		FOREIGN KEY (competitor_id) REFERENCES competitors(id)
	);
	CREATE INDEX IF NOT EXISTS idx_competitor_sentiments_fact ON competitor_sentiments(fact_id);

	CREATE TABLE IF NOT EXISTS keyword_extractions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_event_id INTEGER NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		FOREIGN KEY (capture_event_id) REFERENCES capture_events(id)
	);
	CREATE INDEX IF NOT EXISTS idx_keywords_event ON keyword_extractions(capture_event_id);

	CREATE TABLE IF NOT EXISTS citations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_event_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		domain TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (capture_event_id) REFERENCES capture_events(id)
	);
	CREATE INDEX IF NOT EXISTS idx_citations_event ON citations(capture_event_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// factRecordQuery pulls one capture event with every relation rendered as
// JSON in a single read. The to-one relations come back as bare objects
// (or NULL), the to-many relations as arrays; historical revisions of this
// query emitted one-element arrays for to-one relations, which is why all
// relation fields stay json.RawMessage until shape normalization.
const factRecordQuery = `
SELECT
	e.id, e.brand_id, e.customer_id, e.query_id, e.collector_type, e.captured_at,
	(SELECT json_object(
		'id', f.id, 'capture_event_id', f.capture_event_id,
		'brand_id', f.brand_id, 'customer_id', f.customer_id,
		'topic', f.topic, 'processed_at', f.processed_at)
	 FROM metric_facts f WHERE f.capture_event_id = e.id ORDER BY f.id LIMIT 1) AS fact,
	(SELECT json_object(
		'id', bm.id, 'fact_id', bm.fact_id,
		'visibility_index', bm.visibility_index, 'share_of_answers', bm.share_of_answers,
		'total_mentions', bm.total_mentions, 'total_product_mentions', bm.total_product_mentions,
		'has_presence', json(CASE WHEN bm.has_presence THEN 'true' ELSE 'false' END),
		'mention_positions', json(bm.mention_positions), 'first_position', bm.first_position)
	 FROM brand_metrics bm
	 JOIN metric_facts f ON bm.fact_id = f.id
	 WHERE f.capture_event_id = e.id ORDER BY bm.id LIMIT 1) AS brand_metric,
	(SELECT json_object(
		'id', bs.id, 'fact_id', bs.fact_id, 'score', bs.score, 'label', bs.label,
		'positive_sentences', json(bs.positive_sentences),
		'negative_sentences', json(bs.negative_sentences))
	 FROM brand_sentiments bs
	 JOIN metric_facts f ON bs.fact_id = f.id
	 WHERE f.capture_event_id = e.id ORDER BY bs.id LIMIT 1) AS brand_sentiment,
	(SELECT json_group_array(json_object(
		'id', cm.id, 'fact_id', cm.fact_id, 'competitor_id', cm.competitor_id,
		'competitor_name', c.name,
		'visibility_index', cm.visibility_index, 'share_of_answers', cm.share_of_answers,
		'mention_count', cm.mention_count,
		'mention_positions', json(cm.mention_positions)))
	 FROM competitor_metrics cm
	 JOIN competitors c ON c.id = cm.competitor_id
	 JOIN metric_facts f ON cm.fact_id = f.id
	 WHERE f.capture_event_id = e.id) AS competitor_metrics,
	(SELECT json_group_array(json_object(
		'id', cs.id, 'fact_id', cs.fact_id, 'competitor_id', cs.competitor_id,
		'score', cs.score, 'label', cs.label,
		'positive_sentences', json(cs.positive_sentences),
		'negative_sentences', json(cs.negative_sentences)))
	 FROM competitor_sentiments cs
	 JOIN metric_facts f ON cs.fact_id = f.id
	 WHERE f.capture_event_id = e.id) AS competitor_sentiments,
	(SELECT json_group_array(json_object(
		'id', ke.id, 'capture_event_id', ke.capture_event_id,
		'keywords', json(ke.keywords)))
	 FROM keyword_extractions ke
	 WHERE ke.capture_event_id = e.id) AS keywords,
	(SELECT json_group_array(json_object(
		'id', ci.id, 'capture_event_id', ci.capture_event_id,
		'url', ci.url, 'domain', ci.domain, 'position', ci.position))
	 FROM citations ci
	 WHERE ci.capture_event_id = e.id) AS citations
FROM capture_events e
WHERE e.id IN (%s)
ORDER BY e.captured_at, e.id
`

// FetchFactRecords returns one raw record per requested event ID that
// exists in capture_events. IDs with no matching event are simply absent.
func (c *Client) FetchFactRecords(ctx context.Context, eventIDs []int64) ([]models.RawFactRecord, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(eventIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}

	query := fmt.Sprintf(factRecordQuery, placeholders)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fact records: %w", err)
	}
	defer rows.Close()

	var records []models.RawFactRecord
	for rows.Next() {
		var r models.RawFactRecord
		var capturedAt int64
		var fact, brandMetric, brandSentiment sql.NullString
		var competitorMetrics, competitorSentiments, keywords, citations sql.NullString

		err := rows.Scan(
			&r.EventID, &r.BrandID, &r.CustomerID, &r.QueryID, &r.CollectorType, &capturedAt,
			&fact, &brandMetric, &brandSentiment,
			&competitorMetrics, &competitorSentiments, &keywords, &citations,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fact record: %w", err)
		}

		r.CapturedAt = time.Unix(capturedAt, 0).UTC()
		r.Fact = rawJSON(fact)
		r.BrandMetric = rawJSON(brandMetric)
		r.BrandSentiment = rawJSON(brandSentiment)
		r.CompetitorMetrics = rawJSON(competitorMetrics)
		r.CompetitorSentiments = rawJSON(competitorSentiments)
		r.Keywords = rawJSON(keywords)
		r.Citations = rawJSON(citations)

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fact records: %w", err)
	}

	return records, nil
}

func rawJSON(v sql.NullString) json.RawMessage {
	if !v.Valid || v.String == "" {
		return nil
	}
	return json.RawMessage(v.String)
}

// ListEventIDs resolves a (brand, window, filters) tuple to the matching
// capture event IDs in capture order.
func (c *Client) ListEventIDs(ctx context.Context, f models.EventFilter) ([]int64, error) {
	var sb strings.Builder
	sb.WriteString("SELECT e.id FROM capture_events e WHERE e.brand_id = ?")
	args := []interface{}{f.BrandID}

	if f.CustomerID != 0 {
		sb.WriteString(" AND e.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if !f.Start.IsZero() {
		sb.WriteString(" AND e.captured_at >= ?")
		args = append(args, f.Start.Unix())
	}
	if !f.End.IsZero() {
		sb.WriteString(" AND e.captured_at <= ?")
		args = append(args, f.End.Unix())
	}
	if len(f.CollectorTypes) > 0 {
		sb.WriteString(" AND e.collector_type IN (")
		sb.WriteString(strings.Repeat("?,", len(f.CollectorTypes)-1))
		sb.WriteString("?)")
		for _, ct := range f.CollectorTypes {
			args = append(args, ct)
		}
	}
	if len(f.Topics) > 0 {
		sb.WriteString(" AND EXISTS (SELECT 1 FROM metric_facts mf WHERE mf.capture_event_id = e.id AND mf.topic IN (")
		sb.WriteString(strings.Repeat("?,", len(f.Topics)-1))
		sb.WriteString("?))")
		for _, t := range f.Topics {
			args = append(args, t)
		}
	}
	sb.WriteString(" ORDER BY e.captured_at, e.id")

	rows, err := c.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list event ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event ids: %w", err)
	}

	return ids, nil
}

func (c *Client) ListBrands(ctx context.Context, customerID int64) ([]models.Brand, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, customer_id, name FROM brands WHERE customer_id = ? ORDER BY id", customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brands: %w", err)
	}

	return brands, nil
}

// Write paths below are used by the upstream collectors/scorers and by
// test fixtures; the projection engine itself never calls them.

func (c *Client) InsertBrand(b *models.Brand) (int64, error) {
	res, err := c.db.Exec("INSERT INTO brands (customer_id, name) VALUES (?, ?)", b.CustomerID, b.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert brand: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertCaptureEvent(e *models.CaptureEvent) error {
	_, err := c.db.Exec(`
		INSERT INTO capture_events (id, brand_id, customer_id, query_id, collector_type, captured_at, answer_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BrandID, e.CustomerID, e.QueryID, e.CollectorType, e.CapturedAt.Unix(), e.AnswerText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert capture event: %w", err)
	}
	return nil
}

func (c *Client) InsertMetricFact(f *models.MetricFact) (int64, error) {
	res, err := c.db.Exec(`
		INSERT INTO metric_facts (capture_event_id, brand_id, customer_id, topic, processed_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.CaptureEventID, f.BrandID, f.CustomerID, f.Topic, f.ProcessedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert metric fact: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertBrandMetric(m *models.BrandMetric) (int64, error) {
	positions, _ := json.Marshal(m.MentionPositions)
	res, err := c.db.Exec(`
		INSERT INTO brand_metrics (fact_id, visibility_index, share_of_answers, total_mentions,
			total_product_mentions, has_presence, mention_positions, first_position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FactID, m.VisibilityIndex, m.ShareOfAnswers, m.TotalMentions,
		m.TotalProductMentions, m.HasPresence, string(positions), m.FirstPosition,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert brand metric: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertCompetitor(cp *models.Competitor) (int64, error) {
	res, err := c.db.Exec("INSERT INTO competitors (brand_id, name) VALUES (?, ?)", cp.BrandID, cp.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert competitor: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertCompetitorMetric(m *models.CompetitorMetric) (int64, error) {
	positions, _ := json.Marshal(m.MentionPositions)
	res, err := c.db.Exec(`
		INSERT INTO competitor_metrics (fact_id, competitor_id, visibility_index, share_of_answers,
			mention_count, mention_positions)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.FactID, m.CompetitorID, m.VisibilityIndex, m.ShareOfAnswers, m.MentionCount, string(positions),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert competitor metric: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertBrandSentiment(s *models.BrandSentiment) (int64, error) {
	positive, _ := json.Marshal(s.PositiveSentences)
	negative, _ := json.Marshal(s.NegativeSentences)
	res, err := c.db.Exec(`
		INSERT INTO brand_sentiments (fact_id, score, label, positive_sentences, negative_sentences)
		VALUES (?, ?, ?, ?, ?)`,
		s.FactID, s.Score, s.Label, string(positive), string(negative),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert brand sentiment: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertCompetitorSentiment(s *models.CompetitorSentiment) (int64, error) {
	positive, _ := json.Marshal(s.PositiveSentences)
	negative, _ := json.Marshal(s.NegativeSentences)
	res, err := c.db.Exec(`
		INSERT INTO competitor_sentiments (fact_id, competitor_id, score, label, positive_sentences, negative_sentences)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.FactID, s.CompetitorID, s.Score, s.Label, string(positive), string(negative),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert competitor sentiment: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertKeywordExtraction(k *models.KeywordExtraction) (int64, error) {
	keywords, _ := json.Marshal(k.Keywords)
	res, err := c.db.Exec(
		"INSERT INTO keyword_extractions (capture_event_id, keywords) VALUES (?, ?)",
		k.CaptureEventID, string(keywords),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert keyword extraction: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) InsertCitation(ci *models.Citation) (int64, error) {
	res, err := c.db.Exec(
		"INSERT INTO citations (capture_event_id, url, domain, position) VALUES (?, ?, ?, ?)",
		ci.CaptureEventID, ci.URL, ci.Domain, ci.Position,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert citation: %w", err)
	}
	return res.LastInsertId()
}

package assembler

import (
	"context"
	"testing"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

func TestCompetitorViewScenarioFanOut(t *testing.T) {
	engine := newTestEngine(scenarioStore(t))

	res := engine.AssembleCompetitorView(context.Background(), Request{EventIDs: []int64{1, 2, 3}})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if len(res.Data) != 1 {
		t.Fatalf("expected exactly one competitor row, got %d", len(res.Data))
	}

	row := res.Data[0]
	if row.EventID != 1 {
		t.Errorf("expected row for event 1, got event %d", row.EventID)
	}
	if row.CompetitorName != "Acme" {
		t.Errorf("expected display name Acme, got %q", row.CompetitorName)
	}
	if row.MentionCount != 2 {
		t.Errorf("expected 2 mentions, got %d", row.MentionCount)
	}
}

func TestCompetitorViewMultipleCompetitorsPerEvent(t *testing.T) {
	rec := withFact(t, baseEvent(1, 5), 100, nil)
	rec = withCompetitorMetrics(t, rec,
		models.CompetitorMetric{ID: 1, FactID: 100, CompetitorID: 7, CompetitorName: "Acme", MentionCount: 2},
		models.CompetitorMetric{ID: 2, FactID: 100, CompetitorID: 8, CompetitorName: "Globex", MentionCount: 0, VisibilityIndex: fptr(0.1)},
	)
	store := &fakeStore{records: map[int64]models.RawFactRecord{1: rec}}
	engine := newTestEngine(store)

	res := engine.AssembleCompetitorView(context.Background(), Request{EventIDs: []int64{1}})
	if len(res.Data) != 2 {
		t.Fatalf("expected fan-out to 2 rows, got %d", len(res.Data))
	}
	if res.Data[1].MentionCount != 0 {
		t.Errorf("legitimately-zero count must stay 0, got %d", res.Data[1].MentionCount)
	}
}

func TestCompetitorViewSentimentMatchedByIdentity(t *testing.T) {
	rec := withFact(t, baseEvent(1, 5), 100, nil)
	rec = withCompetitorMetrics(t, rec,
		models.CompetitorMetric{ID: 1, FactID: 100, CompetitorID: 7, CompetitorName: "Acme", MentionCount: 2},
		models.CompetitorMetric{ID: 2, FactID: 100, CompetitorID: 8, CompetitorName: "Globex", MentionCount: 1},
	)
	rec = withCompetitorSentiments(t, rec,
		models.CompetitorSentiment{ID: 1, FactID: 100, CompetitorID: 8, Score: fptr(-0.4), Label: sptr("negative")},
	)
	store := &fakeStore{records: map[int64]models.RawFactRecord{1: rec}}
	engine := newTestEngine(store)

	res := engine.AssembleCompetitorView(context.Background(), Request{EventIDs: []int64{1}})
	if res.Data[0].SentimentScore != nil {
		t.Error("Acme has no sentiment row, score must be nil")
	}
	if res.Data[1].SentimentScore == nil || *res.Data[1].SentimentScore != -0.4 {
		t.Errorf("Globex sentiment not matched: %v", res.Data[1].SentimentScore)
	}
}

func TestCompetitorViewSelfReferenceExcluded(t *testing.T) {
	rec := withFact(t, baseEvent(1, 5), 100, nil)
	rec = withCompetitorMetrics(t, rec,
		models.CompetitorMetric{ID: 1, FactID: 100, CompetitorID: 7, CompetitorName: "EVIDENTLY", MentionCount: 4},
		models.CompetitorMetric{ID: 2, FactID: 100, CompetitorID: 8, CompetitorName: "Acme", MentionCount: 1},
	)
	store := &fakeStore{records: map[int64]models.RawFactRecord{1: rec}}
	engine := newTestEngine(store)

	res := engine.AssembleCompetitorView(context.Background(), Request{
		EventIDs:         []int64{1},
		ExcludeBrandName: "Evidently",
	})
	if len(res.Data) != 1 {
		t.Fatalf("expected self-reference dropped, got %d rows", len(res.Data))
	}
	if res.Data[0].CompetitorName != "Acme" {
		t.Errorf("wrong row survived: %q", res.Data[0].CompetitorName)
	}
}

func TestCompetitorViewEventWithoutFactProducesNoRows(t *testing.T) {
	store := &fakeStore{records: map[int64]models.RawFactRecord{2: baseEvent(2, 5)}}
	engine := newTestEngine(store)

	res := engine.AssembleCompetitorView(context.Background(), Request{EventIDs: []int64{2}})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if len(res.Data) != 0 {
		t.Errorf("unscored event must not fan out, got %d rows", len(res.Data))
	}
}

package assembler

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

type fakeStore struct {
	records       map[int64]models.RawFactRecord
	brands        []models.Brand
	eventsByBrand map[int64][]int64
	fetchErr      error
	listErr       error
	fetchCalls    atomic.Int64
}

func (f *fakeStore) FetchFactRecords(_ context.Context, ids []int64) ([]models.RawFactRecord, error) {
	f.fetchCalls.Add(1)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []models.RawFactRecord
	for _, id := range ids {
		if rec, ok := f.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) ListEventIDs(_ context.Context, filter models.EventFilter) ([]int64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.eventsByBrand[filter.BrandID], nil
}

func (f *fakeStore) ListBrands(_ context.Context, customerID int64) ([]models.Brand, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Brand
	for _, b := range f.brands {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func newTestEngine(store Store) *Engine {
	return NewEngine(store, 2, 2, nil)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

var testCapturedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// baseEvent returns a raw record with no fact at all.
func baseEvent(id, brandID int64) models.RawFactRecord {
	return models.RawFactRecord{
		EventID:       id,
		BrandID:       brandID,
		CustomerID:    10,
		QueryID:       id * 100,
		CollectorType: "chatgpt",
		CapturedAt:    testCapturedAt,
	}
}

func withFact(t *testing.T, rec models.RawFactRecord, factID int64, topic *string) models.RawFactRecord {
	rec.Fact = mustJSON(t, models.MetricFact{
		ID:             factID,
		CaptureEventID: rec.EventID,
		BrandID:        rec.BrandID,
		CustomerID:     rec.CustomerID,
		Topic:          topic,
		ProcessedAt:    testCapturedAt.Add(time.Hour).Unix(),
	})
	return rec
}

func withBrandMetric(t *testing.T, rec models.RawFactRecord, m models.BrandMetric) models.RawFactRecord {
	rec.BrandMetric = mustJSON(t, m)
	return rec
}

func withCompetitorMetrics(t *testing.T, rec models.RawFactRecord, ms ...models.CompetitorMetric) models.RawFactRecord {
	rec.CompetitorMetrics = mustJSON(t, ms)
	return rec
}

func withCompetitorSentiments(t *testing.T, rec models.RawFactRecord, ss ...models.CompetitorSentiment) models.RawFactRecord {
	rec.CompetitorSentiments = mustJSON(t, ss)
	return rec
}

func TestEnvelopeReportsDurationOnFailure(t *testing.T) {
	store := &fakeStore{fetchErr: context.DeadlineExceeded}
	engine := newTestEngine(store)

	res := engine.AssembleBrandView(context.Background(), Request{EventIDs: []int64{1}})
	if res.Success {
		t.Fatal("expected failure envelope")
	}
	if res.Error == "" {
		t.Error("expected human-readable error")
	}
	if res.DurationMs < 0 {
		t.Error("expected duration to be reported")
	}
	if res.Data != nil {
		t.Error("failed envelope must not carry data")
	}
}

func TestEmptyResultIsSuccess(t *testing.T) {
	store := &fakeStore{records: map[int64]models.RawFactRecord{}}
	engine := newTestEngine(store)

	res := engine.AssembleBrandView(context.Background(), Request{EventIDs: []int64{42}})
	if !res.Success {
		t.Fatalf("empty result must be success, got error %q", res.Error)
	}
	if len(res.Data) != 0 {
		t.Errorf("expected no rows, got %d", len(res.Data))
	}
	if res.Data == nil {
		t.Error("successful envelope must carry an empty, non-nil data list")
	}
}

func TestDuplicateRequestedIDsAreFetchedOnce(t *testing.T) {
	rec := withFact(t, baseEvent(1, 5), 100, nil)
	store := &fakeStore{records: map[int64]models.RawFactRecord{1: rec}}
	engine := newTestEngine(store)

	res := engine.AssembleBrandView(context.Background(), Request{EventIDs: []int64{1, 1, 1}})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if len(res.Data) != 1 {
		t.Errorf("expected 1 row for duplicated id, got %d", len(res.Data))
	}
	if got := store.fetchCalls.Load(); got != 1 {
		t.Errorf("expected a single store fetch after dedup, got %d", got)
	}
}

func TestPanicRecoveredIntoEnvelope(t *testing.T) {
	engine := newTestEngine(&fakeStore{})

	res := assemble(engine, "brand", func() ([]BrandRow, error) {
		panic("row index out of range")
	})
	if res.Success {
		t.Fatal("expected failure envelope")
	}
	if !strings.Contains(res.Error, "panic") || !strings.Contains(res.Error, "row index out of range") {
		t.Errorf("expected panic message in envelope error, got %q", res.Error)
	}
	if res.Data != nil {
		t.Error("failed envelope must not carry data")
	}
	if res.DurationMs < 0 {
		t.Error("expected duration to be reported")
	}
}

package assembler

import (
	"context"
	"testing"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/models"
)

func withCitations(t *testing.T, rec models.RawFactRecord, cs ...models.Citation) models.RawFactRecord {
	t.Helper()
	rec.Citations = mustJSON(t, cs)
	return rec
}

func sourceStore(t *testing.T) *fakeStore {
	t.Helper()

	cited := withFact(t, baseEvent(1, 5), 100, sptr("pricing"))
	cited = withBrandMetric(t, cited, models.BrandMetric{
		ID: 1, FactID: 100, TotalMentions: 3, HasPresence: true, ShareOfAnswers: fptr(0.4),
	})
	cited = withCompetitorMetrics(t, cited,
		models.CompetitorMetric{ID: 1, FactID: 100, CompetitorID: 7, CompetitorName: "Acme", MentionCount: 2},
		models.CompetitorMetric{ID: 2, FactID: 100, CompetitorID: 8, CompetitorName: "Globex", MentionCount: 1},
	)
	cited = withCitations(t, cited,
		models.Citation{ID: 1, CaptureEventID: 1, URL: "https://www.example.com/post", Domain: "example.com", Position: 1},
		models.Citation{ID: 2, CaptureEventID: 1, URL: "https://docs.acme.io/guide", Position: 2},
	)

	uncited := withFact(t, baseEvent(2, 5), 101, nil)

	return &fakeStore{records: map[int64]models.RawFactRecord{1: cited, 2: uncited}}
}

func TestSourceAttributionFanOut(t *testing.T) {
	engine := newTestEngine(sourceStore(t))

	res := engine.AssembleSourceAttribution(context.Background(), Request{EventIDs: []int64{1, 2}})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if len(res.Data) != 2 {
		t.Fatalf("expected one row per citation of event 1 only, got %d rows", len(res.Data))
	}

	for _, row := range res.Data {
		if row.EventID != 1 {
			t.Errorf("citation-less event leaked into row: event %d", row.EventID)
		}
		if row.TotalCompetitorMentions != 3 {
			t.Errorf("expected summed competitor mentions 3, got %d", row.TotalCompetitorMentions)
		}
		if row.TotalMentions == nil || *row.TotalMentions != 3 {
			t.Errorf("expected brand mentions 3, got %v", row.TotalMentions)
		}
		if row.Topic == nil || *row.Topic != "pricing" {
			t.Errorf("expected topic carried from fact, got %v", row.Topic)
		}
	}
}

func TestSourceAttributionDomainFallback(t *testing.T) {
	engine := newTestEngine(sourceStore(t))

	res := engine.AssembleSourceAttribution(context.Background(), Request{EventIDs: []int64{1}})
	if len(res.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Data))
	}

	if res.Data[0].Domain != "example.com" {
		t.Errorf("stored domain must win over URL parsing, got %q", res.Data[0].Domain)
	}
	if res.Data[1].Domain != "docs.acme.io" {
		t.Errorf("expected domain derived from URL, got %q", res.Data[1].Domain)
	}
}

func TestDomainFromURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://www.example.com/a/b", "example.com"},
		{"http://Example.COM", "example.com"},
		{"https://sub.example.co.uk:8443/x", "sub.example.co.uk"},
		{"not a url", ""},
		{"/relative/path", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := domainFromURL(tc.raw); got != tc.want {
			t.Errorf("domainFromURL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestSourceAttributionUnscoredEvent(t *testing.T) {
	rec := withCitations(t, baseEvent(3, 5),
		models.Citation{ID: 3, CaptureEventID: 3, URL: "https://blog.example.com", Domain: "blog.example.com", Position: 1},
	)
	store := &fakeStore{records: map[int64]models.RawFactRecord{3: rec}}
	engine := newTestEngine(store)

	res := engine.AssembleSourceAttribution(context.Background(), Request{EventIDs: []int64{3}})
	if len(res.Data) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Data))
	}
	row := res.Data[0]
	if row.TotalMentions != nil || row.VisibilityIndex != nil || row.ShareOfAnswers != nil {
		t.Error("event without a brand metric must keep metric fields nil")
	}
	if row.Topic != nil {
		t.Error("event without a fact must keep topic nil")
	}
	if row.TotalCompetitorMentions != 0 {
		t.Errorf("rollup over no competitors must be 0, got %d", row.TotalCompetitorMentions)
	}
}

package registry

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
	"github.com/MichaelBlackwell/bidfoundry/internal/kvstore"
)

func newTestFallback(t *testing.T, opts ...FallbackOption) *Fallback {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open kvstore: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return NewFallback(kv, opts...)
}

func TestSeedsOnFirstAccess(t *testing.T) {
	f := newTestFallback(t)

	page, err := f.List(context.Background(), Query{Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != len(seedDocuments()) {
		t.Errorf("total = %d, want %d seeded records", page.Total, len(seedDocuments()))
	}

	// The seed is persisted, not recomputed per call.
	raw, ok, err := f.kv.Get(StorageKey)
	if err != nil || !ok {
		t.Fatalf("seed not persisted under %q: %v", StorageKey, err)
	}
	if len(raw) == 0 {
		t.Error("persisted value is empty")
	}
}

func TestApprovedByConfidenceScenario(t *testing.T) {
	f := newTestFallback(t)

	page, err := f.List(context.Background(), Query{
		Status:    domain.StatusApproved,
		SortBy:    SortConfidence,
		SortOrder: SortDesc,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []float64{91, 87, 85, 82, 79}
	if len(page.Documents) != len(want) {
		t.Fatalf("approved docs = %d, want %d", len(page.Documents), len(want))
	}
	for i, w := range want {
		if page.Documents[i].Confidence != w {
			t.Errorf("pos %d confidence = %v, want %v", i, page.Documents[i].Confidence, w)
		}
		if page.Documents[i].Status != domain.StatusApproved {
			t.Errorf("pos %d status = %s", i, page.Documents[i].Status)
		}
	}
}

func TestDuplicateScenario(t *testing.T) {
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	f := newTestFallback(t, WithClock(func() time.Time { return now }))

	clone, err := f.Duplicate(context.Background(), "doc-001")
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}

	if clone.ID == "doc-001" {
		t.Error("clone kept the source id")
	}
	if clone.Status != domain.StatusDraft {
		t.Errorf("clone status = %s, want draft", clone.Status)
	}
	if got := clone.Title; got != "Aurora Logistics Modernization Proposal"+CopySuffix {
		t.Errorf("clone title = %q", got)
	}

	var original domain.GeneratedDocument
	page, _ := f.List(context.Background(), Query{Limit: 50})
	for _, d := range page.Documents {
		if d.ID == "doc-001" {
			original = d
		}
	}
	if !clone.CreatedAt.After(original.CreatedAt) {
		t.Errorf("clone createdAt %v not strictly after original %v", clone.CreatedAt, original.CreatedAt)
	}
	if clone.CreatedAt != clone.UpdatedAt {
		t.Errorf("clone timestamps differ: %v vs %v", clone.CreatedAt, clone.UpdatedAt)
	}

	// The clone is persisted.
	if page.Total != len(seedDocuments())+1 {
		t.Errorf("total after duplicate = %d", page.Total)
	}
}

func TestDuplicateMissingSource(t *testing.T) {
	f := newTestFallback(t)
	if _, err := f.Duplicate(context.Background(), "doc-404"); !domain.IsNotFound(err) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestDeleteMissingID(t *testing.T) {
	f := newTestFallback(t)

	err := f.Delete(context.Background(), "doc-999")
	if !domain.IsNotFound(err) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	de, _ := domain.AsError(err)
	if de.Origin != domain.OriginRegistry {
		t.Errorf("origin = %q, want registry", de.Origin)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	f := newTestFallback(t)

	if err := f.Delete(context.Background(), "doc-006"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	out, err := f.Get(context.Background(), "doc-006")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != nil {
		t.Error("deleted document still readable")
	}
}

func TestGetAbsentIsNil(t *testing.T) {
	f := newTestFallback(t)
	out, err := f.Get(context.Background(), "doc-404")
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if out != nil {
		t.Errorf("out = %+v", out)
	}
}

func TestGetSynthesizesFullOutput(t *testing.T) {
	f := newTestFallback(t)
	out, err := f.Get(context.Background(), "doc-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out == nil {
		t.Fatal("out = nil")
	}
	if out.DocumentID != "doc-001" || len(out.Content.Sections) == 0 {
		t.Errorf("output = %+v", out)
	}
	// doc-001 is a low-confidence draft: the centralized predicate flags it.
	if !out.RequiresHumanReview {
		t.Error("low-confidence draft not flagged for review")
	}

	m := out.Metrics
	if m.CriticalCount+m.MajorCount+m.MinorCount != m.TotalCritiques {
		t.Errorf("severity counts %d+%d+%d != total %d", m.CriticalCount, m.MajorCount, m.MinorCount, m.TotalCritiques)
	}
	if m.AcceptedCount+m.RebuttedCount+m.AcknowledgedCount > m.TotalCritiques {
		t.Errorf("resolution counts exceed total critiques: %+v", m)
	}
}

func TestUpdateStatus(t *testing.T) {
	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	f := newTestFallback(t, WithClock(func() time.Time { return now }))

	doc, err := f.UpdateStatus(context.Background(), "doc-001", domain.StatusApproved, "cleared by review board")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if doc.Status != domain.StatusApproved {
		t.Errorf("status = %s", doc.Status)
	}
	if !doc.UpdatedAt.Equal(now) {
		t.Errorf("updatedAt = %v, want refreshed to %v", doc.UpdatedAt, now)
	}

	if _, err := f.UpdateStatus(context.Background(), "doc-999", domain.StatusRejected, ""); !domain.IsNotFound(err) {
		t.Errorf("missing id err = %v, want NOT_FOUND", err)
	}

	if _, err := f.UpdateStatus(context.Background(), "doc-001", domain.StatusDraft, ""); domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("draft transition err = %v, want VALIDATION_ERROR", err)
	}
}

func TestCorruptedStoreReseeds(t *testing.T) {
	f := newTestFallback(t)

	if err := f.kv.Set(StorageKey, "{not json"); err != nil {
		t.Fatalf("corrupt store: %v", err)
	}

	page, err := f.List(context.Background(), Query{Limit: 50})
	if err != nil {
		t.Fatalf("List over corrupted store: %v", err)
	}
	if page.Total != len(seedDocuments()) {
		t.Errorf("total = %d, want fresh seed", page.Total)
	}
}

func TestExportShapes(t *testing.T) {
	f := newTestFallback(t)

	t.Run("share returns url only", func(t *testing.T) {
		res, err := f.Export(context.Background(), "doc-002", "share")
		if err != nil {
			t.Fatalf("Export: %v", err)
		}
		if res.URL == "" || res.Payload != nil {
			t.Errorf("share export = %+v, want url only", res)
		}
	})

	t.Run("pdf returns payload only", func(t *testing.T) {
		res, err := f.Export(context.Background(), "doc-002", "pdf")
		if err != nil {
			t.Fatalf("Export: %v", err)
		}
		if len(res.Payload) == 0 || res.URL != "" {
			t.Errorf("pdf export = %+v, want payload only", res)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := f.Export(context.Background(), "doc-002", "vhs")
		if domain.CodeOf(err) != domain.CodeExport {
			t.Errorf("err = %v, want EXPORT_ERROR", err)
		}
	})
}

func TestShareExpiry(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	f := newTestFallback(t, WithClock(func() time.Time { return now }))

	link, err := f.Share(context.Background(), "doc-002", ShareOptions{ExpiresInHours: 24})
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if want := now.Add(24 * time.Hour); !link.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", link.ExpiresAt, want)
	}

	link, _ = f.Share(context.Background(), "doc-002", ShareOptions{})
	if want := now.Add(defaultShareExpiryHours * time.Hour); !link.ExpiresAt.Equal(want) {
		t.Errorf("default expiresAt = %v, want %v", link.ExpiresAt, want)
	}
}

func TestMutationsDoNotInterleave(t *testing.T) {
	f := newTestFallback(t)

	// Prime the store, then hammer it with concurrent duplicates. Every
	// clone must survive: a lost update would drop one.
	if _, err := f.List(context.Background(), Query{}); err != nil {
		t.Fatalf("prime: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Duplicate(context.Background(), "doc-002"); err != nil {
				t.Errorf("Duplicate: %v", err)
			}
		}()
	}
	wg.Wait()

	page, err := f.List(context.Background(), Query{Limit: 100})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := len(seedDocuments()) + workers; page.Total != want {
		t.Errorf("total = %d, want %d (lost update)", page.Total, want)
	}
}

package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/BNTiyan/ai-checker/internal/models"
)

func sampleReport(fingerprint string) *models.Report {
	return &models.Report{
		ReportID:   fingerprint,
		AnalyzedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		OverallVerdict: models.Verdict{
			RiskLevel: models.RiskLow,
		},
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("some normalized text")
	b := Fingerprint("some normalized text")
	c := Fingerprint("different text")

	if a != b {
		t.Error("identical text must produce identical fingerprints")
	}
	if a == c {
		t.Error("different text must produce different fingerprints")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	fp := Fingerprint("content")

	if _, err := s.Get(fp); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on miss, got %v", err)
	}

	if err := s.Put(fp, sampleReport(fp)); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	got, err := s.Get(fp)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if got.ReportID != fp {
		t.Errorf("expected report %s, got %s", fp, got.ReportID)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour).WithClock(func() time.Time { return current })
	fp := Fingerprint("content")

	if err := s.Put(fp, sampleReport(fp)); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	current = current.Add(59 * time.Minute)
	if _, err := s.Get(fp); err != nil {
		t.Fatalf("entry should still be live before the TTL, got %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := s.Get(fp); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL expiry, got %v", err)
	}
}

func TestMemoryStoreOverwriteRefreshesTTL(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour).WithClock(func() time.Time { return current })
	fp := Fingerprint("content")

	if err := s.Put(fp, sampleReport(fp)); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	current = current.Add(50 * time.Minute)
	if err := s.Put(fp, sampleReport(fp)); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	// 70 minutes after the first put, 20 after the second
	current = current.Add(20 * time.Minute)
	if _, err := s.Get(fp); err != nil {
		t.Errorf("rewrite should refresh the TTL, got %v", err)
	}
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	fp := Fingerprint("content")

	if err := s.Put(fp, sampleReport(fp)); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	first, _ := s.Get(fp)
	first.OverallVerdict.RiskLevel = models.RiskHigh

	second, _ := s.Get(fp)
	if second.OverallVerdict.RiskLevel != models.RiskLow {
		t.Error("mutating a returned report must not affect the stored copy")
	}
}

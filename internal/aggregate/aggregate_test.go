package aggregate

import (
	"reflect"
	"testing"

	"github.com/pageaudit/pageaudit/internal/signal"
)

func okBundle(id, domain, metric string, score float64) signal.Bundle {
	return signal.Bundle{
		DetectorID: id,
		Domain:     domain,
		Metric:     metric,
		Status:     signal.StatusOK,
		Payload:    &signal.Payload{Score: score, Issues: []string{"note"}},
	}
}

func failedBundle(id, domain, metric, reason string) signal.Bundle {
	return signal.Bundle{
		DetectorID: id,
		Domain:     domain,
		Metric:     metric,
		Status:     signal.StatusFailed,
		Err:        reason,
	}
}

// --- Aggregate ---

func TestAggregate_GroupsByDomainAndMetric(t *testing.T) {
	s := Aggregate([]signal.Bundle{
		okBundle("content.title", "content", "title", 80),
		okBundle("structure.links", "structure", "links", 60),
	})

	ls, ok := s.Leaf("content", "title")
	if !ok {
		t.Fatal("content/title leaf missing")
	}
	if ls.Score != 80 || ls.DetectorID != "content.title" {
		t.Errorf("leaf = %+v, want score 80 from content.title", ls)
	}
	if _, ok := s.Leaf("structure", "links"); !ok {
		t.Error("structure/links leaf missing")
	}
	if len(s.Gaps) != 0 {
		t.Errorf("gaps = %v, want none", s.Gaps)
	}
}

func TestAggregate_FailedBundleBecomesGap(t *testing.T) {
	s := Aggregate([]signal.Bundle{
		okBundle("a", "d", "a", 10),
		failedBundle("b", "d", "b", "timeout"),
	})

	if _, ok := s.Leaf("d", "b"); ok {
		t.Error("failed bundle must not produce a leaf")
	}
	if len(s.Gaps) != 1 {
		t.Fatalf("got %d gaps, want 1", len(s.Gaps))
	}
	if s.Gaps[0].DetectorID != "b" || s.Gaps[0].Reason != "timeout" {
		t.Errorf("gap = %+v, want detector b with reason timeout", s.Gaps[0])
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	s := Aggregate(nil)
	if s == nil {
		t.Fatal("Aggregate(nil) = nil, want empty Signals")
	}
	if len(s.Leaves) != 0 || len(s.Gaps) != 0 {
		t.Errorf("got %d leaves, %d gaps, want 0, 0", len(s.Leaves), len(s.Gaps))
	}
}

func TestAggregate_DeterministicAcrossInputOrder(t *testing.T) {
	forward := []signal.Bundle{
		okBundle("a", "d", "a", 1),
		failedBundle("b", "d", "b", "x"),
		failedBundle("c", "d", "c", "y"),
	}
	reversed := []signal.Bundle{forward[2], forward[1], forward[0]}

	if !reflect.DeepEqual(Aggregate(forward), Aggregate(reversed)) {
		t.Error("aggregation differs across bundle arrival order")
	}
}

func TestGapDetectorIDs(t *testing.T) {
	s := Aggregate([]signal.Bundle{
		failedBundle("z", "d", "z", "x"),
		failedBundle("a", "d", "a", "y"),
	})

	got := s.GapDetectorIDs()
	want := []string{"a", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GapDetectorIDs() = %v, want %v", got, want)
	}
}

package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pageaudit/pageaudit/internal/aggregate"
	"github.com/pageaudit/pageaudit/internal/cache"
	"github.com/pageaudit/pageaudit/internal/enhance"
	"github.com/pageaudit/pageaudit/internal/scoring"
	"github.com/pageaudit/pageaudit/internal/signal"
)

// ─── Test doubles ────────────────────────────────────────────────────────────

type stubDetector struct {
	id     string
	domain string
	metric string
	score  float64
	err    error
}

func (d stubDetector) ID() string     { return d.id }
func (d stubDetector) Domain() string { return d.domain }
func (d stubDetector) Metric() string { return d.metric }

func (d stubDetector) Detect(context.Context, *signal.Context) (signal.Payload, error) {
	if d.err != nil {
		return signal.Payload{}, d.err
	}
	return signal.Payload{Score: d.score}, nil
}

type panicScorer struct{}

func (panicScorer) Score(*aggregate.Signals) *scoring.Result {
	panic("scorer exploded")
}

// stubGate records its input and answers with fixed insights.
type stubGate struct {
	insights *enhance.Insights
	lastIn   enhance.Input
	called   bool
}

func (g *stubGate) Enhance(_ context.Context, in enhance.Input) *enhance.Insights {
	g.called = true
	g.lastIn = in
	return g.insights
}

func testPage(t *testing.T) *signal.Context {
	t.Helper()
	page, err := signal.NewContext("https://example.com/article",
		`<html><head><title>Test Article</title></head><body><p>hello</p></body></html>`)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return page
}

// testEngine scores a flat two-leaf framework with no compliance rules.
func testEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	fw := scoring.Framework{Root: scoring.Category{
		Name:   "page_quality",
		Weight: 1,
		Children: []scoring.Category{
			{Name: "alpha", Weight: 0.5, Metric: "alpha"},
			{Name: "beta", Weight: 0.5, Metric: "beta"},
		},
	}}
	eng, err := scoring.NewEngine(fw, nil, 70)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

func testDetectors(scoreA, scoreB float64) []signal.Detector {
	return []signal.Detector{
		stubDetector{id: "det-alpha", domain: "page_quality", metric: "alpha", score: scoreA},
		stubDetector{id: "det-beta", domain: "page_quality", metric: "beta", score: scoreB},
	}
}

func newPipeline(t *testing.T, dets []signal.Detector, engine scorer, gate enhancer) (*Pipeline, *Metrics) {
	t.Helper()
	m := NewMetrics()
	p := New(dets, engine, gate, cache.New[*Result](0), m, Config{
		DetectorTimeout: time.Second,
		CacheBucket:     0, // single bucket keeps cache behavior deterministic
	})
	return p, m
}

// ─── Orchestration ───────────────────────────────────────────────────────────

func TestRunAnalysis_CompletesWithScore(t *testing.T) {
	p, m := newPipeline(t, testDetectors(80, 60), testEngine(t), nil)

	res := p.RunAnalysis(context.Background(), testPage(t))

	if res.RunID == "" {
		t.Error("RunID empty, want a generated identifier")
	}
	if res.OverallScore != 70 {
		t.Errorf("OverallScore = %v, want 70", res.OverallScore)
	}
	if res.Grade != scoring.GradeB {
		t.Errorf("Grade = %q, want %q", res.Grade, scoring.GradeB)
	}
	if res.Metadata.State != StateDone {
		t.Errorf("State = %q, want %q", res.Metadata.State, StateDone)
	}
	if res.Metadata.Error != "" {
		t.Errorf("Error = %q, want empty", res.Metadata.Error)
	}
	if len(res.Gaps) != 0 {
		t.Errorf("Gaps = %v, want none", res.Gaps)
	}
	if res.Metadata.Stages.TotalMs < 0 {
		t.Errorf("TotalMs = %d, want >= 0", res.Metadata.Stages.TotalMs)
	}

	snap := m.Snapshot()
	if snap.Runs != 1 || snap.Failures != 0 || snap.CacheHits != 0 {
		t.Errorf("Snapshot = %+v, want 1 clean run", snap)
	}
}

func TestRunAnalysis_AllDetectorsFailIsStillDone(t *testing.T) {
	dets := []signal.Detector{
		stubDetector{id: "det-alpha", domain: "page_quality", metric: "alpha", err: errors.New("boom")},
		stubDetector{id: "det-beta", domain: "page_quality", metric: "beta", err: errors.New("boom")},
	}
	p, m := newPipeline(t, dets, testEngine(t), nil)

	res := p.RunAnalysis(context.Background(), testPage(t))

	// A run with no usable signals is degraded, not failed.
	if res.Metadata.State != StateDone {
		t.Errorf("State = %q, want %q", res.Metadata.State, StateDone)
	}
	if res.OverallScore != 0 || res.Grade != scoring.GradeF {
		t.Errorf("score/grade = %v/%q, want 0/F when every signal is missing", res.OverallScore, res.Grade)
	}
	if len(res.Gaps) != 2 {
		t.Fatalf("len(Gaps) = %d, want 2", len(res.Gaps))
	}
	if res.ScoreTree == nil || res.ScoreTree.Score != nil {
		t.Error("root score should be nil when no leaf produced a value")
	}
	if snap := m.Snapshot(); snap.Failures != 0 {
		t.Errorf("Failures = %d, want 0 for a degraded-but-complete run", snap.Failures)
	}
}

func TestRunAnalysis_SecondRunHitsCache(t *testing.T) {
	p, m := newPipeline(t, testDetectors(80, 60), testEngine(t), nil)
	page := testPage(t)

	first := p.RunAnalysis(context.Background(), page)
	second := p.RunAnalysis(context.Background(), page)

	if first.Metadata.CacheHit {
		t.Error("first run flagged as cache hit")
	}
	if !second.Metadata.CacheHit {
		t.Fatal("second run not flagged as cache hit")
	}
	if second.RunID != first.RunID {
		t.Errorf("cached RunID = %q, want %q", second.RunID, first.RunID)
	}
	if second.OverallScore != first.OverallScore || second.Grade != first.Grade {
		t.Error("cached result diverges from original score or grade")
	}
	if !reflect.DeepEqual(second.ScoreTree, first.ScoreTree) {
		t.Error("cached ScoreTree diverges from original")
	}
	if !reflect.DeepEqual(second.Recommendations, first.Recommendations) {
		t.Error("cached Recommendations diverge from original")
	}

	snap := m.Snapshot()
	if snap.Runs != 2 || snap.CacheHits != 1 {
		t.Errorf("Snapshot = %+v, want 2 runs with 1 cache hit", snap)
	}
}

func TestRunAnalysis_ScorerPanicDegradesToFailed(t *testing.T) {
	p, m := newPipeline(t, testDetectors(80, 60), panicScorer{}, nil)

	res := p.RunAnalysis(context.Background(), testPage(t))

	if res.Metadata.State != StateFailed {
		t.Fatalf("State = %q, want %q", res.Metadata.State, StateFailed)
	}
	if res.OverallScore != 0 || res.Grade != scoring.GradeF {
		t.Errorf("score/grade = %v/%q, want 0/F", res.OverallScore, res.Grade)
	}
	if !strings.Contains(res.Metadata.Error, "scoring") {
		t.Errorf("Error = %q, want the aborting state named", res.Metadata.Error)
	}
	if snap := m.Snapshot(); snap.Failures != 1 {
		t.Errorf("Failures = %d, want 1", snap.Failures)
	}

	// Failed results must not be served from cache on the next attempt.
	again := p.RunAnalysis(context.Background(), testPage(t))
	if again.Metadata.CacheHit {
		t.Error("failed result was cached and replayed")
	}
}

func TestRunAnalysis_EnhancementMergedWhenAccepted(t *testing.T) {
	gate := &stubGate{insights: &enhance.Insights{
		Summary:    "good article",
		Confidence: 0.9,
		Recommendations: []scoring.Recommendation{
			{Priority: scoring.PriorityLow, Category: "content", Title: "Add internal links"},
		},
	}}
	p, _ := newPipeline(t, testDetectors(80, 60), testEngine(t), gate)

	res := p.RunAnalysis(context.Background(), testPage(t))

	if !gate.called {
		t.Fatal("gate never invoked")
	}
	if gate.lastIn.URL != "https://example.com/article" || gate.lastIn.OverallScore != 70 {
		t.Errorf("gate input = %+v, want the scored run summary", gate.lastIn)
	}
	if res.Enhancement == nil || res.Enhancement.Summary != "good article" {
		t.Errorf("Enhancement = %+v, want accepted insights", res.Enhancement)
	}
	found := false
	for _, r := range res.Recommendations {
		if r.Title == "Add internal links" {
			found = true
		}
	}
	if !found {
		t.Error("accepted insight recommendation missing from merged recommendations")
	}
}

func TestRunAnalysis_RejectedEnhancementLeavesResultIntact(t *testing.T) {
	gate := &stubGate{insights: nil}
	p, _ := newPipeline(t, testDetectors(80, 60), testEngine(t), gate)

	res := p.RunAnalysis(context.Background(), testPage(t))

	if !gate.called {
		t.Fatal("gate never invoked")
	}
	if res.Enhancement != nil {
		t.Errorf("Enhancement = %+v, want nil when the gate rejects", res.Enhancement)
	}
	if res.Metadata.State != StateDone || res.OverallScore != 70 {
		t.Errorf("rejection degraded the run: state=%q score=%v", res.Metadata.State, res.OverallScore)
	}
}

func TestRunAnalysis_NilGateSkipsEnhancementStage(t *testing.T) {
	p, _ := newPipeline(t, testDetectors(80, 60), testEngine(t), nil)

	res := p.RunAnalysis(context.Background(), testPage(t))

	if res.Enhancement != nil {
		t.Errorf("Enhancement = %+v, want nil without a gate", res.Enhancement)
	}
	if res.Metadata.Stages.EnhanceMs != 0 {
		t.Errorf("EnhanceMs = %d, want 0 for a skipped stage", res.Metadata.Stages.EnhanceMs)
	}
}

// ─── State machine ───────────────────────────────────────────────────────────

func TestTransition_LegalPath(t *testing.T) {
	path := []State{StateDetecting, StateAggregating, StateScoring, StateEnhancing, StateCompiling, StateDone}

	s := StateIdle
	for _, next := range path {
		var err error
		if s, err = Transition(s, next); err != nil {
			t.Fatalf("Transition(_, %s) error = %v", next, err)
		}
	}
	if !Terminal(s) {
		t.Errorf("Terminal(%s) = false, want true", s)
	}
}

func TestTransition_SkippingEnhancementIsLegal(t *testing.T) {
	if _, err := Transition(StateScoring, StateCompiling); err != nil {
		t.Errorf("Transition(scoring, compiling) error = %v", err)
	}
}

func TestTransition_Illegal(t *testing.T) {
	cases := []struct{ from, to State }{
		{StateIdle, StateScoring},
		{StateDetecting, StateCompiling},
		{StateDone, StateDetecting},
		{StateFailed, StateIdle},
		{StateEnhancing, StateDetecting},
	}

	for _, c := range cases {
		got, err := Transition(c.from, c.to)
		if err == nil {
			t.Errorf("Transition(%s, %s) accepted, want error", c.from, c.to)
		}
		if got != c.from {
			t.Errorf("Transition(%s, %s) moved to %s on error", c.from, c.to, got)
		}
	}
}

func TestTransition_FailedReachableFromAnyActiveState(t *testing.T) {
	for _, from := range []State{StateIdle, StateDetecting, StateAggregating, StateScoring, StateEnhancing, StateCompiling} {
		if _, err := Transition(from, StateFailed); err != nil {
			t.Errorf("Transition(%s, failed) error = %v", from, err)
		}
	}
}

// ─── Metrics ─────────────────────────────────────────────────────────────────

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.Record(100*time.Millisecond, false, false)
	m.Record(300*time.Millisecond, true, false)
	m.Record(200*time.Millisecond, false, true)

	snap := m.Snapshot()
	if snap.Runs != 3 || snap.Failures != 1 || snap.CacheHits != 1 {
		t.Errorf("Snapshot counters = %+v, want 3/1/1", snap)
	}
	if snap.AvgDurationMs != 200 {
		t.Errorf("AvgDurationMs = %d, want 200", snap.AvgDurationMs)
	}
	if want := 2.0 / 3.0; snap.SuccessRate != want {
		t.Errorf("SuccessRate = %v, want %v", snap.SuccessRate, want)
	}
}

func TestMetrics_EmptySnapshot(t *testing.T) {
	snap := NewMetrics().Snapshot()
	if snap.Runs != 0 || snap.AvgDurationMs != 0 || snap.SuccessRate != 0 {
		t.Errorf("empty Snapshot = %+v, want all zeros", snap)
	}
}

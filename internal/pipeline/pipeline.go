// Package pipeline orchestrates the four analysis stages — detection,
// aggregation, scoring, and optional enhancement — into one immutable
// PipelineResult.
//
// The orchestrator never surfaces an error to the caller. Detection and
// aggregation are total by construction; an unexpected panic anywhere
// else degrades the run to a minimal Failed result with score 0 and an
// explicit error marker. "No usable result" is a valid, degraded result,
// not an absence of return.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pageaudit/pageaudit/internal/aggregate"
	"github.com/pageaudit/pageaudit/internal/cache"
	"github.com/pageaudit/pageaudit/internal/detect"
	"github.com/pageaudit/pageaudit/internal/enhance"
	"github.com/pageaudit/pageaudit/internal/fingerprint"
	"github.com/pageaudit/pageaudit/internal/scoring"
	"github.com/pageaudit/pageaudit/internal/signal"
)

// StageTimings records per-stage wall-clock durations in milliseconds.
type StageTimings struct {
	DetectMs    int64 `json:"detect_ms"`
	AggregateMs int64 `json:"aggregate_ms"`
	ScoreMs     int64 `json:"score_ms"`
	EnhanceMs   int64 `json:"enhance_ms"`
	TotalMs     int64 `json:"total_ms"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	URL        string       `json:"url"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Stages     StageTimings `json:"stages"`
	CacheHit   bool         `json:"cache_hit"`
	State      State        `json:"state"`
	Error      string       `json:"error,omitempty"`
}

// Result is the top-level record of one analysis run. It is never
// mutated after compilation; cache hits return it read-only (only the
// returned copy's CacheHit flag differs).
type Result struct {
	RunID           string                   `json:"run_id"`
	OverallScore    float64                  `json:"overall_score"`
	Grade           scoring.Grade            `json:"grade"`
	ScoreTree       *scoring.Node            `json:"score_tree,omitempty"`
	Findings        []scoring.Finding        `json:"findings,omitempty"`
	Recommendations []scoring.Recommendation `json:"recommendations,omitempty"`
	Enhancement     *enhance.Insights        `json:"enhancement,omitempty"`
	Gaps            []aggregate.Gap          `json:"gaps,omitempty"`
	Metadata        Metadata                 `json:"metadata"`
}

// scorer and enhancer are the orchestrator's views of its collaborators,
// kept narrow so tests can inject failing stand-ins.
type scorer interface {
	Score(*aggregate.Signals) *scoring.Result
}

type enhancer interface {
	Enhance(ctx context.Context, in enhance.Input) *enhance.Insights
}

// Config bounds a pipeline instance.
type Config struct {
	DetectorTimeout time.Duration
	PipelineTimeout time.Duration
	MaxConcurrent   int
	CacheBucket     time.Duration
}

// Pipeline sequences the analysis stages over a fixed detector registry.
type Pipeline struct {
	detectors []signal.Detector
	engine    scorer
	gate      enhancer // nil disables the enhancement stage
	cache     *cache.Cache[*Result]
	metrics   *Metrics
	cfg       Config
}

// New wires a pipeline. gate may be nil; metrics and cache must not be.
func New(detectors []signal.Detector, engine scorer, gate enhancer, c *cache.Cache[*Result], m *Metrics, cfg Config) *Pipeline {
	return &Pipeline{
		detectors: detectors,
		engine:    engine,
		gate:      gate,
		cache:     c,
		metrics:   m,
		cfg:       cfg,
	}
}

// RunAnalysis runs the full pipeline for one page. It always returns a
// Result; failure is represented as data, never as an error or panic.
func (p *Pipeline) RunAnalysis(ctx context.Context, page *signal.Context) (res *Result) {
	started := timeNow()
	runID := uuid.NewString()
	state := StateIdle

	defer func() {
		if r := recover(); r != nil {
			res = p.failedResult(runID, page.URL, started,
				fmt.Sprintf("run aborted in state %s: %v", state, r))
			p.metrics.Record(timeNow().Sub(started), true, false)
		}
	}()

	if p.cfg.PipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PipelineTimeout)
		defer cancel()
	}

	fp := fingerprint.New(page, p.cfg.CacheBucket)
	if cached, ok := p.cache.Get(fp); ok {
		hit := *cached // shallow copy; shared substructures stay immutable
		hit.Metadata.CacheHit = true
		p.metrics.Record(timeNow().Sub(started), false, true)
		return &hit
	}

	var timings StageTimings

	state = mustTransition(state, StateDetecting)
	t := timeNow()
	bundles := detect.Run(ctx, page, p.detectors, detect.Config{
		DetectorTimeout: p.cfg.DetectorTimeout,
		MaxConcurrent:   p.cfg.MaxConcurrent,
	})
	timings.DetectMs = timeNow().Sub(t).Milliseconds()

	state = mustTransition(state, StateAggregating)
	t = timeNow()
	sig := aggregate.Aggregate(bundles)
	timings.AggregateMs = timeNow().Sub(t).Milliseconds()

	state = mustTransition(state, StateScoring)
	t = timeNow()
	scored := p.engine.Score(sig)
	timings.ScoreMs = timeNow().Sub(t).Milliseconds()

	var insights *enhance.Insights
	if p.gate != nil {
		state = mustTransition(state, StateEnhancing)
		t = timeNow()
		insights = p.gate.Enhance(ctx, enhanceInput(page, scored, sig))
		timings.EnhanceMs = timeNow().Sub(t).Milliseconds()
	}

	state = mustTransition(state, StateCompiling)

	recs := scored.Recommendations
	if insights != nil {
		recs = scoring.MergeRecommendations(scored.Recommendations, insights.Recommendations)
	}

	state = mustTransition(state, StateDone)
	finished := timeNow()
	timings.TotalMs = finished.Sub(started).Milliseconds()

	res = &Result{
		RunID:           runID,
		OverallScore:    scored.OverallScore,
		Grade:           scored.Grade,
		ScoreTree:       scored.Tree,
		Findings:        scored.Findings,
		Recommendations: recs,
		Enhancement:     insights,
		Gaps:            sig.Gaps,
		Metadata: Metadata{
			URL:        page.URL,
			StartedAt:  started,
			FinishedAt: finished,
			Stages:     timings,
			State:      state,
		},
	}

	p.cache.Put(fp, res)
	p.metrics.Record(finished.Sub(started), false, false)
	return res
}

// failedResult builds the minimal degraded report for aborted runs.
func (p *Pipeline) failedResult(runID, url string, started time.Time, msg string) *Result {
	finished := timeNow()
	return &Result{
		RunID:        runID,
		OverallScore: 0,
		Grade:        scoring.GradeFor(0),
		Metadata: Metadata{
			URL:        url,
			StartedAt:  started,
			FinishedAt: finished,
			Stages:     StageTimings{TotalMs: finished.Sub(started).Milliseconds()},
			State:      StateFailed,
			Error:      msg,
		},
	}
}

// enhanceInput summarizes the scored run for the enrichment provider.
func enhanceInput(page *signal.Context, scored *scoring.Result, sig *aggregate.Signals) enhance.Input {
	in := enhance.Input{
		URL:          page.URL,
		OverallScore: scored.OverallScore,
		Grade:        string(scored.Grade),
		Gaps:         sig.GapDetectorIDs(),
	}

	if scored.Tree != nil {
		in.DomainScores = make(map[string]float64, len(scored.Tree.Children))
		for _, domain := range scored.Tree.Children {
			if domain.Score != nil {
				in.DomainScores[domain.Name] = *domain.Score
			}
			for _, leaf := range domain.Children {
				for _, issue := range leaf.Issues {
					if len(in.TopIssues) < 8 {
						in.TopIssues = append(in.TopIssues, issue)
					}
				}
			}
		}
	}

	for _, f := range scored.Findings {
		if !f.Passed {
			in.FailedRules = append(in.FailedRules, f.RuleID)
		}
	}
	return in
}

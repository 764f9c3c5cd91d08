// Package signal defines the contract between individual page detectors
// and the analysis pipeline.
//
// Every detector produces exactly one Bundle per run: either an ok bundle
// carrying a Payload, or a failed bundle carrying an error message. The
// two are mutually exclusive. Bundles are immutable once created and are
// never persisted beyond the pipeline's result cache.
package signal

import (
	"context"
	"time"
)

// Status marks whether a detector completed or failed.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Payload is the normalized structured data one detector reports for one
// leaf metric. Score is on the 0-100 scale consumed by the scoring engine.
type Payload struct {
	Score   float64        `json:"score"`
	Issues  []string       `json:"issues,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Bundle is one detector's success/failure-tagged output for one run.
// Exactly one of Payload/Err is set, matching Status.
type Bundle struct {
	DetectorID string   `json:"detector_id"`
	Domain     string   `json:"domain"`
	Metric     string   `json:"metric"`
	Status     Status   `json:"status"`
	Payload    *Payload `json:"payload,omitempty"`
	Err        string   `json:"error,omitempty"`
	TimingMs   int64    `json:"timing_ms"`
}

// Detector is the capability every page detector must implement.
// Detect must not mutate the Context and must complete or fail within
// the deadline carried by ctx; the detection stage enforces both a
// per-detector timeout and panic isolation around each call.
type Detector interface {
	// ID returns the detector's unique identifier (e.g. "content.title").
	ID() string

	// Domain names the scoring domain this detector feeds (e.g. "content").
	Domain() string

	// Metric names the leaf metric within the domain (e.g. "title").
	Metric() string

	// Detect inspects the page and returns a payload for this metric.
	Detect(ctx context.Context, page *Context) (Payload, error)
}

// OK builds a success bundle for the given detector.
func OK(d Detector, p Payload, elapsed time.Duration) Bundle {
	return Bundle{
		DetectorID: d.ID(),
		Domain:     d.Domain(),
		Metric:     d.Metric(),
		Status:     StatusOK,
		Payload:    &p,
		TimingMs:   elapsed.Milliseconds(),
	}
}

// Failed builds a failure bundle for the given detector.
func Failed(d Detector, err error, elapsed time.Duration) Bundle {
	return Bundle{
		DetectorID: d.ID(),
		Domain:     d.Domain(),
		Metric:     d.Metric(),
		Status:     StatusFailed,
		Err:        err.Error(),
		TimingMs:   elapsed.Milliseconds(),
	}
}

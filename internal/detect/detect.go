// Package detect runs all registered detectors concurrently against one
// shared analysis context.
//
// Each detector invocation is individually wrapped: an error, a panic, or
// a per-detector timeout produces a failed bundle without aborting or
// delaying sibling detectors. The stage returns only once every detector
// has settled, and the output is ordered by detector ID so the result is
// identical regardless of completion order.
package detect

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pageaudit/pageaudit/internal/signal"
)

// Config bounds the detection stage.
type Config struct {
	// DetectorTimeout is the per-detector deadline. Zero means no
	// per-detector deadline beyond the pipeline's own context.
	DetectorTimeout time.Duration

	// MaxConcurrent caps in-flight detectors. Zero or negative means
	// all detectors run at once.
	MaxConcurrent int
}

// Run executes all detectors against page and returns one bundle per
// detector. It never returns an error: failures are recorded in the
// corresponding bundle.
func Run(ctx context.Context, page *signal.Context, detectors []signal.Detector, cfg Config) []signal.Bundle {
	bundles := make([]signal.Bundle, len(detectors))

	var g errgroup.Group
	if cfg.MaxConcurrent > 0 {
		g.SetLimit(cfg.MaxConcurrent)
	}

	for i, d := range detectors {
		g.Go(func() error {
			bundles[i] = runOne(ctx, page, d, cfg.DetectorTimeout)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	// Deterministic output order, independent of scheduling.
	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].DetectorID < bundles[j].DetectorID
	})

	return bundles
}

type outcome struct {
	payload signal.Payload
	err     error
}

// runOne invokes a single detector with panic isolation and an optional
// timeout. A detector that ignores its context is abandoned at the
// deadline and reported as failed; it cannot block the stage.
func runOne(ctx context.Context, page *signal.Context, d signal.Detector, timeout time.Duration) signal.Bundle {
	start := time.Now()

	dctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("detector %s panicked: %v", d.ID(), r)}
			}
		}()
		p, err := d.Detect(dctx, page)
		done <- outcome{payload: p, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return signal.Failed(d, o.err, time.Since(start))
		}
		return signal.OK(d, o.payload, time.Since(start))
	case <-dctx.Done():
		return signal.Failed(d, fmt.Errorf("detector %s: %w", d.ID(), dctx.Err()), time.Since(start))
	}
}

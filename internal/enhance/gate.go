// Package enhance is the optional enrichment stage: it sends scored
// results to an external insights collaborator and incorporates the
// response only when its self-reported confidence clears the configured
// threshold.
//
// Everything here degrades gracefully. A provider error, panic, timeout,
// or low-confidence answer yields nil — the rest of the pipeline is
// already complete and unaffected.
package enhance

import (
	"context"
	"log"
	"time"

	"github.com/pageaudit/pageaudit/internal/scoring"
)

// Input is the aggregated summary handed to the provider.
type Input struct {
	URL          string              `json:"url,omitempty"`
	OverallScore float64             `json:"overall_score"`
	Grade        string              `json:"grade"`
	DomainScores map[string]float64  `json:"domain_scores,omitempty"`
	Gaps         []string            `json:"gaps,omitempty"`
	FailedRules  []string            `json:"failed_rules,omitempty"`
	TopIssues    []string            `json:"top_issues,omitempty"`
}

// Insights is an accepted enrichment result.
type Insights struct {
	Summary         string                   `json:"summary"`
	Recommendations []scoring.Recommendation `json:"recommendations,omitempty"`
	Confidence      float64                  `json:"confidence"`
}

// Provider is the external enrichment capability.
type Provider interface {
	ProduceInsights(ctx context.Context, in Input) (*Insights, error)
}

// Gate wraps a provider with a timeout and a confidence threshold.
type Gate struct {
	provider  Provider
	threshold float64
	timeout   time.Duration
}

// NewGate builds a confidence gate around provider.
func NewGate(provider Provider, threshold float64, timeout time.Duration) *Gate {
	return &Gate{provider: provider, threshold: threshold, timeout: timeout}
}

// Enhance calls the provider and returns its insights iff confidence
// meets the threshold. Any failure mode returns nil.
func (g *Gate) Enhance(ctx context.Context, in Input) (out *Insights) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("enhance: provider panicked, skipping enrichment: %v", r)
			out = nil
		}
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	ins, err := g.provider.ProduceInsights(ctx, in)
	if err != nil {
		log.Printf("enhance: provider error, skipping enrichment: %v", err)
		return nil
	}
	if ins == nil || ins.Confidence < g.threshold {
		return nil
	}
	return ins
}

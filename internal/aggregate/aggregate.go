// Package aggregate reduces raw signal bundles into per-domain leaf
// signals consumable by the scoring engine.
//
// Aggregation is total: it never errors, and it accepts any subset of
// successful bundles including the empty set. A failed bundle contributes
// no data but is recorded as a gap, so the scoring engine treats the
// corresponding leaf as "no signal" rather than zero — infrastructure
// failure is not low quality.
package aggregate

import (
	"sort"

	"github.com/pageaudit/pageaudit/internal/signal"
)

// LeafSignal is the aggregated value for one (domain, metric) leaf.
type LeafSignal struct {
	DetectorID string         `json:"detector_id"`
	Score      float64        `json:"score"`
	Issues     []string       `json:"issues,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Gap records a leaf for which no detector successfully supplied data.
type Gap struct {
	DetectorID string `json:"detector_id"`
	Domain     string `json:"domain"`
	Metric     string `json:"metric"`
	Reason     string `json:"reason"`
}

// Signals is the aggregation stage output: leaf signals keyed by
// domain/metric plus the list of gaps, sorted by detector ID.
type Signals struct {
	Leaves map[string]LeafSignal `json:"leaves"`
	Gaps   []Gap                 `json:"gaps,omitempty"`
}

// Key builds the leaf map key for a (domain, metric) pair.
func Key(domain, metric string) string {
	return domain + "/" + metric
}

// Aggregate groups bundles by (domain, metric). Bundles arrive already
// ordered by detector ID from the detection stage, but Aggregate does not
// rely on that: output is keyed, and gaps are re-sorted here.
func Aggregate(bundles []signal.Bundle) *Signals {
	s := &Signals{Leaves: make(map[string]LeafSignal, len(bundles))}

	for _, b := range bundles {
		if b.Status != signal.StatusOK || b.Payload == nil {
			s.Gaps = append(s.Gaps, Gap{
				DetectorID: b.DetectorID,
				Domain:     b.Domain,
				Metric:     b.Metric,
				Reason:     b.Err,
			})
			continue
		}
		s.Leaves[Key(b.Domain, b.Metric)] = LeafSignal{
			DetectorID: b.DetectorID,
			Score:      b.Payload.Score,
			Issues:     b.Payload.Issues,
			Details:    b.Payload.Details,
		}
	}

	sort.Slice(s.Gaps, func(i, j int) bool {
		return s.Gaps[i].DetectorID < s.Gaps[j].DetectorID
	})

	return s
}

// Leaf looks up the aggregated signal for a (domain, metric) pair.
func (s *Signals) Leaf(domain, metric string) (LeafSignal, bool) {
	ls, ok := s.Leaves[Key(domain, metric)]
	return ls, ok
}

// GapDetectorIDs returns the detector IDs of all recorded gaps, sorted.
func (s *Signals) GapDetectorIDs() []string {
	ids := make([]string, 0, len(s.Gaps))
	for _, g := range s.Gaps {
		ids = append(ids, g.DetectorID)
	}
	return ids
}

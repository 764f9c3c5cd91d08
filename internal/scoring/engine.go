package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pageaudit/pageaudit/internal/aggregate"
)

// Node is one node of the scored category tree built per run. Score is
// nil when no applicable signal was present anywhere below the node.
type Node struct {
	Name            string           `json:"name"`
	Weight          float64          `json:"weight"`
	Score           *float64         `json:"score"`
	Issues          []string         `json:"issues,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Children        []*Node          `json:"children,omitempty"`
}

// Priority orders recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Recommendation is one prioritized, actionable improvement.
type Recommendation struct {
	Priority        Priority `json:"priority"`
	Category        string   `json:"category"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	EstimatedEffort string   `json:"estimated_effort,omitempty"`
}

// Result is the scoring engine output for one run.
type Result struct {
	OverallScore    float64          `json:"overall_score"`
	Grade           Grade            `json:"grade"`
	Tree            *Node            `json:"score_tree"`
	Findings        []Finding        `json:"findings"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Engine scores aggregated signals against a static framework and rule
// catalog. Construct once at startup; Score itself cannot fail.
type Engine struct {
	framework  Framework
	rules      []Rule
	acceptable float64
}

// NewEngine validates the framework and builds an engine. An invalid
// framework is a startup configuration error.
func NewEngine(f Framework, rules []Rule, acceptableScore float64) (*Engine, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if acceptableScore < 0 || acceptableScore > 100 {
		return nil, fmt.Errorf("scoring: acceptable score %v outside [0,100]", acceptableScore)
	}
	return &Engine{framework: f, rules: rules, acceptable: acceptableScore}, nil
}

// Score builds the scored tree, evaluates the rule catalog, and derives
// recommendations. Compliance is deliberately independent of the numeric
// score: a failed critical rule never moves the number, only the findings
// and recommendation lists.
func (e *Engine) Score(sig *aggregate.Signals) *Result {
	tree := buildNode(e.framework.Root, "", sig)

	overall := 0.0 // hard floor when no signal reached the root
	if tree.Score != nil {
		overall = *tree.Score
	}

	findings := e.evaluateRules(sig)
	recs := MergeRecommendations(e.leafRecommendations(tree), e.findingRecommendations(findings))

	return &Result{
		OverallScore:    overall,
		Grade:           GradeFor(overall),
		Tree:            tree,
		Findings:        findings,
		Recommendations: recs,
	}
}

// buildNode populates one framework node from the aggregated signals.
// Leaves bind to (parent category, metric); interior scores are the
// weight-normalized average over children with non-null scores, so an
// absent child is excluded rather than counted as zero.
func buildNode(c Category, parent string, sig *aggregate.Signals) *Node {
	n := &Node{Name: c.Name, Weight: c.Weight}

	if len(c.Children) == 0 {
		if ls, ok := sig.Leaf(parent, c.Metric); ok {
			score := round1(clamp(ls.Score))
			n.Score = &score
			n.Issues = append([]string(nil), ls.Issues...)
		}
		return n
	}

	var weightedSum, weightSum float64
	for _, child := range c.Children {
		cn := buildNode(child, c.Name, sig)
		n.Children = append(n.Children, cn)
		if cn.Score != nil {
			weightedSum += child.Weight * *cn.Score
			weightSum += child.Weight
		}
	}
	if weightSum > 0 {
		score := round1(clamp(weightedSum / weightSum))
		n.Score = &score
	}
	return n
}

// evaluateRules produces exactly one finding per catalog rule.
func (e *Engine) evaluateRules(sig *aggregate.Signals) []Finding {
	findings := make([]Finding, 0, len(e.rules))
	for _, r := range e.rules {
		findings = append(findings, Finding{
			RuleID:        r.ID,
			Tier:          r.Tier,
			Passed:        r.Validate(sig),
			Impact:        r.Impact,
			FixSuggestion: r.FixSuggestion,
		})
	}
	return findings
}

// leafRecommendations derives recommendations from scored leaves below
// the acceptable threshold. Priority comes from the leaf's absolute
// weight times its score gap; gap leaves (null score) generate nothing,
// since missing data is a pipeline condition, not a page defect.
func (e *Engine) leafRecommendations(tree *Node) []Recommendation {
	var recs []Recommendation
	for _, domain := range tree.Children {
		for _, leaf := range domain.Children {
			if leaf.Score == nil || *leaf.Score >= e.acceptable {
				continue
			}
			gap := e.acceptable - *leaf.Score
			impact := tree.Weight * domain.Weight * leaf.Weight * gap

			desc := fmt.Sprintf("%s scored %.1f, below the acceptable %.0f for %s.",
				leaf.Name, *leaf.Score, e.acceptable, domain.Name)
			if len(leaf.Issues) > 0 {
				desc += " " + strings.Join(leaf.Issues, " ")
			}

			rec := Recommendation{
				Priority:        priorityForImpact(impact),
				Category:        domain.Name,
				Title:           "Improve " + leaf.Name,
				Description:     desc,
				EstimatedEffort: effortForGap(gap),
			}
			recs = append(recs, rec)
			leaf.Recommendations = append(leaf.Recommendations, rec)
		}
	}
	return recs
}

// findingRecommendations surfaces failed critical and important findings.
// Critical failures always rank highest-priority regardless of the
// numeric grade.
func (e *Engine) findingRecommendations(findings []Finding) []Recommendation {
	byID := make(map[string]Rule, len(e.rules))
	for _, r := range e.rules {
		byID[r.ID] = r
	}

	var recs []Recommendation
	for _, f := range findings {
		if f.Passed || (f.Tier != TierCritical && f.Tier != TierImportant) {
			continue
		}
		r := byID[f.RuleID]
		priority := PriorityMedium
		if f.Tier == TierCritical {
			priority = PriorityHigh
		}
		recs = append(recs, Recommendation{
			Priority:    priority,
			Category:    r.Category,
			Title:       r.Title,
			Description: f.Impact + " " + f.FixSuggestion,
		})
	}
	return recs
}

// MergeRecommendations combines recommendation lists, deduplicating by
// (category, title), keeping the highest-priority occurrence, and sorting
// high to low with a stable category/title tiebreak.
func MergeRecommendations(lists ...[]Recommendation) []Recommendation {
	var all []Recommendation
	for _, l := range lists {
		all = append(all, l...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Priority.rank() != all[j].Priority.rank() {
			return all[i].Priority.rank() > all[j].Priority.rank()
		}
		if all[i].Category != all[j].Category {
			return all[i].Category < all[j].Category
		}
		return all[i].Title < all[j].Title
	})

	seen := make(map[string]bool, len(all))
	out := all[:0]
	for _, r := range all {
		key := r.Category + "\x00" + r.Title
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func priorityForImpact(impact float64) Priority {
	switch {
	case impact >= 5:
		return PriorityHigh
	case impact >= 2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func effortForGap(gap float64) string {
	if gap > 50 {
		return "medium"
	}
	return "low"
}

func clamp(s float64) float64 {
	return math.Max(0, math.Min(100, s))
}

func round1(s float64) float64 {
	return math.Round(s*10) / 10
}

// Package scoring computes the weighted hierarchical quality score,
// validates best-practices compliance, maps score to grade, and derives
// prioritized recommendations.
//
// The scoring framework is a fixed tree of categories and weights defined
// once at startup. A malformed framework (children's weights not summing
// to 1.0) is a configuration error surfaced by Validate, never a runtime
// failure: Score itself cannot fail.
package scoring

import (
	"fmt"
	"math"
)

// weightTolerance is the floating tolerance for the children-sum-to-one
// invariant.
const weightTolerance = 1e-9

// Category is one node of the static scoring framework. Leaves (no
// children) bind to a detector metric within the enclosing domain.
type Category struct {
	Name     string
	Weight   float64
	Metric   string // leaf binding; empty on interior nodes
	Children []Category
}

// Framework is the static scoring tree. The root's weight is fixed at 1;
// each interior node's children carry weights summing to 1.
type Framework struct {
	Root Category
}

// DefaultFramework returns the standard page-quality scoring tree.
// Domain weights reflect the relative importance of what the page says
// (content) over how it is served (technical) and shaped (structure).
func DefaultFramework() Framework {
	return Framework{Root: Category{
		Name:   "page_quality",
		Weight: 1,
		Children: []Category{
			{
				Name:   "technical",
				Weight: 0.3,
				Children: []Category{
					{Name: "viewport", Weight: 0.3, Metric: "viewport"},
					{Name: "canonical", Weight: 0.2, Metric: "canonical"},
					{Name: "language", Weight: 0.2, Metric: "language"},
					{Name: "page_weight", Weight: 0.3, Metric: "page_weight"},
				},
			},
			{
				Name:   "content",
				Weight: 0.4,
				Children: []Category{
					{Name: "title", Weight: 0.25, Metric: "title"},
					{Name: "meta_description", Weight: 0.25, Metric: "meta_description"},
					{Name: "content_length", Weight: 0.3, Metric: "content_length"},
					{Name: "social_meta", Weight: 0.2, Metric: "social_meta"},
				},
			},
			{
				Name:   "structure",
				Weight: 0.3,
				Children: []Category{
					{Name: "headings", Weight: 0.4, Metric: "headings"},
					{Name: "image_alt", Weight: 0.3, Metric: "image_alt"},
					{Name: "links", Weight: 0.3, Metric: "links"},
				},
			},
		},
	}}
}

// Validate checks the framework's structural invariants: positive weights
// no greater than 1, children summing to 1.0 within tolerance, leaves
// bound to a metric, and unique category names per level.
func (f Framework) Validate() error {
	return validateNode(f.Root, "")
}

func validateNode(c Category, path string) error {
	if path == "" {
		path = c.Name
	} else {
		path = path + "." + c.Name
	}

	if c.Weight <= 0 || c.Weight > 1 {
		return fmt.Errorf("scoring: category %s has weight %v, want 0 < w <= 1", path, c.Weight)
	}

	if len(c.Children) == 0 {
		if c.Metric == "" {
			return fmt.Errorf("scoring: leaf %s has no metric binding", path)
		}
		return nil
	}
	if c.Metric != "" {
		return fmt.Errorf("scoring: interior node %s must not bind a metric", path)
	}

	sum := 0.0
	seen := make(map[string]bool, len(c.Children))
	for _, child := range c.Children {
		if seen[child.Name] {
			return fmt.Errorf("scoring: duplicate category %q under %s", child.Name, path)
		}
		seen[child.Name] = true
		sum += child.Weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("scoring: children of %s have weights summing to %v, want 1.0", path, sum)
	}

	for _, child := range c.Children {
		if err := validateNode(child, path); err != nil {
			return err
		}
	}
	return nil
}

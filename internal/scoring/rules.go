package scoring

import (
	"github.com/pageaudit/pageaudit/internal/aggregate"
)

// Tier is the severity tier of a compliance rule.
type Tier string

const (
	TierCritical    Tier = "critical"
	TierImportant   Tier = "important"
	TierEnhancement Tier = "enhancement"
)

// Rule is one entry of the static best-practices catalog. Validate is a
// pure predicate over the aggregated signals; a rule whose inputs are
// missing (the leaf is a gap) fails, since compliance cannot be shown.
type Rule struct {
	ID            string
	Tier          Tier
	Category      string
	Title         string
	Impact        string
	FixSuggestion string
	Validate      func(*aggregate.Signals) bool
}

// Finding is the pass/fail record one rule produces per run.
// Every rule in the catalog yields exactly one Finding, pass or fail.
type Finding struct {
	RuleID        string `json:"rule_id"`
	Tier          Tier   `json:"tier"`
	Passed        bool   `json:"passed"`
	Impact        string `json:"impact"`
	FixSuggestion string `json:"fix_suggestion"`
}

// DefaultRules returns the standard best-practices catalog.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:            "page-has-title",
			Tier:          TierCritical,
			Category:      "content",
			Title:         "Add a page title",
			Impact:        "Pages without a <title> are unusable in search results, bookmarks, and browser tabs.",
			FixSuggestion: "Add a descriptive <title> of roughly 30-60 characters to the document head.",
			Validate: func(s *aggregate.Signals) bool {
				return detailBool(s, "content", "title", "present")
			},
		},
		{
			ID:            "single-h1",
			Tier:          TierCritical,
			Category:      "structure",
			Title:         "Use exactly one top-level heading",
			Impact:        "Missing or duplicated <h1> headings break the document outline for assistive technology and crawlers.",
			FixSuggestion: "Keep exactly one <h1> that states the page topic; demote the rest to <h2>.",
			Validate: func(s *aggregate.Signals) bool {
				return detailInt(s, "structure", "headings", "h1_count") == 1
			},
		},
		{
			ID:            "viewport-meta",
			Tier:          TierCritical,
			Category:      "technical",
			Title:         "Declare a viewport",
			Impact:        "Without a viewport meta tag the page renders at desktop width on mobile devices.",
			FixSuggestion: `Add <meta name="viewport" content="width=device-width, initial-scale=1"> to the head.`,
			Validate: func(s *aggregate.Signals) bool {
				return detailBool(s, "technical", "viewport", "present")
			},
		},
		{
			ID:            "meta-description",
			Tier:          TierImportant,
			Category:      "content",
			Title:         "Add a meta description",
			Impact:        "Search engines substitute arbitrary page text when no description is provided.",
			FixSuggestion: "Add a meta description of roughly 70-160 characters summarizing the page.",
			Validate: func(s *aggregate.Signals) bool {
				return detailBool(s, "content", "meta_description", "present")
			},
		},
		{
			ID:            "image-alt-coverage",
			Tier:          TierImportant,
			Category:      "structure",
			Title:         "Describe images with alt text",
			Impact:        "Images without alt text are invisible to screen readers and image search.",
			FixSuggestion: "Add meaningful alt attributes to content images; use alt=\"\" only for decoration.",
			Validate: func(s *aggregate.Signals) bool {
				ls, ok := s.Leaf("structure", "image_alt")
				return ok && ls.Score >= 80
			},
		},
		{
			ID:            "canonical-link",
			Tier:          TierImportant,
			Category:      "technical",
			Title:         "Declare a canonical URL",
			Impact:        "Duplicate-content variants split ranking signals when no canonical is declared.",
			FixSuggestion: `Add <link rel="canonical" href="..."> pointing at the preferred URL.`,
			Validate: func(s *aggregate.Signals) bool {
				return detailBool(s, "technical", "canonical", "present")
			},
		},
		{
			ID:            "social-preview",
			Tier:          TierEnhancement,
			Category:      "content",
			Title:         "Add social preview tags",
			Impact:        "Links shared without Open Graph/Twitter tags render as bare URLs on social platforms.",
			FixSuggestion: "Add og:title, og:description, og:image, and twitter:card meta tags.",
			Validate: func(s *aggregate.Signals) bool {
				ls, ok := s.Leaf("content", "social_meta")
				return ok && ls.Score >= 75
			},
		},
		{
			ID:            "document-language",
			Tier:          TierEnhancement,
			Category:      "technical",
			Title:         "Declare the document language",
			Impact:        "Screen readers guess pronunciation when <html> carries no lang attribute.",
			FixSuggestion: `Set the lang attribute on the <html> element, e.g. <html lang="en">.`,
			Validate: func(s *aggregate.Signals) bool {
				return detailBool(s, "technical", "language", "present")
			},
		},
	}
}

// detailBool reads a boolean detail from a leaf signal; missing leaves or
// keys read as false.
func detailBool(s *aggregate.Signals, domain, metric, key string) bool {
	ls, ok := s.Leaf(domain, metric)
	if !ok {
		return false
	}
	v, _ := ls.Details[key].(bool)
	return v
}

// detailInt reads a numeric detail from a leaf signal; missing leaves or
// keys read as -1 so absence never satisfies an equality check.
func detailInt(s *aggregate.Signals, domain, metric, key string) int {
	ls, ok := s.Leaf(domain, metric)
	if !ok {
		return -1
	}
	switch v := ls.Details[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return -1
	}
}

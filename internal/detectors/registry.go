// Package detectors holds the built-in page detectors: simple
// DOM-selector and regex matchers, each feeding exactly one leaf of the
// scoring framework.
//
// Detectors are registered via the explicit list below, never discovered
// at runtime. Every detector treats the analysis context as read-only.
package detectors

import "github.com/pageaudit/pageaudit/internal/signal"

// Registry returns the full built-in detector set, one per framework leaf.
func Registry() []signal.Detector {
	return []signal.Detector{
		Title{},
		MetaDescription{},
		ContentLength{},
		SocialMeta{},
		Viewport{},
		Canonical{},
		Language{},
		PageWeight{},
		Headings{},
		ImageAlt{},
		Links{},
	}
}

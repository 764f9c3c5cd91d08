// Package report renders a pipeline result for human and machine
// consumers: markdown for tool output, YAML for export.
package report

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pageaudit/pageaudit/internal/pipeline"
	"github.com/pageaudit/pageaudit/internal/scoring"
)

// Markdown renders the audit report for chat/tool display.
func Markdown(res *pipeline.Result) string {
	var b strings.Builder

	b.WriteString("## Page Audit Report\n\n")
	if res.Metadata.URL != "" {
		fmt.Fprintf(&b, "**URL**: %s\n", res.Metadata.URL)
	}
	fmt.Fprintf(&b, "**Score**: %.1f/100 (%s)\n", res.OverallScore, res.Grade)
	fmt.Fprintf(&b, "**Run**: %s | state: %s | cache hit: %v\n\n",
		res.RunID, res.Metadata.State, res.Metadata.CacheHit)

	if res.Metadata.Error != "" {
		fmt.Fprintf(&b, "**Degraded run**: %s\n\n", res.Metadata.Error)
	}

	if res.ScoreTree != nil {
		b.WriteString("### Categories\n\n")
		for _, domain := range res.ScoreTree.Children {
			fmt.Fprintf(&b, "- **%s** (weight %.0f%%): %s\n",
				domain.Name, domain.Weight*100, formatScore(domain.Score))
			for _, leaf := range domain.Children {
				fmt.Fprintf(&b, "  - %s: %s\n", leaf.Name, formatScore(leaf.Score))
			}
		}
		b.WriteString("\n")
	}

	if failed := failedFindings(res.Findings); len(failed) > 0 {
		b.WriteString("### Compliance\n\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "- [%s] %s — %s\n", f.Tier, f.RuleID, f.Impact)
		}
		b.WriteString("\n")
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for i, r := range res.Recommendations {
			fmt.Fprintf(&b, "%d. **[%s]** %s (%s)\n   %s\n", i+1, r.Priority, r.Title, r.Category, r.Description)
		}
		b.WriteString("\n")
	}

	if len(res.Gaps) > 0 {
		b.WriteString("### Gaps\n\n")
		for _, g := range res.Gaps {
			fmt.Fprintf(&b, "- %s: %s\n", g.DetectorID, g.Reason)
		}
		b.WriteString("\n")
	}

	if res.Enhancement != nil {
		b.WriteString("### AI Insights\n\n")
		fmt.Fprintf(&b, "%s\n\n_confidence: %.2f_\n", res.Enhancement.Summary, res.Enhancement.Confidence)
	}

	return b.String()
}

// YAML serializes the full result for export.
func YAML(res *pipeline.Result) ([]byte, error) {
	out, err := yaml.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("report: marshal yaml: %w", err)
	}
	return out, nil
}

func formatScore(s *float64) string {
	if s == nil {
		return "no signal"
	}
	return fmt.Sprintf("%.1f", *s)
}

func failedFindings(findings []scoring.Finding) []scoring.Finding {
	var failed []scoring.Finding
	for _, f := range findings {
		if !f.Passed {
			failed = append(failed, f)
		}
	}
	return failed
}

package audittools

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pageaudit/pageaudit/internal/history"
	"github.com/pageaudit/pageaudit/internal/pipeline"
)

// StatsTool handles the audit_stats MCP tool.
type StatsTool struct {
	metrics *pipeline.Metrics
	history *history.Store // nil when history is disabled
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(metrics *pipeline.Metrics, hist *history.Store) *StatsTool {
	return &StatsTool{metrics: metrics, history: hist}
}

// Definition returns the MCP tool definition for audit_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("audit_stats",
		mcp.WithDescription(
			"Show audit service statistics — runs, success rate, cache hits for this "+
				"instance, plus all-time history when available.",
		),
	)
}

// Handle processes the audit_stats tool call.
func (t *StatsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.metrics.Snapshot()

	var b strings.Builder
	b.WriteString("## Audit Statistics\n\n")
	b.WriteString("### This instance\n\n")
	fmt.Fprintf(&b, "- **Runs**: %d\n", snap.Runs)
	fmt.Fprintf(&b, "- **Failures**: %d\n", snap.Failures)
	fmt.Fprintf(&b, "- **Cache hits**: %d\n", snap.CacheHits)
	fmt.Fprintf(&b, "- **Average duration**: %d ms\n", snap.AvgDurationMs)
	fmt.Fprintf(&b, "- **Success rate**: %.0f%%\n", snap.SuccessRate*100)

	if t.history != nil {
		stats, err := t.history.Stats()
		if err != nil {
			log.Printf("WARNING: history stats unavailable: %v", err)
		} else {
			b.WriteString("\n### All time\n\n")
			fmt.Fprintf(&b, "- **Runs**: %d (%d failed)\n", stats.TotalRuns, stats.FailedRuns)
			fmt.Fprintf(&b, "- **Average score**: %.1f\n", stats.AvgScore)
			fmt.Fprintf(&b, "- **Average duration**: %d ms\n", stats.AvgDurationMs)
			if len(stats.Grades) > 0 {
				grades := make([]string, 0, len(stats.Grades))
				for g := range stats.Grades {
					grades = append(grades, g)
				}
				sort.Strings(grades)
				parts := make([]string, 0, len(grades))
				for _, g := range grades {
					parts = append(parts, fmt.Sprintf("%s: %d", g, stats.Grades[g]))
				}
				fmt.Fprintf(&b, "- **Grades**: %s\n", strings.Join(parts, ", "))
			}
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

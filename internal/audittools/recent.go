package audittools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pageaudit/pageaudit/internal/history"
)

// HistoryTool handles the audit_history MCP tool.
type HistoryTool struct {
	history *history.Store
}

// NewHistoryTool creates a HistoryTool. The store must be non-nil;
// the composition root skips registration when history is disabled.
func NewHistoryTool(hist *history.Store) *HistoryTool {
	return &HistoryTool{history: hist}
}

// Definition returns the MCP tool definition for audit_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("audit_history",
		mcp.WithDescription(
			"List recent audit runs with their scores and grades, newest first.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Max runs to return (default: 10)"),
		),
	)
}

// Handle processes the audit_history tool call.
func (t *HistoryTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 10)

	runs, err := t.history.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history query failed: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No audit runs recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d audit run(s):\n\n", len(runs))
	for i, r := range runs {
		url := r.URL
		if url == "" {
			url = "(no url)"
		}
		flags := ""
		if r.CacheHit {
			flags = " | cached"
		}
		if r.State == "failed" {
			flags += " | FAILED"
		}
		fmt.Fprintf(&b, "[%d] %s — %.1f (%s) | %d ms%s\n    %s\n",
			i+1, url, r.Score, r.Grade, r.DurationMs, flags, r.CreatedAt)
	}

	return mcp.NewToolResultText(b.String()), nil
}

package audittools

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pageaudit/pageaudit/internal/history"
	"github.com/pageaudit/pageaudit/internal/pipeline"
	"github.com/pageaudit/pageaudit/internal/report"
	"github.com/pageaudit/pageaudit/internal/signal"
)

// AuditTool handles the audit_page MCP tool.
type AuditTool struct {
	pipe    *pipeline.Pipeline
	history *history.Store // nil when history is disabled
}

// NewAuditTool creates an AuditTool with the given pipeline and optional
// history store.
func NewAuditTool(pipe *pipeline.Pipeline, hist *history.Store) *AuditTool {
	return &AuditTool{pipe: pipe, history: hist}
}

// Definition returns the MCP tool definition for audit_page.
func (t *AuditTool) Definition() mcp.Tool {
	return mcp.NewTool("audit_page",
		mcp.WithDescription(
			"Audit a rendered web page: score its quality 0-100, grade it, check best "+
				"practices, and list prioritized recommendations. Provide the page's HTML.",
		),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("The rendered HTML of the page to audit"),
		),
		mcp.WithString("url",
			mcp.Description("The page URL, used for identity and caching"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: markdown (default) or yaml"),
		),
	)
}

// Handle processes the audit_page tool call.
func (t *AuditTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	html := req.GetString("html", "")
	if html == "" {
		return mcp.NewToolResultError("'html' is required"), nil
	}
	url := req.GetString("url", "")
	format := req.GetString("format", "markdown")

	page, err := signal.NewContext(url, html)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid page: %v", err)), nil
	}

	res := t.pipe.RunAnalysis(ctx, page)

	if t.history != nil {
		if err := t.history.Record(res); err != nil {
			log.Printf("WARNING: could not record run %s: %v", res.RunID, err)
		}
	}

	if format == "yaml" {
		out, err := report.YAML(res)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
	return mcp.NewToolResultText(report.Markdown(res)), nil
}

// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations —
// detector registry, scoring engine, confidence gate, cache, metrics,
// history store — and injects them into the tools that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/pageaudit/pageaudit/internal/audittools"
	"github.com/pageaudit/pageaudit/internal/cache"
	"github.com/pageaudit/pageaudit/internal/config"
	"github.com/pageaudit/pageaudit/internal/detectors"
	"github.com/pageaudit/pageaudit/internal/enhance"
	"github.com/pageaudit/pageaudit/internal/history"
	"github.com/pageaudit/pageaudit/internal/pipeline"
	"github.com/pageaudit/pageaudit/internal/scoring"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the history store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if history init failed.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	engine, err := scoring.NewEngine(scoring.DefaultFramework(), scoring.DefaultRules(), cfg.AcceptableScore)
	if err != nil {
		return nil, noop, fmt.Errorf("creating scoring engine: %w", err)
	}

	// Enhancement is opt-in: no API key, no enhancement stage.
	var gate *enhance.Gate
	if cfg.GeminiAPIKey != "" {
		provider := enhance.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel)
		gate = enhance.NewGate(provider, cfg.ConfidenceThreshold, cfg.EnhanceTimeout)
	}

	metrics := pipeline.NewMetrics()
	resultCache := cache.New[*pipeline.Result](cfg.CacheCapacity)

	var pipe *pipeline.Pipeline
	pipeCfg := pipeline.Config{
		DetectorTimeout: cfg.DetectorTimeout,
		PipelineTimeout: cfg.PipelineTimeout,
		MaxConcurrent:   cfg.MaxConcurrentDetectors,
		CacheBucket:     cfg.CacheBucket,
	}
	if gate != nil {
		pipe = pipeline.New(detectors.Registry(), engine, gate, resultCache, metrics, pipeCfg)
	} else {
		pipe = pipeline.New(detectors.Registry(), engine, nil, resultCache, metrics, pipeCfg)
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"pageaudit",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- History is an independent subsystem ---
	//
	// If it fails to initialize, auditing continues without persistence.
	// We log a warning and skip the history tool registration.

	cleanup := noop
	hist, histErr := history.New(history.Config{DataDir: cfg.DataDir})
	if histErr != nil {
		log.Printf("WARNING: history subsystem disabled: %v", histErr)
		hist = nil
	} else {
		cleanup = func() {
			if err := hist.Close(); err != nil {
				log.Printf("WARNING: closing history store: %v", err)
			}
		}
	}

	// --- Register audit tools ---

	auditTool := audittools.NewAuditTool(pipe, hist)
	s.AddTool(auditTool.Definition(), auditTool.Handle)

	statsTool := audittools.NewStatsTool(metrics, hist)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	if hist != nil {
		historyTool := audittools.NewHistoryTool(hist)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	return s, cleanup, nil
}

func noop() {}

func serverInstructions() string {
	return `pageaudit scores rendered web pages for quality.

Use audit_page with the page's HTML (and URL if known) to get an overall
0-100 score, a letter grade, best-practices findings, and prioritized
recommendations. Results for unchanged pages are served from a short-lived
cache. Use audit_stats for service metrics and audit_history for recent runs.`
}

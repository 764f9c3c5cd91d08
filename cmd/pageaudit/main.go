// pageaudit: Page Quality Audit MCP Server
//
// An MCP server that audits rendered web pages: it runs a concurrent
// detector pipeline, computes a weighted quality score and letter grade,
// validates best practices, and returns prioritized recommendations.
//
// Usage:
//
//	pageaudit serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/pageaudit/pageaudit/internal/config"
	auditserver "github.com/pageaudit/pageaudit/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("pageaudit v%s\n", auditserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	s, cleanup, err := auditserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. Diagnostics go to stderr so they
	// don't interfere with MCP's stdio transport on stdout.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Println(`pageaudit - Page Quality Audit MCP Server

Usage:
  pageaudit serve      Start the MCP server (stdio transport)
  pageaudit version    Print the version
  pageaudit help       Show this help

Configuration (environment, .env honored):
  PAGEAUDIT_DETECTOR_TIMEOUT_MS        Per-detector deadline (default 2000)
  PAGEAUDIT_PIPELINE_TIMEOUT_MS        Whole-run deadline (default 15000)
  PAGEAUDIT_MAX_CONCURRENT_DETECTORS   In-flight detector cap (default 8)
  PAGEAUDIT_ACCEPTABLE_SCORE           Recommendation threshold (default 70)
  PAGEAUDIT_CACHE_BUCKET_MINUTES       Cache freshness window (default 5)
  PAGEAUDIT_CACHE_CAPACITY             Max cached results, 0 = unbounded
  PAGEAUDIT_CONFIDENCE_THRESHOLD       Enrichment acceptance gate (default 0.7)
  PAGEAUDIT_GEMINI_API_KEY             Enables the AI enhancement stage
  PAGEAUDIT_GEMINI_MODEL               Enrichment model (default gemini-2.0-flash)
  PAGEAUDIT_DATA_DIR                   History database location (~/.pageaudit)`)
}

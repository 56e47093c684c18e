// Cortex: Tiered Memory MCP Server
//
// A persistent memory core for AI coding assistants. Conversations land
// in bounded working memory, durable insights live in a full-text
// searchable knowledge graph, and git history feeds a file stability
// map — all served over MCP's stdio transport.
//
// Usage:
//
//	cortex serve              # Start MCP server (stdio transport)
//	cortex migrate            # Re-classify pattern namespaces
//	cortex analyze <repo>     # Run hotspot analysis on a repository
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cortexhq/cortex/internal/config"
	"github.com/cortexhq/cortex/internal/hotspot"
	"github.com/cortexhq/cortex/internal/namespace"
	"github.com/cortexhq/cortex/internal/pattern"
	cortexserver "github.com/cortexhq/cortex/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "migrate":
		err = runMigrate(args)
	case "analyze":
		err = runAnalyze(args)
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("cortex v%s\n", cortexserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file path (flag, then the default
// location inside the data directory) and loads it.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".cortex", "config.yaml")
	}
	return config.Load(path)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default ~/.cortex/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	s, cleanup, err := cortexserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. The stdio server exits when
	// stdin closes; the signal handler covers direct termination.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(s)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		return nil
	}
}

// runMigrate re-classifies every stored pattern into the namespace
// hierarchy. Safe to run repeatedly: patterns already carrying a
// cortex.* or workspace.* namespace are left untouched.
func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default ~/.cortex/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	store, err := pattern.New(pattern.Config{
		DataDir:          cfg.DataDir,
		MaxSearchResults: cfg.MaxSearchResults,
		MinConfidence:    cfg.MinConfidence,
	})
	if err != nil {
		return fmt.Errorf("opening pattern store: %w", err)
	}
	defer store.Close()

	report, err := namespace.Migrate(store, namespace.New(cfg.KnownWorkspaces))
	if err != nil {
		return fmt.Errorf("migrating namespaces: %w", err)
	}

	fmt.Println(report)
	return nil
}

// runAnalyze computes file churn for a repository and stores the
// resulting hotspot metrics.
func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default ~/.cortex/config.yaml)")
	days := fs.Int("days", 0, "analysis window in days (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: cortex analyze [flags] <repo-path>")
	}
	repoPath := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	window := cfg.AnalysisWindowDays
	if *days > 0 {
		window = *days
	}

	store, err := hotspot.NewStore(hotspot.Config{DataDir: cfg.DataDir})
	if err != nil {
		return fmt.Errorf("opening hotspot store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GitTimeout)
	defer cancel()

	analyzer := hotspot.NewAnalyzer()
	hotspots := analyzer.AnalyzeHotspots(ctx, repoPath, window)
	if err := store.SaveHotspots(hotspots); err != nil {
		return fmt.Errorf("saving hotspots: %w", err)
	}

	fmt.Println(hotspot.FormatReport(hotspots))
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Cortex v%s — Tiered Memory MCP Server

Usage:
  cortex serve [--config path]            Start the MCP server (stdio transport)
  cortex migrate [--config path]          Re-classify pattern namespaces
  cortex analyze [--days n] <repo-path>   Run file-churn analysis on a repository
  cortex version                          Print the version

Configuration:
  Settings are read from ~/.cortex/config.yaml when present.
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "cortex": {
        "command": "cortex",
        "args": ["serve"]
      }
    }
  }
`, cortexserver.Version)
}

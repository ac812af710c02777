// trendwatch: autonomous social-media trend monitoring agent.
//
// It watches a configured set of hashtags and accounts, detects
// emerging micro-trends via frequency growth (optionally corroborated
// by a language model), adapts its own collection cadence, and exposes
// everything over MCP (stdio transport).
//
// Usage:
//
//	trendwatch serve [config.yaml]   # scheduler + MCP server on stdio
//	trendwatch once [config.yaml]    # run a single detection cycle and exit
//	trendwatch version
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"trendwatch/internal/agent"
	"trendwatch/internal/config"
	"trendwatch/internal/logging"
	"trendwatch/internal/mcpserver"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Missing .env is fine; credentials can come from the environment.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "serve":
		if err := runServe(configArg()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "once":
		if err := runOnce(configArg()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("trendwatch v%s\n", mcpserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func configArg() string {
	if len(os.Args) > 2 {
		return os.Args[2]
	}
	return "trendwatch.yaml"
}

// runServe starts the scheduler and serves MCP on stdio until the
// transport closes or an interrupt arrives.
func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.NewWithService(cfg.LogLevel, "trendwatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := agent.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}
	defer app.Close()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	s := mcpserver.New(app.MCPServerDeps())
	return server.ServeStdio(s)
}

// runOnce executes a single detection cycle and prints the resulting
// trends as JSON. Useful for cron-style deployments and smoke tests.
func runOnce(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// A one-shot run must not reschedule anything.
	cfg.Scheduler.AutoStart = false
	log := logging.NewWithService(cfg.LogLevel, "trendwatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := agent.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}
	defer app.Close()

	app.Orchestrator.RunCycle(ctx)

	out, err := json.MarshalIndent(app.Orchestrator.CurrentTrends(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trends: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func printUsage() {
	fmt.Println(`trendwatch - autonomous social trend monitoring agent

Usage:
  trendwatch serve [config.yaml]   Start the scheduler and the MCP server (stdio)
  trendwatch once [config.yaml]    Run a single detection cycle and print trends
  trendwatch version               Print version
  trendwatch help                  Show this help

Environment:
  FEED_BEARER_TOKEN   Social feed API bearer token (required)
  GENAI_API_KEY       Language-model API key (optional; enables AI analysis)

A .env file in the working directory is loaded if present.`)
}

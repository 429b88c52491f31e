package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/supportfoundry/zendesk-mcp/internal/config"
	"github.com/supportfoundry/zendesk-mcp/internal/kb"
	"github.com/supportfoundry/zendesk-mcp/internal/mcp"
	"github.com/supportfoundry/zendesk-mcp/internal/zendesk"
)

// Version is set by goreleaser at build time.
var version = "dev"

// Seams for tests.
var (
	serveStdio = func(s *mcp.Server) error { return s.ServeStdio() }
	serveHTTP  = func(h *mcp.HTTPServer) error { return h.Start() }
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "check":
		err = runCheck(ctx, os.Args[2:])
	case "config":
		err = runConfig()
	case "version":
		fmt.Printf("zendesk-mcp v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("zendesk-mcp v%s - Zendesk MCP server\n\n", version)
	fmt.Println("Usage: zendesk-mcp <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve        Start the MCP server (stdio by default)")
	fmt.Println("  check        Verify Zendesk credentials")
	fmt.Println("  config       Print an mcpServers snippet for MCP clients")
	fmt.Println("  version      Print the version")
	fmt.Println("  help         Show this help")
	fmt.Println()
	fmt.Println("Serve flags:")
	fmt.Println("  --http             Serve over HTTP/SSE instead of stdio")
	fmt.Println("  --host HOST        HTTP bind host (default 0.0.0.0)")
	fmt.Println("  --port PORT        HTTP bind port (default 8000)")
	fmt.Println("  --config PATH      Config file path")
	fmt.Println("  --log-level LEVEL  debug, info, warn or error")
}

// loadConfig resolves the layered config and applies any flags the
// user passed explicitly, which outrank both file and environment.
func loadConfig(fs *flag.FlagSet, configPath string, httpMode *bool, host *string, port *int, logLevel *string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http":
			if httpMode != nil && *httpMode {
				cfg.Server.Mode = config.ModeHTTP
			}
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	httpMode := fs.Bool("http", false, "serve over HTTP/SSE instead of stdio")
	host := fs.String("host", "0.0.0.0", "HTTP bind host")
	port := fs.Int("port", 8000, "HTTP bind port")
	configPath := fs.String("config", "", "config file path")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, *configPath, httpMode, host, port, logLevel)
	if err != nil {
		return err
	}

	// Logs go to stderr: in stdio mode stdout carries the protocol
	// stream and must stay clean.
	logger := setupLogger(cfg.Logging.Level)

	client := zendesk.New(cfg.Zendesk.Subdomain, cfg.Zendesk.Email, cfg.Zendesk.APIKey)
	cache := kb.New(client, kb.DefaultTTL)
	srv := mcp.NewServer(client, cache, logger)

	if cfg.Server.Mode != config.ModeHTTP {
		return serveStdio(srv)
	}

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)
	green.Fprintf(os.Stderr, "zendesk-mcp v%s\n", version)
	gray.Fprintf(os.Stderr, "  subdomain: %s\n", cfg.Zendesk.Subdomain)
	gray.Fprintf(os.Stderr, "  listening: http://%s:%d/mcp/sse\n", cfg.Server.Host, cfg.Server.Port)

	httpSrv := mcp.NewHTTPServer(srv, cfg.Server.Host, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() { errCh <- serveHTTP(httpSrv) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

func runCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	client := zendesk.New(cfg.Zendesk.Subdomain, cfg.Zendesk.Email, cfg.Zendesk.APIKey)
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("zendesk authentication failed: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Connected to %s.zendesk.com\n", cfg.Zendesk.Subdomain)
	fmt.Printf("  authenticated as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

// runConfig prints the JSON stanza MCP clients expect in their
// mcpServers block, with the current binary path filled in.
func runConfig() error {
	exe, err := os.Executable()
	if err != nil {
		exe = "zendesk-mcp"
	}

	snippet := map[string]any{
		"mcpServers": map[string]any{
			"zendesk": map[string]any{
				"command": exe,
				"args":    []string{"serve"},
				"env": map[string]string{
					"ZENDESK_SUBDOMAIN": "your-subdomain",
					"ZENDESK_EMAIL":     "agent@example.com",
					"ZENDESK_API_KEY":   "your-api-token",
				},
			},
		},
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snippet)
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

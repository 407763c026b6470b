package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ChrisPatten/capital-os/pkg/api"
	"github.com/ChrisPatten/capital-os/pkg/approval"
	"github.com/ChrisPatten/capital-os/pkg/config"
	"github.com/ChrisPatten/capital-os/pkg/export"
	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/mcpstdio"
	"github.com/ChrisPatten/capital-os/pkg/period"
	"github.com/ChrisPatten/capital-os/pkg/policy"
	"github.com/ChrisPatten/capital-os/pkg/security"
	"github.com/ChrisPatten/capital-os/pkg/tools"
	"github.com/ChrisPatten/capital-os/pkg/toolruntime"
	"github.com/ChrisPatten/capital-os/pkg/toolschema"
)

// Dispatcher. Grounded on cmd/helm/main.go's Run(args, stdout, stderr)
// int shape: every subcommand is testable without os.Exit, and main
// itself is a one-line adapter.
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runServe(stdout, stderr)
	}

	switch args[1] {
	case "serve":
		return runServe(stdout, stderr)
	case "health":
		return runHealth(stdout, stderr)
	case "tool":
		return runTool(args[2:], stdout, stderr)
	case "mcp":
		return runStdio(stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "capital-os: deterministic financial-truth engine")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  capital-os <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  serve               Run the HTTP tool API (default)")
	fmt.Fprintln(w, "  health              Check server health (HTTP)")
	fmt.Fprintln(w, "  tool list           List registered tools")
	fmt.Fprintln(w, "  tool schema <name>  Print a tool's input JSON schema")
	fmt.Fprintln(w, "  tool call <name>    Invoke a tool on the trusted local channel")
	fmt.Fprintln(w, "  mcp                 Run the stdio JSON-RPC tool transport")
	fmt.Fprintln(w, "  help                Show this help")
}

// buildRuntime opens the database and wires every store, the tool
// registry, and the runtime — the one construction path shared by
// serve, tool call, and the stdio transport.
func buildRuntime(cfg *config.AppConfig) (*sql.DB, *toolruntime.Runtime, error) {
	driver := "postgres"
	if strings.HasPrefix(cfg.DatabaseURL, "sqlite://") || strings.HasSuffix(cfg.DatabaseURL, ".db") {
		driver = "sqlite"
	}
	db, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	ledger := ledgerstore.New(db)
	approvalStore := approval.New(db)
	periodStore := period.New(db)
	policyStore := policy.New(db)

	ctx := context.Background()
	for _, init := range []func(context.Context) error{ledger.Init, approvalStore.Init, periodStore.Init, policyStore.Init} {
		if err := init(ctx); err != nil {
			return nil, nil, fmt.Errorf("init schema: %w", err)
		}
	}

	exportSink, err := export.NewSink(ctx, cfg.Export)
	if err != nil {
		return nil, nil, fmt.Errorf("init export sink: %w", err)
	}

	deps := tools.Deps{
		Ledger:       ledger,
		Approval:     approvalStore,
		Orchestrator: approval.NewOrchestrator(db, approvalStore, ledger),
		Period:       periodStore,
		Policy:       policyStore,
		Config:       cfg,
		Export:       exportSink,
	}
	registry := tools.NewRegistry(deps)
	return db, toolruntime.NewRuntime(db, registry), nil
}

func runServe(stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	db, runtime, err := buildRuntime(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "startup: %v\n", err)
		return 1
	}
	defer db.Close()

	server := &api.Server{Runtime: runtime, ToolCapabilities: cfg.ToolCapabilities}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HandleHealth)
	mux.Handle("/tools/", api.BearerTokenAuth(cfg.TokenIdentities, http.HandlerFunc(server.HandleToolCall)))

	limiter := api.NewGlobalRateLimiter(50, 100)
	handler := limiter.Middleware(mux)

	addr := ":" + cfg.Port
	fmt.Fprintf(stdout, "capital-os: listening on %s\n", addr)

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			log.Printf("capital-os: server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Fprintln(stdout, "capital-os: shutting down")
	return 0
}

func runHealth(stdout, stderr io.Writer) int {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	resp, err := http.Get("http://localhost:" + port + "/health")
	if err != nil {
		fmt.Fprintf(stderr, "health check failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "health check failed: status %d\n", resp.StatusCode)
		return 1
	}
	fmt.Fprintln(stdout, "OK")
	return 0
}

// runStdio wires the stdio JSON-RPC transport onto stdin/stdout,
// attaching the trusted-CLI identity to every dispatched call.
func runStdio(stdout io.Writer, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	db, runtime, err := buildRuntime(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "startup: %v\n", err)
		return 1
	}
	defer db.Close()

	srv := &mcpstdio.Server{Runtime: runtime, Identity: security.TrustedCLIContext()}
	if err := srv.Serve(os.Stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "stdio transport: %v\n", err)
		return 1
	}
	return 0
}

func runTool(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: capital-os tool <list|schema|call> ...")
		return 2
	}

	switch args[0] {
	case "list":
		return runToolList(stdout)
	case "schema":
		return runToolSchema(args[1:], stdout, stderr)
	case "call":
		return runToolCall(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown tool subcommand: %s\n", args[0])
		return 2
	}
}

func runToolList(stdout io.Writer) int {
	type entry struct {
		Name          string `json:"name"`
		Mode          string `json:"mode"`
		SchemaVersion string `json:"schema_version"`
	}
	names := toolschema.Names()
	entries := make([]entry, 0, len(names))
	for _, name := range names {
		mode := "read"
		if toolruntime.WriteClassTools[name] {
			mode = "write"
		}
		descriptor, _ := toolschema.Get(name)
		entries = append(entries, entry{Name: name, Mode: mode, SchemaVersion: descriptor.SchemaVersion})
	}
	out := map[string]any{"tools": entries, "count": len(entries), "schema_version": toolschema.Version}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(stdout, string(data))
	return 0
}

func runToolSchema(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tool schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	minVersion := fs.String("min-version", "", "Require this build's schema version to satisfy a constraint (e.g. \"^1.0.0\"); reject otherwise.")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: capital-os tool schema [--min-version constraint] <name>")
		return 2
	}

	if *minVersion != "" {
		compatible, err := toolschema.CheckCompatible(*minVersion)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 2
		}
		if !compatible {
			fmt.Fprintf(stderr, "toolschema: this build's schema version %s does not satisfy constraint %q\n", toolschema.Version, *minVersion)
			return 1
		}
	}

	name := fs.Arg(0)
	descriptor, ok := toolschema.Get(name)
	if !ok {
		fmt.Fprintf(stderr, "Unknown tool: %s\n", name)
		return 1
	}
	out := map[string]any{"tool": name, "input_schema": descriptor.Schema, "schema_version": descriptor.SchemaVersion}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(stdout, string(data))
	return 0
}

func runToolCall(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tool call", flag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonFlag := fs.String("json", "", "JSON payload: inline string or @filename. Reads stdin when omitted.")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: capital-os tool call <name> [--json '{...}'|@file]")
		return 2
	}
	name := fs.Arg(0)

	payload, err := resolvePayload(*jsonFlag)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	db, rt, err := buildRuntime(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "startup: %v\n", err)
		return 1
	}
	defer db.Close()

	correlationID, _ := payload["correlation_id"].(string)
	identity := security.TrustedCLIContext()
	invocation := toolruntime.InvocationContext{
		ActorID:             identity.ActorID,
		AuthnMethod:         identity.AuthnMethod,
		AuthorizationResult: identity.AuthorizationResult,
	}

	result := rt.ExecuteTool(context.Background(), name, payload, correlationID, invocation)
	if result.Status == toolruntime.ResultOK {
		data, _ := json.MarshalIndent(result.Response, "", "  ")
		fmt.Fprintln(stdout, string(data))
		return 0
	}

	data, _ := json.MarshalIndent(map[string]any{
		"status":        result.Status,
		"error_code":    result.ErrorCode,
		"error_message": result.ErrorMessage,
	}, "", "  ")
	fmt.Fprintln(stderr, string(data))
	return 1
}

func resolvePayload(jsonFlag string) (map[string]any, error) {
	var raw []byte
	var err error

	switch {
	case strings.HasPrefix(jsonFlag, "@"):
		raw, err = os.ReadFile(jsonFlag[1:])
		if err != nil {
			return nil, fmt.Errorf("cannot read payload file: %w", err)
		}
	case jsonFlag != "":
		raw = []byte(jsonFlag)
	default:
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("cannot read stdin: %w", err)
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return payload, nil
}

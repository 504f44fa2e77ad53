// tg-note is an autonomous knowledge-base assistant.
//
// It takes raw content (text, URLs, or a free-form instruction), runs a
// bounded agent loop that researches and structures it, and saves the
// result as a categorized markdown note in a git-tracked knowledge
// base. Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	tg-note process <text|url>   Process content into a note
//	tg-note ask <question>       Answer a question from the KB (no note)
//	tg-note reindex              Rebuild the semantic search index
//	tg-note init [dir]           Initialize a KB directory with defaults
//	tg-note version              Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ArtyomZemlyak/tg-note/internal/agent"
	"github.com/ArtyomZemlyak/tg-note/internal/buildinfo"
	"github.com/ArtyomZemlyak/tg-note/internal/config"
	"github.com/ArtyomZemlyak/tg-note/internal/events"
	"github.com/ArtyomZemlyak/tg-note/internal/fetch"
	"github.com/ArtyomZemlyak/tg-note/internal/kb"
	"github.com/ArtyomZemlyak/tg-note/internal/llm"
	"github.com/ArtyomZemlyak/tg-note/internal/mcp"
	"github.com/ArtyomZemlyak/tg-note/internal/memory"
	"github.com/ArtyomZemlyak/tg-note/internal/search"
	"github.com/ArtyomZemlyak/tg-note/internal/tools"
	"github.com/ArtyomZemlyak/tg-note/internal/vcs"
	"github.com/ArtyomZemlyak/tg-note/internal/vector"
)

// main constructs the OS-level environment and delegates to [run], so
// the full lifecycle can be driven from tests without os.Exit.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments by hand (the flag package's global state makes
// parallel tests awkward) and dispatches to the subcommand handlers.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "process":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: tg-note process <text|url>")
		}
		return runProcess(ctx, stdout, configPath, strings.Join(cmdArgs, " "), outputFmt)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: tg-note ask <question>")
		}
		return runAsk(ctx, stdout, configPath, strings.Join(cmdArgs, " "))
	case "reindex":
		return runReindex(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// newLogger builds the process-wide slog logger.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig resolves and loads the config file, returning the config
// and the path it came from.
func loadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}

// assembly bundles the wired subsystems behind one agent loop.
type assembly struct {
	loop       *agent.Loop
	cfg        *config.Config
	bus        *events.Bus
	vector     *vector.Index
	memory     *memory.SQLiteStore
	mcpClients []*mcp.Client
	logger     *slog.Logger
}

func (a *assembly) close() {
	for _, c := range a.mcpClients {
		c.Close()
	}
	if a.vector != nil {
		a.vector.Close()
	}
	if a.memory != nil {
		a.memory.Close()
	}
}

// buildAgent wires the whole pipeline from configuration: search,
// fetch, vector index, memory store, MCP tools, LLM connector, and the
// decision loop on top.
func buildAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*assembly, error) {
	a := &assembly{cfg: cfg, bus: events.New(), logger: logger}

	var searchMgr *search.Manager
	if cfg.Agent.EnableWeb {
		searchMgr = search.NewManager(cfg.Search.Primary)
		if cfg.Search.SearXNGURL != "" {
			searchMgr.Register(search.NewSearXNG(cfg.Search.SearXNGURL))
		}
		if cfg.Search.BraveKey != "" {
			searchMgr.Register(search.NewBrave(cfg.Search.BraveKey))
		}
	}

	if cfg.Agent.EnableVectorSearch {
		embedder := vector.NewOllamaEmbedder(vector.EmbedderConfig{
			BaseURL: cfg.Vector.OllamaURL,
			Model:   cfg.Vector.Model,
		})
		if err := os.MkdirAll(filepath.Dir(cfg.VectorDBPath()), 0o755); err != nil {
			return nil, err
		}
		idx, err := vector.NewIndex(cfg.VectorDBPath(), cfg.KB.Path, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("open vector index: %w", err)
		}
		a.vector = idx
	}

	if cfg.Agent.EnableMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.MemoryDBPath()), 0o755); err != nil {
			return nil, err
		}
		store, err := memory.NewSQLiteStore(cfg.MemoryDBPath())
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		a.memory = store
	}

	// MCP memory servers contribute the store/retrieve tool pair as
	// lazily-connecting remote tools: declaring an unreachable server
	// costs nothing until the agent actually uses it. Other servers
	// are bridged after the registry is built (their catalogs must be
	// discovered over a live connection).
	var extra []*tools.Tool
	for _, server := range cfg.MCP {
		if server.Name == "mem-agent" && a.memory == nil {
			extra = append(extra, mcp.MemoryTools(server, logger)...)
		}
	}

	var connector llm.Connector
	switch cfg.LLM.Provider {
	case "openai":
		connector = llm.NewOpenAIConnector(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, logger)
	case "ollama":
		connector = llm.NewOllamaConnector(cfg.LLM.BaseURL, cfg.LLM.Model, logger)
	case "":
		// Rule-based decisions.
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}

	var vs tools.VectorSearcher
	if a.vector != nil {
		vs = a.vector
	}
	var ms tools.MemoryStore
	if a.memory != nil {
		ms = a.memory
	}

	a.loop = agent.New(agent.Options{
		KBRoot: cfg.KB.Path,
		Flags: tools.Flags{
			FileManagement: cfg.Agent.FileManagementEnabled(),
			Web:            cfg.Agent.EnableWeb,
			Git:            cfg.Agent.EnableGit,
			GitHub:         cfg.Agent.EnableGitHub,
			Shell:          cfg.Agent.EnableShell,
			VectorSearch:   cfg.Agent.EnableVectorSearch,
			Memory:         cfg.Agent.EnableMemory || len(extra) > 0,
		},
		Connector:             connector,
		Temperature:           cfg.LLM.Temperature,
		MaxIterations:         cfg.Agent.MaxIterations,
		GitHubToken:           cfg.GitHub.Token,
		ShellAllowedPrefixes:  cfg.Shell.AllowedPrefixes,
		ShellDeniedPatterns:   cfg.Shell.DeniedPatterns,
		GitAllowedSubcommands: cfg.KB.GitAllowedSubcommands,
		Search:                searchMgr,
		Fetcher:               fetch.New(),
		Vector:                vs,
		Memory:                ms,
		ExtraTools:            extra,
		Locks:                 kb.NewRootLocks(),
		Bus:                   a.bus,
		Logger:                logger,
	})

	// Bridge the remaining MCP servers eagerly: their tool catalogs
	// are discovered over a live connection and registered under
	// namespaced names. An unreachable server is logged and skipped,
	// never fatal.
	for _, server := range cfg.MCP {
		if server.Name == "mem-agent" {
			continue
		}
		client, err := mcp.Connect(ctx, server, logger)
		if err != nil {
			logger.Warn("mcp server unavailable", "server", server.Name, "error", err)
			continue
		}
		n, err := mcp.BridgeTools(ctx, client, server.Name, a.loop.Registry(), nil, nil, logger)
		if err != nil {
			logger.Warn("mcp bridge failed", "server", server.Name, "error", err)
			client.Close()
			continue
		}
		a.mcpClients = append(a.mcpClients, client)
		logger.Info("mcp server bridged", "server", server.Name, "tools", n)
	}

	return a, nil
}

// runProcess handles "tg-note process": one agent run, note saved into
// the KB, optional git commit.
func runProcess(ctx context.Context, stdout io.Writer, configPath, text, outputFmt string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(stdout, level)
	logger.Info("config loaded", "path", cfgPath)

	a, err := buildAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	input := agent.Input{Text: text, URLs: kb.ExtractURLs(text)}
	result, err := a.loop.Process(ctx, input)
	if err != nil {
		return err
	}

	notePath, err := kb.SaveNote(cfg.KB.Path, result.Title, result.Markdown, result.KBStructure)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	a.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceKB,
		Kind:      events.KindNoteCreated,
		Data:      map[string]any{"path": notePath, "category": result.KBStructure.Category},
	})
	logger.Info("note saved", "path", notePath)

	// Fold the new note into the semantic index before the process exits.
	if a.vector != nil {
		if _, _, err := a.vector.Reindex(ctx, false); err != nil {
			logger.Warn("incremental reindex failed", "error", err)
		}
	}

	if cfg.KB.GitEnabled {
		runner := vcs.NewRunner(cfg.KB.Path, cfg.KB.GitAllowedSubcommands, logger)
		message := fmt.Sprintf("Add note: %s", result.Title)
		committed, err := runner.Commit(ctx, message)
		if err != nil {
			logger.Warn("git commit failed", "error", err)
		} else if committed {
			a.bus.Publish(events.Event{
				Timestamp: time.Now(),
				Source:    events.SourceKB,
				Kind:      events.KindKBCommitted,
				Data:      map[string]any{"message": message},
			})
		}
	}

	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"path":     notePath,
			"title":    result.Title,
			"category": result.KBStructure.Category,
			"metadata": result.Metadata,
		})
	}

	fmt.Fprintf(stdout, "Saved %s (%s)\n", notePath, result.KBStructure.RelativePath())
	return nil
}

// runAsk handles "tg-note ask": one agent run in answer mode, printing
// the result without touching the KB.
func runAsk(ctx context.Context, stdout io.Writer, configPath, question string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(io.Discard, level)

	a, err := buildAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.loop.Process(ctx, agent.Input{Prompt: question, Text: question})
	if err != nil {
		return err
	}

	if result.Answer != "" {
		fmt.Fprintln(stdout, result.Answer)
		return nil
	}
	fmt.Fprintln(stdout, result.Markdown)
	return nil
}

// runReindex handles "tg-note reindex": a full rebuild of the vector
// index over the KB.
func runReindex(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(stdout, level)
	logger.Info("config loaded", "path", cfgPath)

	embedder := vector.NewOllamaEmbedder(vector.EmbedderConfig{
		BaseURL: cfg.Vector.OllamaURL,
		Model:   cfg.Vector.Model,
	})
	if err := os.MkdirAll(filepath.Dir(cfg.VectorDBPath()), 0o755); err != nil {
		return err
	}
	idx, err := vector.NewIndex(cfg.VectorDBPath(), cfg.KB.Path, embedder, logger)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer idx.Close()

	added, removed, err := idx.Reindex(ctx, true)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	fmt.Fprintf(stdout, "Reindexed %d files, removed %d stale entries\n", added, removed)
	return nil
}

// defaultConfig is written by "tg-note init".
const defaultConfig = `# tg-note configuration
kb:
  path: ./knowledge_base
  git_enabled: false

agent:
  max_iterations: 10
  enable_web: false
  enable_git: false
  enable_github: false
  enable_shell: false
  enable_vector_search: false
  enable_memory: false

llm:
  # provider: openai | ollama | (empty for rule-based)
  provider: ""
  model: ""
  api_key: ""
  base_url: ""

search:
  primary: searxng
  searxng_url: ""

github:
  token: "${GITHUB_TOKEN}"

log_level: info
`

// runInit seeds a working directory with a config file and an empty
// knowledge base.
func runInit(stdout io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(defaultConfig), 0o644); err != nil {
		return err
	}

	kbDir := filepath.Join(dir, "knowledge_base", "topics", "general")
	if err := os.MkdirAll(kbDir, 0o755); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Initialized %s\n", dir)
	fmt.Fprintf(stdout, "  config:         %s\n", cfgPath)
	fmt.Fprintf(stdout, "  knowledge base: %s\n", filepath.Join(dir, "knowledge_base"))
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "tg-note - Autonomous Knowledge Base Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: tg-note [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  process <text>  Process content into a categorized note")
	fmt.Fprintln(w, "  ask <question>  Answer a question from the KB (no note saved)")
	fmt.Fprintln(w, "  reindex         Rebuild the semantic search index")
	fmt.Fprintln(w, "  init [dir]      Initialize a working directory (default: .)")
	fmt.Fprintln(w, "  version         Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/tg-note/config.yaml, /etc/tg-note/config.yaml")
	return nil
}

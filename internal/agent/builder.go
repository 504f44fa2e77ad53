package agent

import (
	"log/slog"
	"sync"

	"github.com/ArtyomZemlyak/tg-note/internal/events"
	"github.com/ArtyomZemlyak/tg-note/internal/fetch"
	"github.com/ArtyomZemlyak/tg-note/internal/kb"
	"github.com/ArtyomZemlyak/tg-note/internal/llm"
	"github.com/ArtyomZemlyak/tg-note/internal/search"
	"github.com/ArtyomZemlyak/tg-note/internal/tools"
)

// planHolder carries the run-scoped TODO plan shared between the
// plan_todo tool and the rule-based decision source. Single writer
// within a run; reset when a new run begins.
type planHolder struct {
	mu   sync.Mutex
	plan *tools.TodoPlan
}

func (h *planHolder) get() *tools.TodoPlan {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plan
}

func (h *planHolder) set(p *tools.TodoPlan) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.plan = p
}

// Options bundles everything needed to assemble an agent. Optional
// collaborators may be nil; the corresponding tools then fail with a
// structured "not configured" result when invoked.
type Options struct {
	KBRoot string
	Flags  tools.Flags

	// Connector selects the LLM decision source. Nil selects the
	// deterministic rule engine.
	Connector llm.Connector

	// Temperature for LLM decision sampling. Zero keeps the default.
	Temperature float64

	MaxIterations int

	GitHubToken           string
	ShellAllowedPrefixes  []string
	ShellDeniedPatterns   []string
	GitAllowedSubcommands []string

	Search  *search.Manager
	Fetcher *fetch.Fetcher
	Vector  tools.VectorSearcher
	Memory  tools.MemoryStore

	// ExtraTools are registered after the built-ins (MCP-bridged
	// tools, test doubles). Last registration wins on name clashes.
	ExtraTools []*tools.Tool

	Locks  *kb.RootLocks
	Bus    *events.Bus
	UserID string
	Logger *slog.Logger
}

// New assembles a ready-to-run agent loop: tool context, registry,
// decision source, and loop, wired together. This is the one place the
// whole pipeline is composed.
func New(opts Options) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	holder := &planHolder{}

	tc := &tools.Context{
		KBRoot:                opts.KBRoot,
		GitHubToken:           opts.GitHubToken,
		ShellEnabled:          opts.Flags.Shell,
		ShellAllowedPrefixes:  opts.ShellAllowedPrefixes,
		ShellDeniedPatterns:   opts.ShellDeniedPatterns,
		GitAllowedSubcommands: opts.GitAllowedSubcommands,
		Vector:                opts.Vector,
		Memory:                opts.Memory,
		Search:                opts.Search,
		Fetcher:               opts.Fetcher,
		GetPlan:               holder.get,
		SetPlan:               holder.set,
		Bus:                   opts.Bus,
		UserID:                opts.UserID,
		Logger:                logger,
	}

	registry := tools.BuildDefaultRegistry(tc, opts.Flags, logger)
	for _, t := range opts.ExtraTools {
		registry.Register(t)
	}

	var decider DecisionMaker
	modelName := "rule-based"
	if opts.Connector != nil {
		dm := NewLLMDecisionMaker(opts.Connector, registry, logger)
		if opts.Temperature > 0 {
			dm.Temperature = opts.Temperature
		}
		decider = dm
		modelName = opts.Connector.Model()
	} else {
		decider = NewRuleBasedDecisionMaker(holder.get, holder.set, logger)
	}

	loop := NewLoop(registry, decider, opts.Locks, opts.Bus, logger)
	loop.ModelName = modelName
	loop.KBRoot = opts.KBRoot
	if opts.MaxIterations > 0 {
		loop.MaxIterations = opts.MaxIterations
	}
	loop.plan = holder
	return loop
}

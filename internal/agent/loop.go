package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ArtyomZemlyak/tg-note/internal/events"
	"github.com/ArtyomZemlyak/tg-note/internal/kb"
	"github.com/ArtyomZemlyak/tg-note/internal/tools"
)

// DefaultMaxIterations bounds a run when the caller does not choose.
const DefaultMaxIterations = 10

// Loop is the bounded decide-execute state machine. One Loop instance
// serves one run at a time; RunContext state never leaks between calls
// to Process.
type Loop struct {
	registry *tools.Registry
	decider  DecisionMaker
	locks    *kb.RootLocks
	bus      *events.Bus
	logger   *slog.Logger
	plan     *planHolder

	// Name identifies the agent in result metadata.
	Name string
	// ModelName is recorded in result metadata ("rule-based" when no
	// LLM connector drives the run).
	ModelName string
	// MaxIterations is the iteration budget (DefaultMaxIterations when
	// zero or negative).
	MaxIterations int
	// KBRoot is used for run serialization; empty disables locking.
	KBRoot string
}

// NewLoop creates an agent loop. The bus and locks may be nil.
func NewLoop(registry *tools.Registry, decider DecisionMaker, locks *kb.RootLocks, bus *events.Bus, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		registry:      registry,
		decider:       decider,
		locks:         locks,
		bus:           bus,
		logger:        logger,
		Name:          "autonomous-agent",
		ModelName:     "rule-based",
		MaxIterations: DefaultMaxIterations,
	}
}

// Registry exposes the tool registry for post-assembly additions
// (MCP-bridged tools discovered over live connections).
func (l *Loop) Registry() *tools.Registry {
	return l.registry
}

// Process runs the agent on one input and always returns a usable
// Result. The only error it returns is structurally invalid input
// (missing text); every downstream failure is folded into the result's
// metadata instead.
func (l *Loop) Process(ctx context.Context, input Input) (*Result, error) {
	if input.Text == "" && input.Prompt == "" {
		return nil, fmt.Errorf("input is missing required field: text")
	}

	if l.KBRoot != "" {
		release := l.locks.Acquire(l.KBRoot)
		defer release()
	}

	// The TODO plan is run-scoped scratch state, never carried across runs.
	if l.plan != nil {
		l.plan.set(nil)
	}

	runID := uuid.NewString()
	task := input.TaskString()
	rc := NewRunContext(task)

	maxIterations := l.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	l.logger.Info("agent run started",
		"run_id", runID,
		"task_len", len(task),
		"max_iterations", maxIterations,
	)
	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindRunStart,
		Data:      map[string]any{"run_id": runID, "task_len": len(task)},
	})

	var (
		iterations  int
		termination = TerminatedByBudget
		final       Decision
	)

	for iterations < maxIterations {
		iterations++

		decision := l.decider.MakeDecision(ctx, rc)

		if decision.Kind == DecisionEnd {
			termination = TerminatedByDecision
			final = decision
			l.logger.Info("agent run ending by decision",
				"run_id", runID,
				"iteration", iterations,
				"reasoning", decision.Reasoning,
			)
			break
		}

		l.executeTool(ctx, runID, rc, decision)
	}

	if termination == TerminatedByBudget {
		l.logger.Warn("agent run exhausted iteration budget",
			"run_id", runID,
			"iterations", iterations,
		)
	}

	result := l.finalize(runID, rc, final, iterations, termination)

	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindRunComplete,
		Data: map[string]any{
			"run_id":      runID,
			"iterations":  iterations,
			"termination": string(termination),
		},
	})

	return result, nil
}

// executeTool dispatches one tool call and records its outcome. Tool
// failures — including tool-not-found — are recorded, never fatal: the
// next decision sees them in the history.
func (l *Loop) executeTool(ctx context.Context, runID string, rc *RunContext, decision Decision) {
	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindToolCall,
		Data:      map[string]any{"run_id": runID, "tool": decision.ToolName},
	})

	start := time.Now()
	result := l.registry.Execute(ctx, decision.ToolName, decision.ToolParams)

	// Absent "success" is treated as success by convention.
	success := true
	if s, ok := result["success"].(bool); ok {
		success = s
	}
	errMsg, _ := result["error"].(string)

	exec := ToolExecution{
		ToolName:  decision.ToolName,
		Params:    decision.ToolParams,
		Result:    result,
		Success:   success,
		Error:     errMsg,
		Timestamp: start,
	}
	rc.Record(exec)

	l.logger.Debug("tool executed",
		"run_id", runID,
		"tool", decision.ToolName,
		"ok", success,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindToolDone,
		Data: map[string]any{
			"run_id":      runID,
			"tool":        decision.ToolName,
			"ok":          success,
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})
}

// finalize assembles the Result from the terminating decision (or the
// fallback synthesis when the budget ran out with no END).
func (l *Loop) finalize(runID string, rc *RunContext, final Decision, iterations int, termination Termination) *Result {
	markdown := final.FinalResult
	if markdown == "" {
		markdown = synthesizeFallback(rc)
	}

	structure := kb.DetectStructure(rc.Task)

	return &Result{
		Markdown:    markdown,
		Title:       kb.ExtractTitle(markdown),
		KBStructure: structure,
		Answer:      final.Reasoning,
		Metadata: map[string]any{
			"run_id":      runID,
			"agent":       l.Name,
			"model":       l.ModelName,
			"timestamp":   time.Now().Format(time.RFC3339),
			"iterations":  iterations,
			"termination": string(termination),
			"tools_used":  rc.ToolsUsed(),
			"executions":  rc.Executions,
			"errors":      rc.Errors,
		},
	}
}

package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ArtyomZemlyak/tg-note/internal/kb"
	"github.com/ArtyomZemlyak/tg-note/internal/llm"
	"github.com/ArtyomZemlyak/tg-note/internal/tools"
)

// DecisionMaker produces the next Decision for a run. The loop depends
// only on this interface; LLM-driven and rule-based implementations are
// interchangeable.
type DecisionMaker interface {
	MakeDecision(ctx context.Context, rc *RunContext) Decision
}

// systemInstruction frames the LLM's job for every run.
const systemInstruction = `You are a knowledge base assistant. Analyze the given content and organize it into well-structured markdown notes.

Work step by step using the available tools. When you are done, respond with the final markdown note (starting with a '# ' title heading) instead of calling a tool.`

// LLMDecisionMaker asks a chat-completion connector for the next step.
// Connector failures never propagate: they degrade to an END decision
// carrying fallback markdown.
type LLMDecisionMaker struct {
	connector llm.Connector
	registry  *tools.Registry
	logger    *slog.Logger

	// Temperature and MaxTokens are forwarded on every request.
	Temperature float64
	MaxTokens   int
}

// NewLLMDecisionMaker creates an LLM-backed decision source.
func NewLLMDecisionMaker(connector llm.Connector, registry *tools.Registry, logger *slog.Logger) *LLMDecisionMaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMDecisionMaker{
		connector:   connector,
		registry:    registry,
		logger:      logger,
		Temperature: 0.3,
	}
}

// MakeDecision builds the message list (system instruction, task, and
// the execution history when any exists), offers the full tool schema,
// and wraps the model's answer as either a tool call or an END.
func (d *LLMDecisionMaker) MakeDecision(ctx context.Context, rc *RunContext) Decision {
	messages := []llm.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: rc.Task},
	}
	if history := rc.HistoryText(); history != "" {
		messages = append(messages, llm.Message{Role: "assistant", Content: history})
	}

	resp, err := d.connector.ChatCompletion(ctx, &llm.Request{
		Messages:    messages,
		Tools:       d.registry.LLMSchema(),
		Temperature: d.Temperature,
		MaxTokens:   d.MaxTokens,
	})
	if err != nil {
		d.logger.Error("LLM call failed, ending run with fallback", "error", err)
		rc.Errors = append(rc.Errors, "llm: "+err.Error())
		return Decision{
			Kind:        DecisionEnd,
			FinalResult: synthesizeFallback(rc),
			Reasoning:   "LLM connector failed",
		}
	}

	if resp.HasToolCall() {
		call := resp.ToolCalls[0]
		return Decision{
			Kind:       DecisionToolCall,
			ToolName:   call.Name,
			ToolParams: call.Arguments,
			Reasoning:  resp.Content,
		}
	}

	return Decision{
		Kind:        DecisionEnd,
		FinalResult: resp.Content,
		Reasoning:   resp.FinishReason,
	}
}

// RuleBasedDecisionMaker is the deterministic decision source used when
// no LLM connector is configured. It drives a fixed plan: create a TODO
// plan, advance its tasks by keyword matching, then end with a
// synthesized note.
type RuleBasedDecisionMaker struct {
	getPlan func() *tools.TodoPlan
	setPlan func(*tools.TodoPlan)
	logger  *slog.Logger
}

// NewRuleBasedDecisionMaker creates the rule engine. The plan accessors
// are the same callback pair carried by the tool context, so the
// plan_todo tool and this engine share one plan.
func NewRuleBasedDecisionMaker(getPlan func() *tools.TodoPlan, setPlan func(*tools.TodoPlan), logger *slog.Logger) *RuleBasedDecisionMaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleBasedDecisionMaker{getPlan: getPlan, setPlan: setPlan, logger: logger}
}

// MakeDecision advances the deterministic plan by one step.
func (d *RuleBasedDecisionMaker) MakeDecision(_ context.Context, rc *RunContext) Decision {
	plan := d.getPlan()

	// No plan yet: the first decision is always to create one. The
	// template inserts a web step when the task mentions URLs.
	if plan == nil {
		taskList := []any{"analyze content"}
		if strings.Contains(rc.Task, "http") || len(kb.ExtractURLs(rc.Task)) > 0 {
			taskList = append(taskList, "search web")
		}
		return Decision{
			Kind:       DecisionToolCall,
			ToolName:   "plan_todo",
			ToolParams: map[string]any{"tasks": taskList},
			Reasoning:  "creating initial plan",
		}
	}

	// The previously started task finished last iteration.
	for _, item := range plan.Items {
		if item.Status == tools.TodoInProgress {
			item.Status = tools.TodoCompleted
		}
	}

	next := plan.NextPending()
	if next == nil {
		return Decision{
			Kind:        DecisionEnd,
			FinalResult: synthesizeFallback(rc),
			Reasoning:   "all planned tasks completed",
		}
	}

	next.Status = tools.TodoInProgress
	d.logger.Debug("rule engine advancing plan", "task", next.Task)

	desc := strings.ToLower(next.Task)
	switch {
	case strings.Contains(desc, "search web"):
		query := rc.Task
		if urls := kb.ExtractURLs(rc.Task); len(urls) > 0 {
			query = urls[0]
		}
		return Decision{
			Kind:       DecisionToolCall,
			ToolName:   "web_search",
			ToolParams: map[string]any{"query": query},
			Reasoning:  next.Task,
		}
	case strings.Contains(desc, "analyze content"):
		return Decision{
			Kind:       DecisionToolCall,
			ToolName:   "analyze_content",
			ToolParams: map[string]any{"content": rc.Task},
			Reasoning:  next.Task,
		}
	default:
		// Unrecognized descriptions still make progress.
		return Decision{
			Kind:       DecisionToolCall,
			ToolName:   "analyze_content",
			ToolParams: map[string]any{"content": rc.Task},
			Reasoning:  next.Task,
		}
	}
}

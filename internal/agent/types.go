// Package agent implements the autonomous agent: a bounded
// decide-execute loop over the tool registry, driven by either an LLM
// connector or a deterministic rule engine, always terminating with a
// usable markdown note.
package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/ArtyomZemlyak/tg-note/internal/kb"
)

// Input is the unit of work handed to the agent. Text is required;
// URLs supplement it; Prompt, when set, replaces the derived task
// string entirely.
type Input struct {
	Text   string   `json:"text"`
	URLs   []string `json:"urls,omitempty"`
	Prompt string   `json:"prompt,omitempty"`
}

// TaskString derives the immutable task description for one run.
func (in Input) TaskString() string {
	if in.Prompt != "" {
		return in.Prompt
	}
	var sb strings.Builder
	sb.WriteString(in.Text)
	if len(in.URLs) > 0 {
		sb.WriteString("\n\nURLs:\n")
		for _, u := range in.URLs {
			sb.WriteString("- " + u + "\n")
		}
	}
	return sb.String()
}

// ToolExecution records one completed tool call. Immutable once
// appended to the run context.
type ToolExecution struct {
	ToolName  string         `json:"tool_name"`
	Params    map[string]any `json:"params"`
	Result    map[string]any `json:"result"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RunContext is the mutable, loop-scoped state of one agent run. Owned
// exclusively by one Process invocation; grows monotonically; discarded
// when the run ends.
type RunContext struct {
	Task       string
	Executions []ToolExecution
	Errors     []string
}

// NewRunContext creates a fresh run context for a task.
func NewRunContext(task string) *RunContext {
	return &RunContext{Task: task}
}

// Record appends a tool execution and, on failure, its error.
func (rc *RunContext) Record(exec ToolExecution) {
	rc.Executions = append(rc.Executions, exec)
	if !exec.Success && exec.Error != "" {
		rc.Errors = append(rc.Errors, fmt.Sprintf("%s: %s", exec.ToolName, exec.Error))
	}
}

// ToolsUsed returns the distinct tool names in execution order.
func (rc *RunContext) ToolsUsed() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range rc.Executions {
		if !seen[e.ToolName] {
			seen[e.ToolName] = true
			names = append(names, e.ToolName)
		}
	}
	return names
}

// HistoryText renders the execution history for the LLM's benefit.
func (rc *RunContext) HistoryText() string {
	if len(rc.Executions) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Executed so far:\n")
	for i, e := range rc.Executions {
		status := "ok"
		if !e.Success {
			status = "FAILED: " + e.Error
		}
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, e.ToolName, status)
	}
	return sb.String()
}

// DecisionKind tags the variant of a Decision.
type DecisionKind int

const (
	// DecisionToolCall instructs the loop to execute one tool.
	DecisionToolCall DecisionKind = iota
	// DecisionEnd terminates the loop with a final result.
	DecisionEnd
)

// Decision is the output of one ask-the-decision-source step. Consumed
// within a single loop iteration.
type Decision struct {
	Kind        DecisionKind
	ToolName    string
	ToolParams  map[string]any
	FinalResult string
	Reasoning   string
}

// Termination describes how a run ended.
type Termination string

const (
	// TerminatedByDecision means the decision source returned END.
	TerminatedByDecision Termination = "decision"
	// TerminatedByBudget means the iteration budget ran out first.
	TerminatedByBudget Termination = "budget"
)

// Result is the bundle handed back to the caller: the note, where it
// files, and the run's full metadata. Even a fully degraded run
// produces a well-formed Result.
type Result struct {
	Markdown    string         `json:"markdown"`
	Title       string         `json:"title"`
	KBStructure kb.Structure   `json:"kb_structure"`
	Answer      string         `json:"answer,omitempty"`
	Metadata    map[string]any `json:"metadata"`
}

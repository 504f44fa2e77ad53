package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/ArtyomZemlyak/tg-note/internal/kb"
)

// synthesizeFallback builds a complete markdown note from the run
// context alone. Used when the decision source ends without a final
// result: LLM failure, budget exhaustion, or the rule engine finishing
// its plan. The caller must never be left with nothing.
func synthesizeFallback(rc *RunContext) string {
	var sb strings.Builder

	title := kb.Summarize(firstLine(rc.Task), 80)
	if title == "" {
		title = "Note"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	fmt.Fprintf(&sb, "## Content\n\n%s\n", strings.TrimSpace(rc.Task))

	// Surface structured findings from analyze_content runs.
	for _, e := range rc.Executions {
		if e.ToolName != "analyze_content" || !e.Success {
			continue
		}
		if summary, ok := e.Result["summary"].(string); ok && summary != "" {
			fmt.Fprintf(&sb, "\n## Summary\n\n%s\n", summary)
		}
		if keywords, ok := e.Result["keywords"].([]string); ok && len(keywords) > 0 {
			fmt.Fprintf(&sb, "\n**Keywords:** %s\n", strings.Join(keywords, ", "))
		}
		break
	}

	// Real side effects stay visible even when the LLM path failed.
	changes := appliedChanges(rc)
	if len(changes) > 0 {
		sb.WriteString("\n## Changes Applied\n\n")
		for _, c := range changes {
			sb.WriteString("- " + c + "\n")
		}
	}

	if len(rc.Executions) > 0 {
		sb.WriteString("\n## Processing Log\n\n")
		for _, e := range rc.Executions {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			fmt.Fprintf(&sb, "- %s — %s\n", e.ToolName, status)
		}
	}

	if len(rc.Errors) > 0 {
		sb.WriteString("\n## Errors\n\n")
		for _, errMsg := range rc.Errors {
			sb.WriteString("- " + errMsg + "\n")
		}
	}

	fmt.Fprintf(&sb, "\n---\n*Generated %s*\n", time.Now().Format(time.RFC3339))
	return sb.String()
}

// appliedChanges summarizes the successful mutating executions.
func appliedChanges(rc *RunContext) []string {
	var changes []string
	for _, e := range rc.Executions {
		if !e.Success {
			continue
		}
		switch e.ToolName {
		case "file_create":
			changes = append(changes, fmt.Sprintf("Created file %v", e.Params["path"]))
		case "file_edit":
			changes = append(changes, fmt.Sprintf("Edited file %v", e.Params["path"]))
		case "folder_create":
			changes = append(changes, fmt.Sprintf("Created folder %v", e.Params["path"]))
		}
	}
	return changes
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

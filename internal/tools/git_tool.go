package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ArtyomZemlyak/tg-note/internal/vcs"
)

// GitTool returns the VCS tool. Commands run in the KB root; only
// allow-listed subcommands execute.
func GitTool() *Tool {
	return &Tool{
		Name:        "git_command",
		Description: "Run a git command in the knowledge base repository (status, log, diff, add, commit, etc.).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The git subcommand and arguments, without the leading 'git' (e.g., 'status', 'log --oneline -5')",
				},
			},
			"required": []string{"command"},
		},
		Handler: handleGitCommand,
	}
}

func handleGitCommand(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("command is required")
	}
	// Tolerate a redundant leading "git".
	if fields[0] == "git" {
		fields = fields[1:]
		if len(fields) == 0 {
			return nil, fmt.Errorf("missing git subcommand")
		}
	}

	runner := vcs.NewRunner(tc.KBRoot, tc.GitAllowedSubcommands, tc.Logger)
	res, err := runner.Run(ctx, fields[0], fields[1:]...)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"stdout":    res.Stdout,
		"stderr":    res.Stderr,
		"exit_code": res.ExitCode,
	}
	if res.ExitCode != 0 {
		result["success"] = false
		result["error"] = fmt.Sprintf("git %s exited with status %d", fields[0], res.ExitCode)
		return result, nil
	}
	return Ok(result), nil
}

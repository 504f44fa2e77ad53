package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// shellTimeout bounds a single shell command. The loop has no wall-clock
// timeout of its own, so every subprocess must carry one.
const shellTimeout = 30 * time.Second

// maxShellOutput caps captured stdout/stderr.
const maxShellOutput = 100 * 1024

// DefaultDeniedPatterns blocks obviously destructive commands. Substring
// matching is an incomplete defense; the real gate is the disabled-by-
// default flag.
var DefaultDeniedPatterns = []string{
	"rm -rf /",
	"rm -rf /*",
	"mkfs",
	"dd if=",
	"> /dev/sd",
	"chmod -R 777 /",
	":(){ :|:& };:",
}

// ShellTool returns the optional shell escape hatch. Registered only
// when the shell flag is set, and the handler re-checks the flag as
// defense in depth.
func ShellTool() *Tool {
	return &Tool{
		Name:        "shell_command",
		Description: "Execute a shell command in the knowledge base directory. Disabled unless explicitly enabled in configuration.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The shell command to run",
				},
			},
			"required": []string{"command"},
		},
		Handler: handleShellCommand,
	}
}

func handleShellCommand(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error) {
	if !tc.ShellEnabled {
		return nil, fmt.Errorf("shell execution is disabled")
	}

	command, err := stringArg(args, "command")
	if err != nil {
		return nil, err
	}

	if err := checkShellPolicy(command, tc.ShellAllowedPrefixes, tc.ShellDeniedPatterns); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = tc.KBRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("command timed out after %s", shellTimeout)
	}

	exitCode := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return nil, fmt.Errorf("run command: %w", runErr)
	}

	result := map[string]any{
		"stdout":    truncateOutput(stdout.String()),
		"stderr":    truncateOutput(stderr.String()),
		"exit_code": exitCode,
	}
	if exitCode != 0 {
		result["success"] = false
		result["error"] = fmt.Sprintf("command exited with status %d", exitCode)
		return result, nil
	}
	return Ok(result), nil
}

// checkShellPolicy applies the allow-prefix and deny-substring lists.
// Both lists are configuration data.
func checkShellPolicy(command string, allowed, denied []string) error {
	if len(denied) == 0 {
		denied = DefaultDeniedPatterns
	}
	lower := strings.ToLower(command)
	for _, pattern := range denied {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return fmt.Errorf("command blocked by policy: matches denied pattern %q", pattern)
		}
	}

	if len(allowed) > 0 {
		trimmed := strings.TrimSpace(command)
		for _, prefix := range allowed {
			if strings.HasPrefix(trimmed, prefix) {
				return nil
			}
		}
		return fmt.Errorf("command blocked by policy: no allowed prefix matches")
	}
	return nil
}

func truncateOutput(s string) string {
	if len(s) > maxShellOutput {
		return s[:maxShellOutput] + "\n[... output truncated ...]"
	}
	return s
}

// Package vcs runs git against the knowledge base repository. Only an
// allow-listed set of subcommands may be invoked by the agent; the
// commit helper used after a successful run is separate and not policy
// gated.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultAllowedSubcommands is the git subcommand allow-list applied
// when configuration does not provide one. Configuration data, not
// code — deployments can extend or shrink it.
var DefaultAllowedSubcommands = []string{
	"status", "log", "diff", "show", "add", "commit", "branch",
	"checkout", "pull", "push", "stash", "remote",
}

// commandTimeout bounds a single git invocation.
const commandTimeout = 30 * time.Second

// Result is the outcome of one git invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes allow-listed git subcommands in a fixed repository
// directory.
type Runner struct {
	dir     string
	allowed map[string]bool
	logger  *slog.Logger
}

// NewRunner creates a Runner for the repository at dir. An empty
// allow-list falls back to DefaultAllowedSubcommands.
func NewRunner(dir string, allowed []string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowedSubcommands
	}
	set := make(map[string]bool, len(allowed))
	for _, sub := range allowed {
		set[sub] = true
	}
	return &Runner{dir: dir, allowed: set, logger: logger}
}

// Run executes one git subcommand with arguments. The subcommand must
// be on the allow-list; arguments are passed through as-is (never via a
// shell).
func (r *Runner) Run(ctx context.Context, subcommand string, args ...string) (*Result, error) {
	if !r.allowed[subcommand] {
		return nil, fmt.Errorf("git subcommand %q is not allowed", subcommand)
	}

	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	full := append([]string{subcommand}, args...)
	cmd := exec.CommandContext(runCtx, "git", full...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("git %s timed out after %s", subcommand, commandTimeout)
	}

	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		return nil, fmt.Errorf("run git %s: %w", subcommand, err)
	}

	r.logger.Debug("git command finished",
		"subcommand", subcommand,
		"args", strings.Join(args, " "),
		"exit_code", res.ExitCode,
	)
	return res, nil
}

// Commit stages all changes and commits them with the given message.
// Returns false without error when there was nothing to commit.
func (r *Runner) Commit(ctx context.Context, message string) (bool, error) {
	if _, err := r.Run(ctx, "add", "-A"); err != nil {
		return false, err
	}

	res, err := r.Run(ctx, "commit", "-m", message)
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		// git exits 1 when the tree is clean.
		if strings.Contains(res.Stdout, "nothing to commit") ||
			strings.Contains(res.Stderr, "nothing to commit") {
			return false, nil
		}
		return false, fmt.Errorf("git commit failed: %s", strings.TrimSpace(res.Stderr+res.Stdout))
	}

	r.logger.Info("committed knowledge base changes", "message", message)
	return true, nil
}

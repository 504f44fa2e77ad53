package tools

import "log/slog"

// Flags selects which optional tool groups are registered. Planning and
// KB-reading tools are always on. This is the single place capability
// policy is expressed — individual tools do not gate themselves, with
// the one exception of the shell tool's defense-in-depth re-check.
type Flags struct {
	FileManagement bool
	Web            bool
	Git            bool
	GitHub         bool
	Shell          bool
	VectorSearch   bool
	Memory         bool
}

// BuildDefaultRegistry assembles the registry the agent runs with.
// Groups toggled off are simply absent: a decision naming one of their
// tools gets a tool-not-found failure, which the loop records and
// survives.
func BuildDefaultRegistry(tc *Context, flags Flags, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := NewRegistry(tc, logger)

	r.RegisterAll(PlanningTools())
	r.RegisterAll(ReadTools())

	if flags.FileManagement {
		r.RegisterAll(FileTools())
	}
	if flags.Web {
		r.RegisterAll(WebTools())
	}
	if flags.Git {
		r.Register(GitTool())
	}
	if flags.GitHub {
		r.Register(GitHubTool())
	}
	if flags.Shell {
		r.Register(ShellTool())
	}
	if flags.VectorSearch {
		r.RegisterAll(VectorTools())
	}
	if flags.Memory {
		r.RegisterAll(MemoryTools())
	}

	logger.Info("tool registry assembled", "tools", len(r.Names()))
	return r
}

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// stopGrace is how long Close waits for a subprocess to exit after its
// stdin is closed before killing it.
const stopGrace = 5 * time.Second

// StdioConfig describes an MCP server launched as a subprocess and
// spoken to over stdin/stdout with newline-delimited JSON-RPC.
type StdioConfig struct {
	Command string
	Args    []string

	// Env entries ("KEY=VALUE") are appended to the parent environment.
	Env []string

	Logger *slog.Logger
}

// StdioTransport owns the subprocess. Traffic is fully serialized:
// stdio offers no multiplexing, so one call is in flight at a time.
// The subprocess starts lazily on the first Send or Notify and
// survives individual call contexts; only Close or a wire failure
// tears it down.
type StdioTransport struct {
	cfg    StdioConfig
	logger *slog.Logger

	mu   sync.Mutex
	proc *exec.Cmd
	in   io.WriteCloser
	out  *bufio.Reader
}

// NewStdioTransport builds the transport without starting the
// subprocess.
func NewStdioTransport(cfg StdioConfig) *StdioTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioTransport{cfg: cfg, logger: logger}
}

// Send writes the request and reads frames until the response with the
// matching ID arrives. Server-initiated messages in between are logged
// and skipped.
func (t *StdioTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return nil, err
	}
	if err := t.writeFrame(req); err != nil {
		return nil, err
	}

	for {
		line, err := t.readFrame(ctx)
		if err != nil {
			// The stream position is unrecoverable mid-exchange, so a
			// failed or cancelled read costs us the subprocess.
			t.teardown()
			return nil, err
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			t.logger.Log(ctx, levelTrace, "discarding non-json line from mcp subprocess", "line", string(line))
			continue
		}
		if resp.ID != req.ID {
			t.logger.Debug("discarding unmatched mcp message", "id", resp.ID, "want", req.ID)
			continue
		}
		return &resp, nil
	}
}

// Notify writes a notification frame. Nothing is read back.
func (t *StdioTransport) Notify(ctx context.Context, notif *Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return err
	}
	return t.writeFrame(notif)
}

// Close asks the subprocess to exit by closing its stdin, killing it
// after a grace period.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.proc == nil || t.proc.Process == nil {
		return nil
	}
	pid := t.proc.Process.Pid
	t.logger.Info("stopping mcp subprocess", "pid", pid)

	if t.in != nil {
		t.in.Close()
	}

	done := make(chan error, 1)
	go func() { done <- t.proc.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(stopGrace):
		t.logger.Warn("mcp subprocess ignored stdin close, killing", "pid", pid)
		_ = t.proc.Process.Kill()
		<-done
	}
	t.proc, t.in, t.out = nil, nil, nil
	return err
}

// ensure launches the subprocess if it is not running. Caller holds t.mu.
func (t *StdioTransport) ensure() error {
	if t.proc != nil && t.proc.ProcessState == nil {
		return nil
	}

	cmd := exec.Command(t.cfg.Command, t.cfg.Args...)
	cmd.Env = append(os.Environ(), t.cfg.Env...)

	in, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		in.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		in.Close()
		out.Close()
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		in.Close()
		out.Close()
		stderr.Close()
		return fmt.Errorf("start mcp subprocess %s: %w", t.cfg.Command, err)
	}

	t.proc = cmd
	t.in = in
	// Responses can carry whole documents; give the reader room.
	t.out = bufio.NewReaderSize(out, 1<<20)

	// Stderr is not part of the protocol; surface it in the log.
	go logStderr(stderr, t.logger)

	t.logger.Info("mcp subprocess running", "command", t.cfg.Command, "pid", cmd.Process.Pid)
	return nil
}

// writeFrame marshals v and writes it as one newline-delimited line.
// Caller holds t.mu.
func (t *StdioTransport) writeFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if _, err := t.in.Write(append(data, '\n')); err != nil {
		t.teardown()
		return fmt.Errorf("write to mcp subprocess: %w", err)
	}
	return nil
}

// readFrame reads one line from the subprocess, honoring ctx. The
// blocking read runs on its own goroutine so cancellation can
// interrupt it; the abandoned read unblocks when teardown kills the
// subprocess.
func (t *StdioTransport) readFrame(ctx context.Context) ([]byte, error) {
	type frame struct {
		line []byte
		err  error
	}
	ch := make(chan frame, 1)
	reader := t.out
	go func() {
		line, err := reader.ReadBytes('\n')
		ch <- frame{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f := <-ch:
		if f.err != nil {
			return nil, fmt.Errorf("read from mcp subprocess: %w", f.err)
		}
		return f.line, nil
	}
}

// teardown kills the subprocess after a wire failure. Caller holds t.mu.
func (t *StdioTransport) teardown() {
	if t.in != nil {
		t.in.Close()
	}
	if t.proc != nil && t.proc.Process != nil {
		_ = t.proc.Process.Kill()
		_ = t.proc.Wait()
	}
	t.proc, t.in, t.out = nil, nil, nil
}

func logStderr(r io.Reader, logger *slog.Logger) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 256<<10)
	for sc.Scan() {
		logger.Debug("mcp subprocess stderr", "line", sc.Text())
	}
}
